package offer

import (
	"reflect"
	"testing"
)

var testIdentity = Identity{
	VendorID:       12,
	VendorName:     "Acme Industrial",
	Round:          RoundInitial,
	ConversationID: 301,
	MessageID:      4410,
	RawMessage:     "We can do $48,000 all-in, delivered in 12 days.",
}

func TestFromFields(t *testing.T) {
	fields := map[string]any{
		"total_price":            "$48,000 all-in",
		"currency":               "USD",
		"delivery_days":          12.0,
		"warranty_months":        "24 months",
		"quality_score":          8.5,
		"sustainability_score":   nil,
		"brand_reputation_score": map[string]any{"unexpected": true},
		"extras":                 []any{"installation", "training"},
	}

	got := FromFields(testIdentity, fields)

	if got.VendorID != 12 || got.Round != RoundInitial || got.ConversationID != 301 {
		t.Fatalf("identity not carried through: %+v", got)
	}
	if got.TotalPrice == nil || *got.TotalPrice != 48000 {
		t.Errorf("TotalPrice = %v, want 48000", got.TotalPrice)
	}
	if got.Currency == nil || *got.Currency != "USD" {
		t.Errorf("Currency = %v, want USD", got.Currency)
	}
	if got.DeliveryDays == nil || *got.DeliveryDays != 12 {
		t.Errorf("DeliveryDays = %v, want 12", got.DeliveryDays)
	}
	if got.WarrantyMonths == nil || *got.WarrantyMonths != 24 {
		t.Errorf("WarrantyMonths = %v, want 24", got.WarrantyMonths)
	}
	if got.SustainabilityScore != nil {
		t.Errorf("SustainabilityScore = %v, want absent", got.SustainabilityScore)
	}
	if got.BrandReputationScore != nil {
		t.Errorf("BrandReputationScore = %v, want absent for mapping input", got.BrandReputationScore)
	}
	if want := []string{"installation", "training"}; !reflect.DeepEqual(got.Extras, want) {
		t.Errorf("Extras = %v, want %v", got.Extras, want)
	}
}

func TestFromFields_EmptyMappingNeverPanics(t *testing.T) {
	got := FromFields(testIdentity, map[string]any{})
	if got.TotalPrice != nil || got.DeliveryDays != nil || got.QualityScore != nil {
		t.Errorf("expected all structured fields absent, got %+v", got)
	}
	if got.Extras == nil || len(got.Extras) != 0 {
		t.Errorf("Extras = %v, want empty non-nil slice", got.Extras)
	}
}

func TestDegraded(t *testing.T) {
	got := Degraded(testIdentity)

	if got.VendorID != testIdentity.VendorID || got.RawMessage != testIdentity.RawMessage {
		t.Fatalf("degraded offer lost its identity: %+v", got)
	}
	if got.TotalPrice != nil || got.Currency != nil || got.DeliveryDays != nil ||
		got.WarrantyMonths != nil || got.QualityScore != nil ||
		got.SustainabilityScore != nil || got.BrandReputationScore != nil {
		t.Errorf("degraded offer must have every structured field absent: %+v", got)
	}
	if len(got.Extras) != 0 {
		t.Errorf("degraded offer extras = %v, want empty", got.Extras)
	}
}
