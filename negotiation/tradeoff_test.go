package negotiation

import (
	"testing"

	"github.com/procurely/negotiator/offer"
	"github.com/procurely/negotiator/scoring"
)

func outcomeWith(id int, name string, o offer.VendorOffer, weighted float64) VendorOutcome {
	o.VendorID = id
	o.VendorName = name
	second := o
	second.Round = offer.RoundSecond
	return VendorOutcome{
		VendorID:     id,
		VendorName:   name,
		InitialOffer: o,
		SecondOffer:  &second,
		Scores: []scoring.RoundScore{
			{Round: offer.RoundInitial, WeightedScore: weighted},
			{Round: offer.RoundSecond, WeightedScore: weighted},
		},
	}
}

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }
func sptr(s string) *string   { return &s }

func TestBuildTradeoffOptions_EmptyOutcomes(t *testing.T) {
	options := buildTradeoffOptions(nil)
	if len(options) != 0 {
		t.Errorf("options = %+v, want none", options)
	}
}

func TestBuildTradeoffOptions_Selection(t *testing.T) {
	outcomes := []VendorOutcome{
		outcomeWith(1, "Alpha", offer.VendorOffer{
			TotalPrice:   fptr(42000),
			Currency:     sptr("EUR"),
			DeliveryDays: iptr(21),
			QualityScore: fptr(7),
		}, 0.71),
		outcomeWith(2, "Bravo", offer.VendorOffer{
			TotalPrice:   fptr(55000),
			DeliveryDays: iptr(7),
			QualityScore: fptr(9.5),
		}, 0.68),
		outcomeWith(3, "Charlie", offer.VendorOffer{
			// No structured fields at all: worst or neutral on every axis.
		}, 0.5),
	}

	options := buildTradeoffOptions(outcomes)
	if len(options) != 4 {
		t.Fatalf("options = %d, want 4", len(options))
	}

	byLabel := map[string]TradeoffOption{}
	for _, option := range options {
		byLabel[option.Label] = option
	}

	if got := byLabel["Best Price"]; got.VendorName != "Alpha" || got.Summary != "EUR 42,000" {
		t.Errorf("Best Price = %+v", got)
	}
	if got := byLabel["Best Quality"]; got.VendorName != "Bravo" || got.Summary != "Quality score 9.5" {
		t.Errorf("Best Quality = %+v", got)
	}
	if got := byLabel["Fastest Delivery"]; got.VendorName != "Bravo" || got.Summary != "7 days" {
		t.Errorf("Fastest Delivery = %+v", got)
	}
	if got := byLabel["Balanced"]; got.VendorName != "Alpha" || got.Summary != "Weighted score 0.71" {
		t.Errorf("Balanced = %+v", got)
	}
}

func TestBuildTradeoffOptions_ContrastingAxes(t *testing.T) {
	outcomes := []VendorOutcome{
		outcomeWith(1, "Alpha", offer.VendorOffer{
			TotalPrice:   fptr(100),
			QualityScore: fptr(5),
			DeliveryDays: iptr(10),
		}, 0.6),
		outcomeWith(2, "Bravo", offer.VendorOffer{
			TotalPrice:   fptr(50),
			QualityScore: fptr(9),
			DeliveryDays: iptr(20),
		}, 0.8),
		outcomeWith(3, "Charlie", offer.VendorOffer{
			TotalPrice:   fptr(200),
			QualityScore: fptr(2),
			DeliveryDays: iptr(3),
		}, 0.3),
	}

	options := buildTradeoffOptions(outcomes)
	byLabel := map[string]TradeoffOption{}
	for _, option := range options {
		byLabel[option.Label] = option
	}

	if byLabel["Best Price"].VendorName != "Bravo" {
		t.Errorf("Best Price = %q, want Bravo", byLabel["Best Price"].VendorName)
	}
	if byLabel["Best Quality"].VendorName != "Bravo" {
		t.Errorf("Best Quality = %q, want Bravo", byLabel["Best Quality"].VendorName)
	}
	if byLabel["Fastest Delivery"].VendorName != "Charlie" {
		t.Errorf("Fastest Delivery = %q, want Charlie", byLabel["Fastest Delivery"].VendorName)
	}
	if byLabel["Balanced"].VendorName != "Bravo" {
		t.Errorf("Balanced = %q, want Bravo", byLabel["Balanced"].VendorName)
	}
}

func TestBuildTradeoffOptions_TiesKeepEarlierOutcome(t *testing.T) {
	outcomes := []VendorOutcome{
		outcomeWith(1, "Alpha", offer.VendorOffer{TotalPrice: fptr(30000)}, 0.6),
		outcomeWith(2, "Bravo", offer.VendorOffer{TotalPrice: fptr(30000)}, 0.6),
	}

	options := buildTradeoffOptions(outcomes)
	for _, option := range options {
		if option.VendorName != "Alpha" {
			t.Errorf("%s = %q, want the earlier outcome on ties", option.Label, option.VendorName)
		}
	}
}

func TestBuildTradeoffOptions_SecondOfferPreferred(t *testing.T) {
	initial := offer.VendorOffer{TotalPrice: fptr(60000), Round: offer.RoundInitial}
	improved := offer.VendorOffer{TotalPrice: fptr(48000), Currency: sptr("USD"), Round: offer.RoundSecond}

	outcomes := []VendorOutcome{{
		VendorID:     1,
		VendorName:   "Alpha",
		InitialOffer: initial,
		SecondOffer:  &improved,
		Scores:       []scoring.RoundScore{{WeightedScore: 0.6}, {WeightedScore: 0.7}},
	}}

	options := buildTradeoffOptions(outcomes)
	byLabel := map[string]TradeoffOption{}
	for _, option := range options {
		byLabel[option.Label] = option
	}

	if got := byLabel["Best Price"].Summary; got != "USD 48,000" {
		t.Errorf("Best Price summary = %q, want the second-round price", got)
	}
	if got := byLabel["Balanced"].Summary; got != "Weighted score 0.70" {
		t.Errorf("Balanced summary = %q, want the last score", got)
	}
}

func TestBuildTradeoffOptions_AbsentFieldSummaries(t *testing.T) {
	outcomes := []VendorOutcome{
		outcomeWith(1, "Alpha", offer.VendorOffer{}, 0.5),
	}

	options := buildTradeoffOptions(outcomes)
	byLabel := map[string]TradeoffOption{}
	for _, option := range options {
		byLabel[option.Label] = option
	}

	if got := byLabel["Best Price"].Summary; got != "N/A" {
		t.Errorf("Best Price summary = %q, want N/A", got)
	}
	if got := byLabel["Best Quality"].Summary; got != "Quality score n/a" {
		t.Errorf("Best Quality summary = %q", got)
	}
	if got := byLabel["Fastest Delivery"].Summary; got != "n/a days" {
		t.Errorf("Fastest Delivery summary = %q", got)
	}
}

func TestPriceSummary_SmallAmountsKeepDecimals(t *testing.T) {
	got := priceSummary(offer.VendorOffer{TotalPrice: fptr(99.5), Currency: sptr("USD")})
	if got != "USD 99.5" {
		t.Errorf("priceSummary = %q, want %q", got, "USD 99.5")
	}
}
