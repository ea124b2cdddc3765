// Package offer defines the structured vendor offer model and the total
// coercion functions that turn loosely-typed LLM output into it.
package offer

// Round identifies which negotiation round produced an offer.
type Round string

const (
	RoundInitial Round = "initial"
	RoundSecond  Round = "second"
)

// VendorOffer is the structured reading of one free-text vendor reply.
// Numeric fields are pointers: nil means the vendor never stated the value,
// which the scoring engine treats as a neutral prior rather than a zero.
// An offer is produced exactly once per (vendor, round) and never mutated.
type VendorOffer struct {
	VendorID             int      `json:"vendor_id"`
	VendorName           string   `json:"vendor_name"`
	Round                Round    `json:"round"`
	ConversationID       int      `json:"conversation_id"`
	MessageID            int      `json:"message_id"`
	RawMessage           string   `json:"raw_message"`
	TotalPrice           *float64 `json:"total_price,omitempty"`
	Currency             *string  `json:"currency,omitempty"`
	DeliveryDays         *int     `json:"delivery_days,omitempty"`
	WarrantyMonths       *int     `json:"warranty_months,omitempty"`
	QualityScore         *float64 `json:"quality_score,omitempty"`
	SustainabilityScore  *float64 `json:"sustainability_score,omitempty"`
	BrandReputationScore *float64 `json:"brand_reputation_score,omitempty"`
	Extras               []string `json:"extras"`
}

// Identity pins an offer to its vendor, round, and conversation before any
// field extraction happens, so even a fully degraded offer stays attributable.
type Identity struct {
	VendorID       int
	VendorName     string
	Round          Round
	ConversationID int
	MessageID      int
	RawMessage     string
}

// FromFields builds a VendorOffer from a parsed LLM field mapping. Every field
// goes through a total coercion function, so malformed values degrade to
// absent instead of failing the offer.
func FromFields(id Identity, fields map[string]any) VendorOffer {
	return VendorOffer{
		VendorID:             id.VendorID,
		VendorName:           id.VendorName,
		Round:                id.Round,
		ConversationID:       id.ConversationID,
		MessageID:            id.MessageID,
		RawMessage:           id.RawMessage,
		TotalPrice:           CoerceFloat(fields["total_price"]),
		Currency:             coerceString(fields["currency"]),
		DeliveryDays:         CoerceInt(fields["delivery_days"]),
		WarrantyMonths:       CoerceInt(fields["warranty_months"]),
		QualityScore:         CoerceFloat(fields["quality_score"]),
		SustainabilityScore:  CoerceFloat(fields["sustainability_score"]),
		BrandReputationScore: CoerceFloat(fields["brand_reputation_score"]),
		Extras:               NormalizeExtras(fields["extras"]),
	}
}

// Degraded builds the fallback offer used when extraction fails: identity and
// raw message survive, every structured field is absent, extras is empty.
func Degraded(id Identity) VendorOffer {
	return VendorOffer{
		VendorID:       id.VendorID,
		VendorName:     id.VendorName,
		Round:          id.Round,
		ConversationID: id.ConversationID,
		MessageID:      id.MessageID,
		RawMessage:     id.RawMessage,
		Extras:         []string{},
	}
}

func coerceString(value any) *string {
	s, ok := value.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}
