// Package negotiation orchestrates the two-round vendor negotiation: intake
// summary, first-round fan-out, shortlist, second-round push, and trade-off
// synthesis.
package negotiation

import (
	"errors"

	"github.com/procurely/negotiator/catalog"
	"github.com/procurely/negotiator/intake"
	"github.com/procurely/negotiator/offer"
	"github.com/procurely/negotiator/scoring"
)

var (
	// ErrNoVendors is returned when vendor selection yields an empty set;
	// there is nobody to negotiate with.
	ErrNoVendors = errors.New("no vendors available from the catalog")

	// ErrEmptyShortlist is returned when the first round produces no entries
	// to shortlist.
	ErrEmptyShortlist = errors.New("first round produced an empty shortlist")
)

// Request is one inbound negotiation run. VendorIDs restricts the catalog to
// an explicit subset; VendorLimit caps how many vendors are contacted (zero
// means the configured maximum).
type Request struct {
	Intake      intake.Payload `json:"intake"`
	VendorIDs   []int          `json:"vendor_ids,omitempty"`
	VendorLimit int            `json:"vendor_limit,omitempty"`
}

// VendorOutcome is the full negotiation record for one shortlisted vendor:
// both offers, both scores, and the strategy used in round two.
type VendorOutcome struct {
	VendorID       int                  `json:"vendor_id"`
	VendorName     string               `json:"vendor_name"`
	ConversationID int                  `json:"conversation_id"`
	Strategy       string               `json:"strategy"`
	InitialOffer   offer.VendorOffer    `json:"initial_offer"`
	SecondOffer    *offer.VendorOffer   `json:"second_offer,omitempty"`
	Scores         []scoring.RoundScore `json:"scores"`
}

// TradeoffOption is one labeled recommendation derived from the final offers.
type TradeoffOption struct {
	Label      string `json:"label"`
	VendorID   int    `json:"vendor_id"`
	VendorName string `json:"vendor_name"`
	Summary    string `json:"summary"`
	Rationale  string `json:"rationale"`
}

// Response is the complete result of one run.
type Response struct {
	IntakeSummary      *intake.Summary  `json:"intake_summary"`
	ShortlistedVendors []VendorOutcome  `json:"shortlisted_vendors"`
	TradeoffOptions    []TradeoffOption `json:"tradeoff_options"`
}

// vendorRound carries one vendor's first-round state into the shortlist and
// the second round.
type vendorRound struct {
	Vendor         catalog.Vendor
	ConversationID int
	FirstMessage   catalog.Message
	FirstOffer     offer.VendorOffer
	FirstScore     scoring.RoundScore
}
