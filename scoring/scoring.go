// Package scoring converts one structured vendor offer plus the run's
// preference weights into a single weighted score with an auditable
// per-dimension breakdown.
package scoring

import (
	"math"
	"time"

	"github.com/procurely/negotiator/intake"
	"github.com/procurely/negotiator/offer"
)

// Heuristic ceilings used when the intake gives no budget or deadline to
// score against.
const (
	fallbackPriceCeiling   = 100000.0
	fallbackDeliveryDays   = 120.0
	neutralComponentScore  = 0.5
	weightedScorePrecision = 4
)

// RoundScore is the deterministic scoring of one offer. The breakdown carries
// all five raw component scores (pre-weighting) for auditability.
type RoundScore struct {
	Round         offer.Round        `json:"round"`
	WeightedScore float64            `json:"weighted_score"`
	Breakdown     map[string]float64 `json:"breakdown"`
	Notes         string             `json:"notes,omitempty"`
}

// Engine scores offers against one intake summary. It owns the normalized
// weight vector for the lifetime of a workflow run. Score is a pure function
// of the offer, the intake, and the clock.
type Engine struct {
	intake  *intake.Summary
	weights intake.Weights
	now     func() time.Time
}

// NewEngine creates an Engine for the given summary. The summary's weights
// are normalized defensively in case the caller skipped it.
func NewEngine(summary *intake.Summary) *Engine {
	return &Engine{
		intake:  summary,
		weights: summary.Weights.Normalized(),
		now:     time.Now,
	}
}

// WithClock overrides the engine's clock for deterministic tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Score computes the weighted score for one offer. Every component is clamped
// to [0,1]; absent inputs score the neutral 0.5 prior so a missing value is
// not punished as badly as a bad one. An all-zero weight vector yields a
// weighted score of 0 regardless of the offer; that degenerate behavior is
// accepted, not corrected.
func (e *Engine) Score(o offer.VendorOffer) RoundScore {
	breakdown := map[string]float64{
		"price":          e.priceScore(o),
		"quality":        scaleZeroToTen(o.QualityScore),
		"delivery":       e.deliveryScore(o),
		"prestige":       scaleZeroToTen(o.BrandReputationScore),
		"sustainability": scaleZeroToTen(o.SustainabilityScore),
	}

	weighted := breakdown["price"]*e.weights.Price +
		breakdown["quality"]*e.weights.Quality +
		breakdown["delivery"]*e.weights.Delivery +
		breakdown["prestige"]*e.weights.Prestige +
		breakdown["sustainability"]*e.weights.Sustainability

	return RoundScore{
		Round:         o.Round,
		WeightedScore: roundTo(weighted, weightedScorePrecision),
		Breakdown:     breakdown,
	}
}

func (e *Engine) priceScore(o offer.VendorOffer) float64 {
	if o.TotalPrice == nil {
		return neutralComponentScore
	}
	if e.intake.Budget != nil && *e.intake.Budget != 0 {
		return clamp(*e.intake.Budget / math.Max(*o.TotalPrice, 1))
	}
	return clamp(1 - *o.TotalPrice/fallbackPriceCeiling)
}

func (e *Engine) deliveryScore(o offer.VendorOffer) float64 {
	if o.DeliveryDays == nil {
		return neutralComponentScore
	}
	if e.intake.DeliveryDeadline != nil {
		targetDays := math.Max(float64(e.intake.DeliveryDeadline.DaysFrom(e.now())), 1)
		slack := targetDays - float64(*o.DeliveryDays)
		return clamp(0.5 + slack/targetDays)
	}
	return clamp(1 - float64(*o.DeliveryDays)/fallbackDeliveryDays)
}

func scaleZeroToTen(value *float64) float64 {
	if value == nil {
		return neutralComponentScore
	}
	return clamp(*value / 10)
}

func clamp(value float64) float64 {
	if math.IsNaN(value) {
		return 0
	}
	return math.Max(0, math.Min(1, value))
}

func roundTo(value float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(value*scale) / scale
}
