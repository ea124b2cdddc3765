package negotiation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/procurely/negotiator/offer"
)

// finalOffer returns the second-round offer when the vendor produced one,
// otherwise the initial offer.
func finalOffer(outcome VendorOutcome) offer.VendorOffer {
	if outcome.SecondOffer != nil {
		return *outcome.SecondOffer
	}
	return outcome.InitialOffer
}

func finalScore(outcome VendorOutcome) float64 {
	if len(outcome.Scores) == 0 {
		return 0
	}
	return outcome.Scores[len(outcome.Scores)-1].WeightedScore
}

// buildTradeoffOptions derives the labeled recommendations from the final
// offers. Ties resolve to the earlier outcome; an empty outcome list yields
// no options rather than an error.
func buildTradeoffOptions(outcomes []VendorOutcome) []TradeoffOption {
	if len(outcomes) == 0 {
		return []TradeoffOption{}
	}

	bestPrice := pickOutcome(outcomes, func(o VendorOutcome) float64 {
		if price := finalOffer(o).TotalPrice; price != nil {
			return *price
		}
		return math.Inf(1)
	}, false)

	bestQuality := pickOutcome(outcomes, func(o VendorOutcome) float64 {
		if quality := finalOffer(o).QualityScore; quality != nil {
			return *quality
		}
		return 0
	}, true)

	fastestDelivery := pickOutcome(outcomes, func(o VendorOutcome) float64 {
		if days := finalOffer(o).DeliveryDays; days != nil {
			return float64(*days)
		}
		return math.Inf(1)
	}, false)

	balanced := pickOutcome(outcomes, finalScore, true)

	return []TradeoffOption{
		{
			Label:      "Best Price",
			VendorID:   bestPrice.VendorID,
			VendorName: bestPrice.VendorName,
			Summary:    priceSummary(finalOffer(bestPrice)),
			Rationale:  "Lowest total investment after two rounds.",
		},
		{
			Label:      "Best Quality",
			VendorID:   bestQuality.VendorID,
			VendorName: bestQuality.VendorName,
			Summary:    "Quality score " + floatOrNA(finalOffer(bestQuality).QualityScore),
			Rationale:  "Highest quality/brand metrics from the final offers.",
		},
		{
			Label:      "Fastest Delivery",
			VendorID:   fastestDelivery.VendorID,
			VendorName: fastestDelivery.VendorName,
			Summary:    intOrNA(finalOffer(fastestDelivery).DeliveryDays) + " days",
			Rationale:  "Quickest confirmed delivery timeline.",
		},
		{
			Label:      "Balanced",
			VendorID:   balanced.VendorID,
			VendorName: balanced.VendorName,
			Summary:    fmt.Sprintf("Weighted score %.2f", finalScore(balanced)),
			Rationale:  "Best composite score across price, quality, delivery, prestige, and sustainability.",
		},
	}
}

// pickOutcome returns the outcome minimizing (or maximizing) key, keeping the
// earliest on ties.
func pickOutcome(outcomes []VendorOutcome, key func(VendorOutcome) float64, maximize bool) VendorOutcome {
	best := outcomes[0]
	bestKey := key(best)
	for _, candidate := range outcomes[1:] {
		candidateKey := key(candidate)
		if (maximize && candidateKey > bestKey) || (!maximize && candidateKey < bestKey) {
			best = candidate
			bestKey = candidateKey
		}
	}
	return best
}

func priceSummary(o offer.VendorOffer) string {
	if o.TotalPrice == nil {
		return "N/A"
	}
	amount := strconv.FormatFloat(*o.TotalPrice, 'f', -1, 64)
	if *o.TotalPrice > 100 {
		amount = formatWholeAmount(*o.TotalPrice)
	}
	if o.Currency == nil || *o.Currency == "" {
		return amount
	}
	return *o.Currency + " " + amount
}

func floatOrNA(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func intOrNA(value *int) string {
	if value == nil {
		return "n/a"
	}
	return strconv.Itoa(*value)
}
