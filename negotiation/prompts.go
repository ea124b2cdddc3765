package negotiation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/procurely/negotiator/catalog"
	"github.com/procurely/negotiator/intake"
)

const extractionSystemPrompt = "You read vendor replies and summarize them into a structured offer JSON."

const strategySystemPrompt = "You are a negotiation strategist. Given the intake summary and vendor offer, craft:\n" +
	"- `strategy`: short guidance on tone + levers\n" +
	"- `message`: final negotiation message to send to the vendor. Mention price, delivery, and extras.\n" +
	"Respond as JSON."

// expectedOfferFields is sent to the extraction model so it knows the schema.
var expectedOfferFields = []string{
	"total_price",
	"currency",
	"delivery_days",
	"warranty_months",
	"quality_score",
	"sustainability_score",
	"brand_reputation_score",
	"extras",
}

// buildInitialPrompt renders the round-one offer request from the intake
// summary. The wording is part of the negotiation contract with the simulated
// vendors; keep it stable.
func buildInitialPrompt(v catalog.Vendor, summary *intake.Summary) string {
	var items strings.Builder
	for i, item := range summary.Items {
		if i > 0 {
			items.WriteByte('\n')
		}
		fmt.Fprintf(&items, "- %d x %s", item.Quantity, item.Name)
		if item.Notes != "" {
			fmt.Fprintf(&items, " (%s)", item.Notes)
		}
	}

	constraints := "None"
	if len(summary.Constraints) > 0 {
		constraints = strings.Join(summary.Constraints, "; ")
	}

	location := summary.Location
	if location == "" {
		location = "TBD"
	}

	budget := "flexible"
	if summary.Budget != nil && *summary.Budget != 0 {
		budget = "$" + formatWholeAmount(*summary.Budget)
	}

	delivery := "need your soonest"
	if summary.DeliveryDeadline != nil {
		delivery = summary.DeliveryDeadline.Format("2006-01-02")
	}

	return fmt.Sprintf(`Hello %s team,

We are sourcing the following items:
%s

Budget: %s
Delivery target: %s
Ship to: %s
Additional constraints: %s

Please share your best all-in offer including:
- Total price (with currency)
- Delivery timeline in days
- Warranty coverage
- Quality or sustainability highlights
- Any extras you can include (installation, training, etc.)`,
		v.Name, items.String(), budget, delivery, location, constraints)
}

// fallbackSecondRoundMessage is the deterministic round-two message used when
// the strategist call fails or yields no message.
func fallbackSecondRoundMessage(summary *intake.Summary) string {
	targetPrice := "our budget"
	if summary.Budget != nil && *summary.Budget != 0 {
		targetPrice = "staying close to $" + formatWholeAmount(*summary.Budget)
	}

	delivery := "your fastest lead time"
	if summary.DeliveryDeadline != nil {
		delivery = summary.DeliveryDeadline.Format("2006-01-02")
	}

	return fmt.Sprintf(`Thanks for the detailed proposal. To move forward we need:
- A sharper price closer to %s
- Delivery before %s
- Extras such as training or extended warranty if possible
Please review and share your best revision.`, targetPrice, delivery)
}

// stringifyField renders a loosely-typed LLM field as text: strings pass
// through, maps and slices become compact JSON, anything else is fmt-printed.
// Nil and empty strings yield "".
func stringifyField(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatWholeAmount renders a monetary amount with thousands separators and
// no decimals, e.g. 48500.2 -> "48,500".
func formatWholeAmount(value float64) string {
	rounded := strconv.FormatFloat(math.Round(value), 'f', 0, 64)

	negative := strings.HasPrefix(rounded, "-")
	digits := strings.TrimPrefix(rounded, "-")

	var grouped strings.Builder
	for i, digit := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}
	if negative {
		return "-" + grouped.String()
	}
	return grouped.String()
}
