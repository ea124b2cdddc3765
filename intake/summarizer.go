package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/procurely/negotiator/llm"
	"github.com/procurely/negotiator/offer"
)

// ErrNoItems is returned when neither the model nor the request hints yield a
// single sourced item. The workflow cannot negotiate for nothing.
var ErrNoItems = errors.New("no items were identified from the intake request")

const summaryCacheSize = 128

const systemPrompt = `You are an intake specialist for a procurement negotiation bot.
Read the user's request and any known details, then produce a JSON object with:
- ` + "`items`" + `: array of {name, quantity, notes}
- ` + "`budget`" + `: total budget in numeric form when supplied or inferred
- ` + "`delivery_deadline`" + `: ISO date when mentioned
- ` + "`location`" + `: city/country or delivery location
- ` + "`weights`" + `: object with price, quality, delivery, prestige, sustainability (numbers 0-1)
- ` + "`constraints`" + `: array of textual constraints (e.g. warranty >= 2 years)
- ` + "`clarifying_questions`" + `: follow-up questions still needed
- ` + "`missing_information`" + `: short bullet list of what is still unknown
- ` + "`rationale`" + `: short explanation of how you interpreted the request.
Always respond with valid JSON only.`

// Summarizer converts a raw payload into a Summary with a single LLM call,
// merging the model's proposal over the structured hints already on the
// payload. It does not retry; the llm client owns that policy.
type Summarizer struct {
	llm   llm.Client
	cache *lru.Cache[string, *Summary]
}

// NewSummarizer creates a Summarizer backed by the given completion client.
// Summaries are cached by serialized payload in a constant-size LRU so
// replaying an identical request does not re-bill the model.
func NewSummarizer(client llm.Client) (*Summarizer, error) {
	cache, err := lru.New[string, *Summary](summaryCacheSize)
	if err != nil {
		return nil, err
	}
	return &Summarizer{llm: client, cache: cache}, nil
}

// Summarize builds the intake summary for one payload. The returned Summary
// is shared and read-only; callers must not mutate it.
func (s *Summarizer) Summarize(ctx context.Context, payload Payload) (*Summary, error) {
	key, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("serialize intake payload: %w", err)
	}
	if cached, ok := s.cache.Get(string(key)); ok {
		return cached, nil
	}

	suggestion, err := s.llm.CompleteJSON(ctx, systemPrompt, string(key))
	if err != nil {
		return nil, fmt.Errorf("intake summarization failed: %w", err)
	}

	summary, err := merge(suggestion, payload)
	if err != nil {
		return nil, err
	}

	s.cache.Add(string(key), summary)
	return summary, nil
}

// merge prefers the model's value for every field and falls back to the
// payload hint when the model omitted it.
func merge(suggestion map[string]any, payload Payload) (*Summary, error) {
	items, err := mergeItems(suggestion["items"], payload.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	weights, err := mergeWeights(suggestion["weights"], payload.Weights)
	if err != nil {
		return nil, err
	}

	// A zero budget means the model had nothing; keep the payload hint.
	budget := offer.CoerceFloat(suggestion["budget"])
	if budget == nil || *budget == 0 {
		budget = payload.Budget
	}

	deadline := parseDeadline(suggestion["delivery_deadline"])
	if deadline == nil {
		deadline = payload.DeliveryDeadline
	}

	location, _ := suggestion["location"].(string)
	if location == "" {
		location = payload.Location
	}

	constraints := stringList(suggestion["constraints"])
	if len(constraints) == 0 {
		constraints = payload.Constraints
	}
	if constraints == nil {
		constraints = []string{}
	}

	rationale, _ := suggestion["rationale"].(string)

	return &Summary{
		Items:               items,
		Budget:              budget,
		DeliveryDeadline:    deadline,
		Location:            location,
		Weights:             weights.Normalized(),
		Constraints:         constraints,
		ClarifyingQuestions: stringList(suggestion["clarifying_questions"]),
		MissingInformation:  stringList(suggestion["missing_information"]),
		Rationale:           rationale,
	}, nil
}

func mergeItems(proposed any, fallback []Item) ([]Item, error) {
	if proposed == nil {
		return fallback, nil
	}
	encoded, err := json.Marshal(proposed)
	if err != nil {
		return nil, fmt.Errorf("invalid items from model: %w", err)
	}
	var items []Item
	if err := json.Unmarshal(encoded, &items); err != nil {
		return nil, fmt.Errorf("invalid items from model: %w", err)
	}
	if len(items) == 0 {
		return fallback, nil
	}
	for i, item := range items {
		if item.Name == "" {
			return nil, fmt.Errorf("invalid items from model: item %d has no name", i)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("invalid items from model: item %q has quantity %d", item.Name, item.Quantity)
		}
	}
	return items, nil
}

// mergeWeights overlays the model's proposal per dimension on the baseline
// profile (the payload hint when present, the stock defaults otherwise).
// Dimensions the model leaves out keep their baseline value, so a proposal
// like {"price": 1.0} boosts price without zeroing everything else.
func mergeWeights(proposed any, fallback *Weights) (Weights, error) {
	baseline := DefaultWeights()
	if fallback != nil {
		baseline = *fallback
	}
	if proposed == nil {
		return baseline, nil
	}
	encoded, err := json.Marshal(proposed)
	if err != nil {
		return Weights{}, fmt.Errorf("invalid weights from model: %w", err)
	}
	var fields map[string]float64
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return Weights{}, fmt.Errorf("invalid weights from model: %w", err)
	}
	for name, value := range fields {
		switch name {
		case "price":
			baseline.Price = value
		case "quality":
			baseline.Quality = value
		case "delivery":
			baseline.Delivery = value
		case "prestige":
			baseline.Prestige = value
		case "sustainability":
			baseline.Sustainability = value
		}
	}
	return baseline, nil
}

func parseDeadline(value any) *Date {
	raw, ok := value.(string)
	if !ok || raw == "" {
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func stringList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprintf("%v", item))
			}
		}
		return out
	default:
		return []string{}
	}
}
