// Package intake turns a raw procurement request into a structured summary
// the rest of the workflow can negotiate from.
package intake

import (
	"fmt"
	"strings"
	"time"
)

// Item is a single line of the procurement request. Immutable once produced.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

// Weights holds the five non-negative preference weights used by the scoring
// engine. Construct from LLM output or request defaults, call Normalized once,
// and never mutate afterward.
type Weights struct {
	Price          float64 `json:"price"`
	Quality        float64 `json:"quality"`
	Delivery       float64 `json:"delivery"`
	Prestige       float64 `json:"prestige"`
	Sustainability float64 `json:"sustainability"`
}

// DefaultWeights returns the stock preference profile used when neither the
// request nor the model supplies one.
func DefaultWeights() Weights {
	return Weights{
		Price:          0.35,
		Quality:        0.2,
		Delivery:       0.2,
		Prestige:       0.15,
		Sustainability: 0.1,
	}
}

// Normalized scales the five weights to sum to 1.0. An all-zero vector is
// returned unchanged; callers must treat it as "no opinion" rather than
// risk a divide-by-zero here.
func (w Weights) Normalized() Weights {
	total := w.Price + w.Quality + w.Delivery + w.Prestige + w.Sustainability
	if total == 0 {
		return w
	}
	return Weights{
		Price:          w.Price / total,
		Quality:        w.Quality / total,
		Delivery:       w.Delivery / total,
		Prestige:       w.Prestige / total,
		Sustainability: w.Sustainability / total,
	}
}

// Date is a calendar date serialized as "2006-01-02". Deadlines have day
// resolution; carrying a full timestamp would suggest precision the intake
// does not have.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date, tolerating a trailing time component.
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(dateLayout, value); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return Date{t.Truncate(24 * time.Hour)}, nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if value == "null" || value == "" {
		return nil
	}
	parsed, err := ParseDate(value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysFrom returns the whole calendar days from t until the date. Negative
// when the date is in the past.
func (d Date) DaysFrom(t time.Time) int {
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	until := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return int(until.Sub(from).Hours() / 24)
}

// Payload is the raw inbound request: free text plus whatever structured
// hints the caller already knows. Hints act as the merge baseline when the
// model omits a field.
type Payload struct {
	InitialRequest   string   `json:"initial_request"`
	Items            []Item   `json:"items,omitempty"`
	Budget           *float64 `json:"budget,omitempty"`
	DeliveryDeadline *Date    `json:"delivery_deadline,omitempty"`
	Location         string   `json:"location,omitempty"`
	Weights          *Weights `json:"weights,omitempty"`
	Constraints      []string `json:"constraints,omitempty"`
}

// Summary is the structured interpretation of one procurement request.
// Created once per workflow run and shared read-only with the scoring engine
// and the prompt builders.
type Summary struct {
	Items               []Item   `json:"items"`
	Budget              *float64 `json:"budget,omitempty"`
	DeliveryDeadline    *Date    `json:"delivery_deadline,omitempty"`
	Location            string   `json:"location,omitempty"`
	Weights             Weights  `json:"weights"`
	Constraints         []string `json:"constraints"`
	ClarifyingQuestions []string `json:"clarifying_questions"`
	MissingInformation  []string `json:"missing_information"`
	Rationale           string   `json:"rationale,omitempty"`
}
