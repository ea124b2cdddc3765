// Package observability provides the structured diagnostics sink for the
// negotiation workflow. Level values align with OpenTelemetry SeverityNumbers
// for zero-translation compatibility with OTel collectors.
//
// LLM-driven runs are non-deterministic; the event stream (prompts sent, raw
// vendor replies, extracted offers, scores) is the primary debugging tool, so
// every subsystem takes an injected Observer rather than logging globally.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level represents event severity aligned with OTel SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8), maps to slog.LevelDebug
	LevelInfo    Level = 9  // OTel INFO (9-12), maps to slog.LevelInfo
	LevelWarning Level = 13 // OTel WARN (13-16), maps to slog.LevelWarn
	LevelError   Level = 17 // OTel ERROR (17-20), maps to slog.LevelError
)

// String returns the OTel severity text for the level.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps this level to the corresponding slog.Level for log emission.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Step is the stable name of a workflow step (e.g. "negotiation.intake_summary").
// Each subsystem defines its own constants using this type. Step names are part
// of the diagnostic contract and must not change between releases.
type Step string

// Event is a single observable step in a workflow run. Data must be
// JSON-serializable; observers that serialize it are required to degrade
// gracefully when it is not, never to fail the run.
type Event struct {
	Step      Step
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events from subsystems for logging, tracing, or metrics.
// Implementations must never panic; a failing sink degrades, it does not
// abort the caller.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}
