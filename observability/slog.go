package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// SlogObserver emits events to a slog.Logger. The event step becomes the log
// message and the payload is attached as a single pre-serialized JSON attribute
// so downstream collectors see one stable shape per step.
//
// Serialization failures degrade to an unstructured fallback line instead of
// propagating: diagnostics must never fail the run they are diagnosing.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a SlogObserver that emits to the given logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	attrs := []slog.Attr{slog.String("source", event.Source)}

	payload, err := json.Marshal(event.Data)
	if err != nil {
		attrs = append(attrs, slog.String("payload_raw", fmt.Sprintf("%v", event.Data)))
	} else {
		attrs = append(attrs, slog.String("payload", string(payload)))
	}

	o.logger.LogAttrs(ctx, event.Level.SlogLevel(), string(event.Step), attrs...)
}
