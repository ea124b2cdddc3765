package observability

import "context"

// MultiObserver forwards each event to every observer in order. The zero
// value is usable and drops everything.
type MultiObserver []Observer

// NewMultiObserver combines sinks into a single Observer, skipping nil
// entries.
func NewMultiObserver(observers ...Observer) MultiObserver {
	combined := make(MultiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			combined = append(combined, o)
		}
	}
	return combined
}

func (m MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, o := range m {
		o.OnEvent(ctx, event)
	}
}
