package observability

import "context"

// NoOpObserver ignores every event. It is the default sink wherever an
// Observer is optional.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}
