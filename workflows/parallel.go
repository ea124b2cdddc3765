// Package workflows provides the bounded parallel fan-out used to run the
// per-vendor negotiation rounds concurrently.
package workflows

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/procurely/negotiator/observability"
)

// Observable step names emitted by the parallel runner.
const (
	StepParallelStart    observability.Step = "workflows.parallel_start"
	StepWorkerStart      observability.Step = "workflows.worker_start"
	StepWorkerComplete   observability.Step = "workflows.worker_complete"
	StepParallelComplete observability.Step = "workflows.parallel_complete"
)

// TaskProcessor processes one item independently of all others. It must be
// safe to call from multiple goroutines.
type TaskProcessor[TItem, TResult any] func(ctx context.Context, item TItem) (TResult, error)

// Config controls the worker pool.
type Config struct {
	// MaxWorkers bounds the pool. Zero means auto-detect from NumCPU,
	// capped by the item count.
	MaxWorkers int

	// FailFast cancels the remaining work on the first error. When false the
	// run continues and per-item errors are collected on the result.
	FailFast bool

	// Observer receives lifecycle events. Nil disables observation.
	Observer observability.Observer
}

func (c Config) observer() observability.Observer {
	if c.Observer == nil {
		return observability.NoOpObserver{}
	}
	return c.Observer
}

// TaskError records the failure of a single item.
type TaskError[TItem any] struct {
	Index int
	Item  TItem
	Err   error
}

func (e TaskError[TItem]) Error() string {
	return fmt.Sprintf("task %d: %v", e.Index, e.Err)
}

func (e TaskError[TItem]) Unwrap() error { return e.Err }

// ParallelError aggregates the task failures of one run.
type ParallelError[TItem any] struct {
	Errors []TaskError[TItem]
}

func (e *ParallelError[TItem]) Error() string {
	messages := make([]string, len(e.Errors))
	for i, taskErr := range e.Errors {
		messages[i] = taskErr.Error()
	}
	return fmt.Sprintf("%d task(s) failed: %s", len(e.Errors), strings.Join(messages, "; "))
}

// Result holds the outcome of a parallel run. Results holds successes only,
// in original item order; Errors holds the failures, also in item order.
type Result[TItem, TResult any] struct {
	Results []TResult
	Errors  []TaskError[TItem]
}

type indexed[T any] struct {
	index int
	value T
	err   error
}

// Run distributes items across a bounded worker pool and collects results in
// the original item order. With FailFast the first error cancels outstanding
// work and the call returns a ParallelError; otherwise errors accumulate and
// an error is returned only when every item failed.
func Run[TItem, TResult any](
	ctx context.Context,
	cfg Config,
	items []TItem,
	processor TaskProcessor[TItem, TResult],
) (Result[TItem, TResult], error) {
	observer := cfg.observer()

	workerCount := cfg.MaxWorkers
	if workerCount <= 0 {
		workerCount = min(runtime.NumCPU(), len(items))
	}
	workerCount = min(workerCount, len(items))

	observer.OnEvent(ctx, observability.Event{
		Step:      StepParallelStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "workflows.Run",
		Data: map[string]any{
			"item_count":   len(items),
			"worker_count": workerCount,
			"fail_fast":    cfg.FailFast,
		},
	})

	if len(items) == 0 {
		observer.OnEvent(ctx, completeEvent(0, 0, false))
		return Result[TItem, TResult]{Results: []TResult{}, Errors: []TaskError[TItem]{}}, nil
	}
	if workerCount < 1 {
		workerCount = 1
	}

	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if cfg.FailFast {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	workQueue := make(chan indexed[TItem], len(items))
	for i, item := range items {
		workQueue <- indexed[TItem]{index: i, value: item}
	}
	close(workQueue)

	outcomes := make([]indexed[TResult], len(items))
	done := make([]bool, len(items))

	var wg sync.WaitGroup
	var mu sync.Mutex
	for workerID := range workerCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-runCtx.Done():
					return
				case work, ok := <-workQueue:
					if !ok {
						return
					}

					observer.OnEvent(runCtx, observability.Event{
						Step:      StepWorkerStart,
						Level:     observability.LevelVerbose,
						Timestamp: time.Now(),
						Source:    "workflows.Run",
						Data:      map[string]any{"worker_id": workerID, "item_index": work.index},
					})

					result, err := processor(runCtx, work.value)

					observer.OnEvent(runCtx, observability.Event{
						Step:      StepWorkerComplete,
						Level:     observability.LevelVerbose,
						Timestamp: time.Now(),
						Source:    "workflows.Run",
						Data: map[string]any{
							"worker_id":  workerID,
							"item_index": work.index,
							"error":      err != nil,
						},
					})

					mu.Lock()
					outcomes[work.index] = indexed[TResult]{index: work.index, value: result, err: err}
					done[work.index] = true
					mu.Unlock()

					if err != nil && cfg.FailFast {
						cancel()
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	result := Result[TItem, TResult]{
		Results: make([]TResult, 0, len(items)),
		Errors:  make([]TaskError[TItem], 0),
	}
	for i := range items {
		if !done[i] {
			continue
		}
		if outcomes[i].err != nil {
			result.Errors = append(result.Errors, TaskError[TItem]{Index: i, Item: items[i], Err: outcomes[i].err})
			continue
		}
		result.Results = append(result.Results, outcomes[i].value)
	}

	failed := len(result.Errors) > 0 && (cfg.FailFast || len(result.Results) == 0)
	observer.OnEvent(ctx, completeEvent(len(result.Results), len(result.Errors), failed))

	if ctx.Err() != nil {
		return result, fmt.Errorf("parallel run cancelled: %w", ctx.Err())
	}
	if failed {
		return result, &ParallelError[TItem]{Errors: result.Errors}
	}
	return result, nil
}

func completeEvent(processed, failed int, errored bool) observability.Event {
	return observability.Event{
		Step:      StepParallelComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "workflows.Run",
		Data: map[string]any{
			"items_processed": processed,
			"items_failed":    failed,
			"error":           errored,
		},
	}
}
