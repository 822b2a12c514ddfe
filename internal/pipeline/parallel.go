package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/jackzampolin/vellum/internal/providers"
)

// runParallel processes units concurrently, capped by the runner's
// concurrency limit. Requests carry no cross-page context. The first failure
// stops further dispatch; units already in flight run to completion and
// successful ones keep their results. Completed results are returned in
// unit-index order together with the first error, if any.
func (r *Runner) runParallel(ctx context.Context, units []WorkUnit, state *runState) ([]PageResult, error) {
	slots := make([]*PageResult, len(units))
	sem := make(chan struct{}, r.concurrency)

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)

	failed := func() bool {
		errMu.Lock()
		defer errMu.Unlock()
		return firstErr != nil
	}
	recordErr := func(unit WorkUnit, err error) {
		errMu.Lock()
		defer errMu.Unlock()
		if firstErr == nil {
			firstErr = &UnitError{Index: unit.Index, Page: unit.Page, Err: err}
		}
	}

dispatch:
	for _, unit := range units {
		if failed() {
			break
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			recordErr(unit, ctx.Err())
			break dispatch
		}

		// A unit may have failed while we were blocked on the semaphore.
		if failed() {
			<-sem
			break
		}

		wg.Add(1)
		go func(unit WorkUnit) {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			res, err := r.completer.Complete(ctx, &providers.Request{
				ImagePath: unit.ImagePath,
				RequestID: r.requestID(unit),
			})
			if err != nil {
				r.logger.Warn("unit failed, stopping dispatch",
					"run_id", r.runID,
					"unit", unit.Index,
					"page", unit.Page,
					"error", err)
				recordErr(unit, err)
				return
			}

			content := r.format(res.Content)
			state.record(content, res.InputTokens, res.OutputTokens)
			slots[unit.Index] = &PageResult{
				Index:        unit.Index,
				Page:         unit.Page,
				Content:      content,
				InputTokens:  res.InputTokens,
				OutputTokens: res.OutputTokens,
			}

			r.logger.Debug("unit completed",
				"run_id", r.runID,
				"unit", unit.Index,
				"page", unit.Page,
				"duration", time.Since(start),
				"input_tokens", res.InputTokens,
				"output_tokens", res.OutputTokens)
		}(unit)
	}

	wg.Wait()

	results := make([]PageResult, 0, len(units))
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}

	errMu.Lock()
	err := firstErr
	errMu.Unlock()

	return results, err
}
