package pipeline

import (
	"context"
	"time"

	"github.com/jackzampolin/vellum/internal/providers"
)

// runSequential processes units one at a time in index order, threading each
// page's formatted output into the next request. The first failure aborts
// the run; no partial results are returned.
func (r *Runner) runSequential(ctx context.Context, units []WorkUnit, state *runState) ([]PageResult, error) {
	results := make([]PageResult, 0, len(units))

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return nil, &UnitError{Index: unit.Index, Page: unit.Page, Err: err}
		}

		start := time.Now()
		res, err := r.completer.Complete(ctx, &providers.Request{
			ImagePath: unit.ImagePath,
			PriorPage: state.prior(),
			RequestID: r.requestID(unit),
		})
		if err != nil {
			r.logger.Warn("unit failed, aborting run",
				"run_id", r.runID,
				"unit", unit.Index,
				"page", unit.Page,
				"error", err)
			return nil, &UnitError{Index: unit.Index, Page: unit.Page, Err: err}
		}

		content := r.format(res.Content)
		state.record(content, res.InputTokens, res.OutputTokens)
		results = append(results, PageResult{
			Index:        unit.Index,
			Page:         unit.Page,
			Content:      content,
			InputTokens:  res.InputTokens,
			OutputTokens: res.OutputTokens,
		})

		r.logger.Debug("unit completed",
			"run_id", r.runID,
			"unit", unit.Index,
			"page", unit.Page,
			"duration", time.Since(start),
			"input_tokens", res.InputTokens,
			"output_tokens", res.OutputTokens)
	}

	return results, nil
}
