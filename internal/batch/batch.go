// Package batch runs certificate generation across a roster with a fixed
// worker pool. One recipient failing never stops the others; cancellation
// stops the whole batch and reports it explicitly.
package batch

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"certbatch/internal/errs"
	"certbatch/internal/render"
	"certbatch/internal/roster"
	"certbatch/internal/template"
)

// DefaultWorkers bounds concurrent renders when the orchestrator is not
// configured otherwise.
const DefaultWorkers = 4

// Renderer produces one certificate. Satisfied by render.Renderer; tests
// substitute failing implementations.
type Renderer interface {
	Render(cat *template.Catalog, rec roster.Record) (*render.Output, error)
}

// GenerationResult is the outcome for one recipient. Exactly one of Bytes
// or Err is meaningful.
type GenerationResult struct {
	Row      int
	Filename string
	Bytes    []byte
	// FontSizes and Overflowed carry the fit decisions for reporting.
	FontSizes  map[string]float64
	Overflowed []string
	Err        error
}

// Result is the outcome of a whole batch. Results holds one entry per
// attempted recipient, in roster order.
type Result struct {
	Results   []GenerationResult
	Attempted int
	Succeeded int
	Failed    int
}

// Orchestrator fans a roster out over a bounded worker pool.
type Orchestrator struct {
	Renderer Renderer
	Workers  int
	// OnProgress, when set, is called after every finished recipient with
	// the running done count and the total. Calls may come from any
	// worker; the callback must be cheap.
	OnProgress func(done, total int)
}

// Run renders every record and collects per-recipient outcomes. Render
// failures are recorded, never propagated; a batch where every recipient
// failed still returns a nil error. Context cancellation aborts remaining
// work and returns BATCH_CANCELLED instead of a partial result.
func (o Orchestrator) Run(ctx context.Context, cat *template.Catalog, records []roster.Record) (*Result, error) {
	workers := o.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]GenerationResult, len(records))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rec := range records {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = o.renderOne(cat, rec)
			if o.OnProgress != nil {
				o.OnProgress(int(done.Add(1)), len(records))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errs.Wrap(errs.CodeBatchCancelled, "batch cancelled before completion", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.CodeBatchCancelled, "batch cancelled before completion", err)
	}

	res := &Result{Results: results, Attempted: len(records)}
	for _, r := range results {
		if r.Err != nil {
			res.Failed++
		} else {
			res.Succeeded++
		}
	}
	return res, nil
}

func (o Orchestrator) renderOne(cat *template.Catalog, rec roster.Record) GenerationResult {
	result := GenerationResult{
		Row:      rec.Row,
		Filename: render.Filename(rec),
	}
	out, err := o.Renderer.Render(cat, rec)
	if err != nil {
		result.Err = err
		return result
	}
	result.Bytes = out.Bytes
	result.FontSizes = out.FontSizes
	result.Overflowed = out.Overflowed
	return result
}
