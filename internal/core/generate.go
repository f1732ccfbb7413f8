package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"certbatch/internal/archive"
	"certbatch/internal/errs"
)

// processBatch runs the full pipeline for one batch: ingest and validate
// the roster, render every certificate, package the archive, store it.
// Structural failures and cancellation end the batch with a terminal
// phase; per-recipient render failures are carried in the result.
func (s *Service) processBatch(ctx context.Context, b *activeBatch, fileData []byte) {
	started := time.Now()
	logger := s.logger.With("batch_id", b.ID, "template_id", b.TemplateID)

	result := &BatchResult{
		BatchID:    b.ID,
		TemplateID: b.TemplateID,
		FileName:   b.FileName,
	}

	finish := func(phase BatchPhase, err error) {
		result.Duration = time.Since(started)
		if err != nil {
			result.Error = errs.FormatUserError(err)
		}
		b.Result = result
		b.setProgress(func(p *BatchProgress) {
			p.Phase = phase
			p.Error = result.Error
		})
		b.closeListeners()
		close(b.Done)
		s.cleanup(b.ID, s.retainFor)

		switch phase {
		case PhaseComplete:
			logger.Info("batch complete",
				"attempted", result.Attempted,
				"succeeded", result.Succeeded,
				"failed", result.Failed,
				"duration", result.Duration)
		case PhaseCancelled:
			logger.Info("batch cancelled", "duration", result.Duration)
		default:
			logger.Error("batch failed", "error", err, "duration", result.Duration)
		}
	}

	b.setProgress(func(p *BatchProgress) { p.Phase = PhaseReading })

	p, err := s.prepare(ctx, b.TemplateID, b.FileName, fileData)
	if err != nil {
		finish(failurePhase(ctx, err), err)
		return
	}
	result.Report = p.report.Entries

	b.setProgress(func(pr *BatchProgress) {
		pr.Phase = PhaseValidating
		pr.Total = len(p.records)
	})

	if err := ctx.Err(); err != nil {
		finish(PhaseCancelled, errs.Wrap(errs.CodeBatchCancelled, "batch cancelled before completion", err))
		return
	}

	b.setProgress(func(pr *BatchProgress) { pr.Phase = PhaseRendering })

	run, err := s.orchestrator(b).Run(ctx, p.catalog, p.records)
	if err != nil {
		finish(failurePhase(ctx, err), err)
		return
	}

	result.Attempted = run.Attempted
	result.Succeeded = run.Succeeded
	result.Failed = run.Failed
	for _, r := range run.Results {
		if r.Err != nil {
			result.FailedRows = append(result.FailedRows, FailedRecipient{
				Row:        r.Row,
				OutputName: r.Filename,
				Reason:     errs.FormatUserError(r.Err),
			})
			continue
		}
		if len(r.Overflowed) > 0 {
			result.Overflows = append(result.Overflows, OverflowWarning{
				Row:    r.Row,
				Fields: r.Overflowed,
			})
		}
	}

	b.setProgress(func(pr *BatchProgress) { pr.Phase = PhasePackaging })

	zipBytes, err := archive.Build(run)
	if err != nil {
		finish(PhaseFailed, err)
		return
	}
	handle, err := s.store.Put(ctx, fmt.Sprintf("certificates-%s.zip", b.ID), zipBytes)
	if err != nil {
		finish(PhaseFailed, err)
		return
	}
	result.ArchiveHandle = handle

	finish(PhaseComplete, nil)
}

// failurePhase distinguishes a cancelled batch from a failed one.
func failurePhase(ctx context.Context, err error) BatchPhase {
	if errs.IsCode(err, errs.CodeBatchCancelled) ||
		errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return PhaseCancelled
	}
	return PhaseFailed
}
