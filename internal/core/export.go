package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	"certbatch/internal/errs"
)

// FailedRowsCSV exports the failed recipients of a completed batch as CSV,
// ready to be fixed up and re-uploaded as a follow-up roster.
func (s *Service) FailedRowsCSV(ctx context.Context, batchID string) ([]byte, error) {
	result, err := s.Result(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errs.Newf(errs.CodeBatchNotFound, "batch %s has no result", batchID)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Row", "Recipient", "Reason"}); err != nil {
		return nil, errs.Wrap(errs.CodeInternal, "could not export failed rows", err)
	}
	for _, f := range result.FailedRows {
		if err := w.Write([]string{strconv.Itoa(f.Row), f.OutputName, f.Reason}); err != nil {
			return nil, errs.Wrap(errs.CodeInternal, "could not export failed rows", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errs.Wrap(errs.CodeInternal, "could not export failed rows", err)
	}
	return buf.Bytes(), nil
}
