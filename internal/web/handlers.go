package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"certbatch/internal/errs"
)

// handleListTemplates returns the available certificate templates.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	infos, err := s.service.ListTemplates(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"templates": infos})
}

// readUpload extracts the spreadsheet from a multipart form, bounded by
// the configured upload ceiling.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	// One extra KB so an oversized roster reaches the ingestor and gets
	// the proper SIZE_LIMIT_EXCEEDED instead of a broken form.
	maxSize := s.cfg.Ingest.MaxFileSize + 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		return "", nil, errs.Wrap(errs.CodeSizeLimitExceeded, "file too large or invalid form", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errs.Wrap(errs.CodeFileFormat, "no file provided", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, errs.Wrap(errs.CodeInternal, "failed to read file", err)
	}
	return header.Filename, data, nil
}

// handleGenerate starts an asynchronous certificate batch for the given
// template and returns its ID.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")
	if templateID == "" {
		s.respondError(w, r, errs.New(errs.CodeTemplateNotFound, "missing template ID"))
		return
	}

	fileName, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	batchID, err := s.service.StartBatch(r.Context(), templateID, fileName, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"batch_id": batchID})
}

// handleValidate runs the dry-run analysis: column resolution, roster
// normalization and template checks, without rendering anything.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")
	if templateID == "" {
		s.respondError(w, r, errs.New(errs.CodeTemplateNotFound, "missing template ID"))
		return
	}

	fileName, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	summary, err := s.service.Analyze(r.Context(), templateID, fileName, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// handleBatchProgress streams batch progress via Server-Sent Events.
// Supports resumption via lastEventId query parameter: the event ID is the
// progress percentage, so reconnecting clients skip events they already
// have.
func (s *Server) handleBatchProgress(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	lastEventIDStr := r.URL.Query().Get("lastEventId")
	if lastEventIDStr == "" {
		lastEventIDStr = r.Header.Get("Last-Event-ID")
	}
	var lastEventID int
	if lastEventIDStr != "" {
		lastEventID, _ = strconv.Atoi(lastEventIDStr)
	}

	progressCh, err := s.service.Subscribe(batchID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errs.New(errs.CodeInternal, "streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	fmt.Fprintf(w, "retry: %d\n\n", sseRetryHint.Milliseconds())
	flusher.Flush()

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				// Channel closed - batch reached a terminal phase
				fmt.Fprintf(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			percent := progress.Percent()
			// Skip already-delivered events after a reconnect; terminal
			// phases are never skipped even when the percentage repeats.
			if lastEventIDStr != "" && percent <= lastEventID && !progress.Phase.Terminal() {
				continue
			}

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", percent, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleBatchResult returns the final result of a batch, blocking until it
// completes.
func (s *Server) handleBatchResult(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	result, err := s.service.Result(r.Context(), batchID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// handleBatchArchive serves the finished zip for download.
func (s *Server) handleBatchArchive(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	data, err := s.service.Archive(r.Context(), batchID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="certificates-%s.zip"`, batchID))
	w.Write(data)
}

// handleExportFailedRows exports a batch's failed recipients as CSV.
func (s *Server) handleExportFailedRows(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	data, err := s.service.FailedRowsCSV(r.Context(), batchID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("failed_rows_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(data)
}

// handleCancelBatch requests cooperative cancellation of a running batch.
func (s *Server) handleCancelBatch(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	if err := s.service.Cancel(batchID); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "cancelling"})
}
