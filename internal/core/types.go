package core

import (
	"time"

	"certbatch/internal/ingest"
)

// BatchPhase indicates the current stage of batch processing.
type BatchPhase string

const (
	PhaseStarting   BatchPhase = "starting"
	PhaseReading    BatchPhase = "reading"
	PhaseValidating BatchPhase = "validating"
	PhaseRendering  BatchPhase = "rendering"
	PhasePackaging  BatchPhase = "packaging"
	PhaseComplete   BatchPhase = "complete"
	PhaseFailed     BatchPhase = "failed"
	PhaseCancelled  BatchPhase = "cancelled"
)

// Terminal reports whether the phase is an end state.
func (p BatchPhase) Terminal() bool {
	switch p {
	case PhaseComplete, PhaseFailed, PhaseCancelled:
		return true
	}
	return false
}

// BatchProgress represents the current state of a batch operation.
type BatchProgress struct {
	BatchID    string     `json:"batchId"`
	TemplateID string     `json:"templateId"`
	Phase      BatchPhase `json:"phase"`
	FileName   string     `json:"fileName,omitempty"`
	Total      int        `json:"total"`
	Done       int        `json:"done"`
	Error      string     `json:"error,omitempty"` // Non-empty if Phase is PhaseFailed
}

// Percent returns the progress as a percentage (0-100).
func (p BatchProgress) Percent() int {
	if p.Phase == PhaseComplete {
		return 100
	}
	if p.Total > 0 {
		return (p.Done * 100) / p.Total
	}
	return 0
}

// FailedRecipient describes one recipient the batch could not render.
type FailedRecipient struct {
	Row        int    `json:"row"`
	OutputName string `json:"outputName"`
	Reason     string `json:"reason"`
}

// OverflowWarning flags a certificate whose text exceeded a field's box
// even at the minimum font size. The certificate was still produced.
type OverflowWarning struct {
	Row    int      `json:"row"`
	Fields []string `json:"fields"`
}

// BatchResult contains the final result of a batch operation. Archive
// bytes are not held here; ArchiveHandle retrieves them from storage.
type BatchResult struct {
	BatchID       string            `json:"batchId"`
	TemplateID    string            `json:"templateId"`
	FileName      string            `json:"fileName,omitempty"`
	Attempted     int               `json:"attempted"`
	Succeeded     int               `json:"succeeded"`
	Failed        int               `json:"failed"`
	FailedRows    []FailedRecipient `json:"failedRows,omitempty"`
	Overflows     []OverflowWarning `json:"overflows,omitempty"`
	Report        []ingest.Entry    `json:"report,omitempty"`
	ArchiveHandle string            `json:"archiveHandle,omitempty"`
	Duration      time.Duration     `json:"duration"`
	Error         string            `json:"error,omitempty"` // Non-empty if the batch failed outright
}

// ValidationSummary is the outcome of a dry run: everything a batch would
// decide before rendering, with no certificates produced.
type ValidationSummary struct {
	TemplateID string            `json:"templateId"`
	FileName   string            `json:"fileName,omitempty"`
	Columns    map[string]string `json:"columns"`          // header -> canonical field
	Extras     []string          `json:"extras,omitempty"` // passthrough headers
	Recipients int               `json:"recipients"`
	Report     []ingest.Entry    `json:"report,omitempty"`
}
