package ingest

// report.go defines the validation report accumulated while parsing and
// normalizing a recipient list. Warnings never block processing; errors do.

import "fmt"

// Severity classifies a report entry.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Entry is a single validation finding, attributed to a row (1-based line
// number, 0 when file-level) and optionally a column.
type Entry struct {
	Row      int      `json:"row,omitempty"`
	Column   string   `json:"column,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Report collects validation findings for one uploaded file. It is built
// single-threaded during ingestion and normalization and read-only after.
type Report struct {
	Entries []Entry `json:"entries"`
}

// Warnf records a warning attributed to a row and column (either may be
// zero-valued for file-level findings).
func (r *Report) Warnf(row int, column, format string, args ...any) {
	r.Entries = append(r.Entries, Entry{
		Row:      row,
		Column:   column,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Errorf records an error attributed to a row and column.
func (r *Report) Errorf(row int, column, format string, args ...any) {
	r.Entries = append(r.Entries, Entry{
		Row:      row,
		Column:   column,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any entry is error-severity.
func (r *Report) HasErrors() bool {
	for _, e := range r.Entries {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Warnings returns only the warning-severity entries.
func (r *Report) Warnings() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Severity == SeverityWarning {
			out = append(out, e)
		}
	}
	return out
}
