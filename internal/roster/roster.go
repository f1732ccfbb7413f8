// Package roster turns raw spreadsheet rows into the immutable recipient
// records a batch renders from.
//
// Normalization cleans cell values and drops rows with no recipient in
// them; duplicate resolution then assigns filename suffixes so two
// recipients who normalize to the same identity never collide in the
// output archive. A record is never mutated after Normalize returns it —
// the duplicate suffix lands on the derived output name, not the rendered
// values.
package roster

import (
	"fmt"
	"strings"

	"certbatch/internal/ingest"
	"certbatch/internal/schema"
)

// Record is one recipient, immutable after creation. Row is the original
// 1-based spreadsheet line number; gaps are expected after empty rows are
// dropped.
type Record struct {
	Row    int
	Values map[schema.Field]string
	// Extras holds passthrough columns by normalized header name, usable
	// by templates whose field names match.
	Extras map[string]string
	// OutputName is the archive-safe base name derived from the recipient
	// identity, including any duplicate suffix. Set by Dedupe.
	OutputName string
}

// Value returns the record's value for a canonical field ("" when absent).
func (r Record) Value(f schema.Field) string {
	return r.Values[f]
}

// DisplayName is the recipient's name as rendered on the certificate,
// without any duplicate suffix.
func (r Record) DisplayName() string {
	first := r.Values[schema.FieldFirstName]
	last := r.Values[schema.FieldLastName]
	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		name = r.Values[schema.FieldFullName]
	}
	return name
}

// Normalize converts raw rows into records using the resolved header
// mapping. Cell values are trimmed and internal whitespace collapsed;
// Unicode content is preserved as-is. Rows whose required fields are all
// empty after cleaning are dropped with a warning in the report.
func Normalize(res *ingest.Result, mapping schema.Mapping, report *ingest.Report) []Record {
	records := make([]Record, 0, len(res.Rows))

	for _, row := range res.Rows {
		values := make(map[schema.Field]string, len(mapping.Columns))
		for pos, field := range mapping.Columns {
			if pos < len(row.Cells) {
				values[field] = CleanCell(row.Cells[pos])
			}
		}

		empty := true
		for _, f := range schema.RequiredFields {
			if values[f] != "" {
				empty = false
				break
			}
		}
		if empty {
			report.Warnf(row.Line, "", "row is empty and was skipped")
			continue
		}

		extras := make(map[string]string, len(mapping.Extras))
		for pos, name := range mapping.Extras {
			if pos < len(row.Cells) {
				if v := CleanCell(row.Cells[pos]); v != "" {
					extras[name] = v
				}
			}
		}

		records = append(records, Record{
			Row:    row.Line,
			Values: values,
			Extras: extras,
		})
	}

	return records
}

// Dedupe assigns collision-free output names. Records whose sanitized
// display names match case-insensitively keep their rendered values
// untouched; every member after the first gets a numeric suffix on the
// output name only, in order of original row index. Grouping on the
// sanitized name means two identities that only differ in characters the
// archive cannot hold ("Smith" vs "Smi:th") still get distinct entries.
// Deterministic for a given input ordering.
func Dedupe(records []Record) []Record {
	type group struct {
		count int
		base  string // first-seen spelling names the whole group
	}
	seen := make(map[string]*group, len(records))
	out := make([]Record, len(records))

	for i, rec := range records {
		base := sanitizeName(rec.DisplayName())
		if base == "" {
			base = fmt.Sprintf("recipient_row_%d", rec.Row)
		}
		key := strings.ToLower(base)
		g, ok := seen[key]
		if !ok {
			g = &group{base: base}
			seen[key] = g
		}

		name := g.base
		if g.count > 0 {
			name = fmt.Sprintf("%s_%d", g.base, g.count)
		}
		g.count++

		rec.OutputName = name
		out[i] = rec
	}

	return out
}

// CleanCell trims a cell, collapses internal whitespace runs to single
// spaces, and strips the ="..." formula wrapper Excel exports sometimes
// carry. Unicode text passes through untransliterated.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}

	return strings.Join(strings.Fields(s), " ")
}

// sanitizeName makes a recipient identity safe for use as an archive entry
// name: path separators and control characters are removed.
func sanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '/' || r == '\\' || r == ':':
			continue
		case r < 0x20 || r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
