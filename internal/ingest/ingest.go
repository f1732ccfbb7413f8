// Package ingest parses uploaded recipient lists (delimited text or xlsx
// workbooks) into ordered raw rows.
//
// The ingestor enforces the batch ceilings (file size, data row count)
// before materializing rows, detects the input format from the declared
// filename and the file's magic bytes, handles BOMs and legacy encodings,
// and accumulates a validation report alongside the parsed rows.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"certbatch/internal/errs"
)

// Default ceilings; overridable via Config.
const (
	DefaultMaxFileSize = 5 * 1024 * 1024
	DefaultMaxRows     = 500
)

// xlsxMagic is the ZIP local-file-header signature; xlsx files are ZIP
// containers.
var xlsxMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// Config holds the ingestion ceilings. Zero values fall back to the
// package defaults.
type Config struct {
	// MaxFileSize is the largest accepted upload in bytes.
	MaxFileSize int64
	// MaxRows is the largest accepted number of data rows (header excluded).
	MaxRows int
}

func (c Config) withDefaults() Config {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.MaxRows <= 0 {
		c.MaxRows = DefaultMaxRows
	}
	return c
}

// RawRow is one data row in original order. Line is the 1-based
// spreadsheet line number (the header is line 1, the first data row line
// 2), preserved through the whole pipeline for error attribution.
type RawRow struct {
	Line  int
	Cells []string
}

// Result is the output of one ingestion: the header row in original order,
// the data rows, and the validation report accumulated while parsing.
type Result struct {
	Headers []string
	Rows    []RawRow
	Report  *Report
}

// Ingestor parses uploaded bytes into rows under the configured ceilings.
type Ingestor struct {
	cfg Config
}

// New creates an Ingestor. Zero-valued config fields use the defaults.
func New(cfg Config) *Ingestor {
	return &Ingestor{cfg: cfg.withDefaults()}
}

// Ingest parses data into ordered raw rows. filename is the declared
// upload name and is consulted only for format detection; content sniffing
// takes precedence.
func (ing *Ingestor) Ingest(data []byte, filename string) (*Result, error) {
	if int64(len(data)) > ing.cfg.MaxFileSize {
		return nil, errs.Newf(errs.CodeSizeLimitExceeded,
			"file is %d bytes, limit is %d bytes", len(data), ing.cfg.MaxFileSize)
	}
	if len(data) == 0 {
		return nil, errs.New(errs.CodeFileFormat, "empty file")
	}

	if isWorkbook(data, filename) {
		return ing.ingestWorkbook(data)
	}
	return ing.ingestDelimited(data)
}

// isWorkbook reports whether the upload should be parsed as an xlsx
// workbook rather than delimited text.
func isWorkbook(data []byte, filename string) bool {
	if bytes.HasPrefix(data, xlsxMagic) {
		return true
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx":
		return true
	}
	return false
}

// ingestDelimited parses CSV/TSV-style text. The first row is the header;
// the delimiter is sniffed from it.
func (ing *Ingestor) ingestDelimited(data []byte) (*Result, error) {
	report := &Report{}

	decoded, fallback, err := decodeText(data)
	if err != nil {
		return nil, errs.Wrap(errs.CodeFileFormat, "undecodable file content", err)
	}
	if fallback {
		report.Warnf(0, "", "file was not valid UTF-8; decoded as Windows-1252 (%s)", errs.CodeEncoding)
	}

	r := csv.NewReader(bytes.NewReader(decoded))
	r.Comma = sniffDelimiter(decoded)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	headers, err := r.Read()
	if err == io.EOF {
		return nil, errs.New(errs.CodeFileFormat, "file has no header row")
	}
	if err != nil {
		return nil, errs.Wrap(errs.CodeFileFormat, "unparseable delimited file", err)
	}

	rows := make([]RawRow, 0, 64)
	line := 1
	for {
		cells, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, errs.Wrap(errs.CodeFileFormat, "malformed row", err)
			}
			return nil, errs.Wrap(errs.CodeFileFormat, "unparseable delimited file", err)
		}
		line++
		if len(rows) >= ing.cfg.MaxRows {
			return nil, errs.Newf(errs.CodeRowLimitExceeded,
				"more than %d data rows", ing.cfg.MaxRows)
		}
		rows = append(rows, RawRow{Line: line, Cells: cells})
	}

	return &Result{Headers: headers, Rows: rows, Report: report}, nil
}

// ingestWorkbook parses the first sheet of an xlsx workbook. Row one is
// the header.
func (ing *Ingestor) ingestWorkbook(data []byte) (*Result, error) {
	report := &Report{}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(errs.CodeFileFormat, "unreadable workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errs.New(errs.CodeFileFormat, "workbook has no sheets")
	}
	if len(sheets) > 1 {
		report.Warnf(0, "", "workbook has %d sheets; only %q is read", len(sheets), sheets[0])
	}

	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errs.Wrap(errs.CodeFileFormat, "unreadable worksheet", err)
	}
	if len(all) == 0 {
		return nil, errs.New(errs.CodeFileFormat, "worksheet has no header row")
	}
	if len(all)-1 > ing.cfg.MaxRows {
		return nil, errs.Newf(errs.CodeRowLimitExceeded,
			"more than %d data rows", ing.cfg.MaxRows)
	}

	headers := all[0]
	rows := make([]RawRow, 0, len(all)-1)
	for i, cells := range all[1:] {
		rows = append(rows, RawRow{Line: i + 2, Cells: cells})
	}

	return &Result{Headers: headers, Rows: rows, Report: report}, nil
}

// sniffDelimiter picks the delimiter whose count in the first line is
// highest, defaulting to comma. Semicolon and tab cover the common
// regional Excel exports.
func sniffDelimiter(data []byte) rune {
	end := bytes.IndexByte(data, '\n')
	if end < 0 {
		end = len(data)
	}
	first := data[:end]

	best := ','
	bestCount := bytes.Count(first, []byte{','})
	for _, cand := range []byte{';', '\t'} {
		if n := bytes.Count(first, []byte{cand}); n > bestCount {
			best = rune(cand)
			bestCount = n
		}
	}
	return best
}
