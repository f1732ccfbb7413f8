package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"certbatch/internal/errs"
	"certbatch/internal/roster"
	"certbatch/internal/schema"
	"certbatch/internal/template"
)

// All documents carry the same pinned creation date so identical inputs
// produce identical bytes across processes and time.
var pinnedCreationDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Output is one finished certificate.
type Output struct {
	// Bytes is the flattened single-page PDF.
	Bytes []byte
	// FontSizes records the chosen size per template field name.
	FontSizes map[string]float64
	// Overflowed lists fields whose text exceeded the box even at the
	// minimum size. The text is rendered in full at that floor.
	Overflowed []string
}

// Renderer draws one certificate per call. It is stateless and safe for
// concurrent use; each call builds its own document.
type Renderer struct{}

// Render produces the certificate for rec from the template catalog. The
// output is a function of (catalog, record) only.
func (Renderer) Render(cat *template.Catalog, rec roster.Record) (out *Output, err error) {
	// The PDF engine panics on malformed drawing state rather than
	// returning errors. A bad template or value must fail one recipient,
	// not the batch.
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = errs.Newf(errs.CodeRender, "certificate rendering failed: %v", r)
		}
	}()

	desc := cat.Descriptor
	pdf := gofpdf.New(desc.Orientation, desc.Unit, desc.PageSize, "")
	pdf.SetCreationDate(pinnedCreationDate)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPage()

	drawBackground(pdf, desc)

	fitter := Fitter{
		Metrics:       pdfMetrics{pdf: pdf},
		PointsPerUnit: pointsPerUnit(desc.Unit),
	}

	out = &Output{FontSizes: make(map[string]float64, len(cat.Fields))}
	for _, cf := range cat.Fields {
		value := fieldValue(cf, rec)
		fit := fitter.Fit(value, cf.Field, cf.Font)
		out.FontSizes[cf.Name] = fit.Size
		if !fit.Fits {
			out.Overflowed = append(out.Overflowed, cf.Name)
		}
		if value == "" {
			continue
		}
		pdf.SetFont(cf.Font.Family, cf.Font.Style, fit.Size)
		pdf.SetXY(cf.X, cf.Y)
		pdf.CellFormat(cf.Width, cf.Height, value, "", 0, cf.Align+"M", false, 0, "")
	}
	if pdf.Err() {
		return nil, errs.Wrap(errs.CodeRender, "certificate rendering failed", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errs.Wrap(errs.CodeRender, "certificate rendering failed", err)
	}
	out.Bytes = buf.Bytes()
	return out, nil
}

// fieldValue picks the text for a template field: the mapped canonical
// value, or a passthrough column with the same normalized name. A
// full-name field takes the record's own full-name column when present
// and composes first+last otherwise. Unmatched fields stay blank.
func fieldValue(cf template.CatalogField, rec roster.Record) string {
	if cf.Canonical != "" {
		if cf.Canonical == schema.FieldFullName {
			if v := rec.Value(schema.FieldFullName); v != "" {
				return v
			}
			return rec.DisplayName()
		}
		return rec.Value(cf.Canonical)
	}
	return rec.Extras[cf.Normalized]
}

func drawBackground(pdf *gofpdf.Fpdf, desc *template.Descriptor) {
	for _, el := range desc.Background {
		switch el.Type {
		case "text":
			size := el.Size
			if size <= 0 {
				size = 12
			}
			align := el.Align
			if align == "" {
				align = "L"
			}
			pdf.SetFont(el.Font.Family, el.Font.Style, size)
			pdf.SetXY(el.X, el.Y)
			w := el.Width
			if w <= 0 {
				w = pdf.GetStringWidth(el.Text)
			}
			h := el.Height
			if h <= 0 {
				h = size / pointsPerUnit(desc.Unit)
			}
			pdf.CellFormat(w, h, el.Text, "", 0, align+"M", false, 0, "")
		case "line":
			pdf.Line(el.X, el.Y, el.X2, el.Y2)
		case "rect":
			pdf.Rect(el.X, el.Y, el.Width, el.Height, "D")
		}
	}
}

// pdfMetrics measures widths with the document's own font machinery so the
// fit decision matches what CellFormat will draw.
type pdfMetrics struct {
	pdf *gofpdf.Fpdf
}

func (m pdfMetrics) StringWidth(s, family, style string, size float64) float64 {
	m.pdf.SetFont(family, style, size)
	return m.pdf.GetStringWidth(s)
}

// pointsPerUnit converts the page unit to points; font sizes are always in
// points.
func pointsPerUnit(unit string) float64 {
	switch unit {
	case "mm":
		return 72.0 / 25.4
	case "cm":
		return 72.0 / 2.54
	case "in":
		return 72.0
	default: // pt
		return 1
	}
}

// Filename is the archive entry name for a recipient's certificate.
func Filename(rec roster.Record) string {
	return fmt.Sprintf("%s.pdf", rec.OutputName)
}
