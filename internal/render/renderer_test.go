package render

import (
	"bytes"
	"testing"

	"certbatch/internal/roster"
	"certbatch/internal/schema"
	"certbatch/internal/template"
)

func testCatalog(t *testing.T) *template.Catalog {
	t.Helper()
	cat, err := template.BuildCatalog([]byte(`{
		"name": "Course Completion",
		"orientation": "L",
		"background": [
			{"type": "text", "text": "Certificate of Completion", "x": 0, "y": 120, "width": 842, "size": 32, "align": "C", "font": {"style": "B"}},
			{"type": "line", "x": 200, "y": 400, "x2": 642, "y2": 400}
		],
		"fields": [
			{"name": "Recipient Name", "x": 171, "y": 250, "width": 500, "height": 40},
			{"name": "Course", "x": 171, "y": 320, "width": 500, "height": 30, "maxSize": 18},
			{"name": "Badge Number", "x": 650, "y": 540, "width": 120, "height": 20, "minSize": 8, "maxSize": 10}
		]
	}`), template.Defaults{})
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}
	return cat
}

func testRecord() roster.Record {
	return roster.Record{
		Row: 2,
		Values: map[schema.Field]string{
			schema.FieldFirstName: "Jane",
			schema.FieldLastName:  "Doe",
			schema.FieldCourse:    "Applied Cryptography",
		},
		Extras:     map[string]string{"badgenumber": "B-1042"},
		OutputName: "Jane Doe",
	}
}

func TestRenderProducesPDF(t *testing.T) {
	out, err := Renderer{}.Render(testCatalog(t), testRecord())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out.Bytes, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", out.Bytes[:min(8, len(out.Bytes))])
	}
	if len(out.Overflowed) != 0 {
		t.Errorf("Overflowed = %v, want none", out.Overflowed)
	}
	if size := out.FontSizes["Recipient Name"]; size != template.DefaultMaxFontSize {
		t.Errorf("Recipient Name size = %v, want %v", size, template.DefaultMaxFontSize)
	}
}

// Identical inputs must produce identical bytes, across calls and across
// renderer values.
func TestRenderIsDeterministic(t *testing.T) {
	cat := testCatalog(t)
	rec := testRecord()

	first, err := Renderer{}.Render(cat, rec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := Renderer{}.Render(cat, rec)
		if err != nil {
			t.Fatalf("Render run %d: %v", i, err)
		}
		if !bytes.Equal(first.Bytes, again.Bytes) {
			t.Fatalf("run %d produced different bytes (%d vs %d)", i, len(again.Bytes), len(first.Bytes))
		}
	}
}

func TestRenderShrinksLongValues(t *testing.T) {
	cat := testCatalog(t)
	rec := testRecord()
	rec.Values[schema.FieldFirstName] = "Maximiliana Wilhelmina"
	rec.Values[schema.FieldLastName] = "Featherstonehaugh-Carruthers"

	out, err := Renderer{}.Render(cat, rec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	size := out.FontSizes["Recipient Name"]
	if size >= template.DefaultMaxFontSize || size < template.DefaultMinFontSize {
		t.Errorf("size = %v, want shrunk within [%v, %v)",
			size, template.DefaultMinFontSize, template.DefaultMaxFontSize)
	}
}

func TestRenderFlagsOverflowAtFloor(t *testing.T) {
	cat := testCatalog(t)
	rec := testRecord()
	rec.Extras["badgenumber"] = "B-1042 / REISSUED 2026-03-14 / SUPERSEDES B-0917"

	out, err := Renderer{}.Render(cat, rec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out.Overflowed) != 1 || out.Overflowed[0] != "Badge Number" {
		t.Fatalf("Overflowed = %v, want [Badge Number]", out.Overflowed)
	}
	if size := out.FontSizes["Badge Number"]; size != 8 {
		t.Errorf("Badge Number size = %v, want the 8pt floor", size)
	}
}

// A full-name template field is filled from first and last name when the
// roster has no full-name column.
func TestRenderComposesFullName(t *testing.T) {
	rec := testRecord()
	out, err := Renderer{}.Render(testCatalog(t), rec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	short, err := Renderer{}.Render(testCatalog(t), roster.Record{
		Row:        2,
		Values:     map[schema.Field]string{schema.FieldFirstName: "J", schema.FieldLastName: "D"},
		OutputName: "J D",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if bytes.Equal(out.Bytes, short.Bytes) {
		t.Error("different recipient names produced identical documents")
	}
}

// A roster with its own full-name column wins over the composed
// first+last pair.
func TestFieldValuePrefersExplicitFullName(t *testing.T) {
	cf := template.CatalogField{Canonical: schema.FieldFullName}
	rec := roster.Record{
		Values: map[schema.Field]string{
			schema.FieldFirstName: "Jane",
			schema.FieldLastName:  "Doe",
			schema.FieldFullName:  "Dr. Jane Q. Doe",
		},
	}
	if got := fieldValue(cf, rec); got != "Dr. Jane Q. Doe" {
		t.Errorf("fieldValue = %q, want the record's full-name column", got)
	}

	delete(rec.Values, schema.FieldFullName)
	if got := fieldValue(cf, rec); got != "Jane Doe" {
		t.Errorf("fieldValue = %q, want composed %q", got, "Jane Doe")
	}
}

func TestFilename(t *testing.T) {
	rec := testRecord()
	if got := Filename(rec); got != "Jane Doe.pdf" {
		t.Errorf("Filename = %q, want %q", got, "Jane Doe.pdf")
	}
}
