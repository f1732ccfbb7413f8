package render

import (
	"testing"

	"certbatch/internal/template"
)

// charMetrics approximates every glyph as a fixed fraction of the font
// size, which is close enough to Helvetica for the fit decisions under
// test and keeps expectations hand-checkable.
type charMetrics struct {
	perChar float64 // width of one glyph as a multiple of the font size
}

func (m charMetrics) StringWidth(s, family, style string, size float64) float64 {
	return float64(len(s)) * m.perChar * size
}

func testField(w, h float64) template.Field {
	return template.Field{
		Name: "Recipient Name", Width: w, Height: h,
		MinSize: template.DefaultMinFontSize,
		MaxSize: template.DefaultMaxFontSize,
	}
}

func TestFitTable(t *testing.T) {
	// One glyph is half the font size wide: at size 24 a 500pt box holds
	// 41 characters, at 14 it holds 71.
	ft := Fitter{Metrics: charMetrics{perChar: 0.5}, PointsPerUnit: 1}
	font := template.Font{Family: "Helvetica"}

	tests := []struct {
		name     string
		text     string
		field    template.Field
		wantSize float64
		wantFits bool
	}{
		{
			name:     "short text stays at maximum",
			text:     "Jane Doe",
			field:    testField(500, 40),
			wantSize: 24,
			wantFits: true,
		},
		{
			name: "forty characters shrink but fit",
			// 40 glyphs need size <= 500/(40*0.5) = 25, but the 20pt-high
			// box caps the size first.
			text:     "Maximiliana Featherstonehaugh-Carruthers",
			field:    testField(500, 20),
			wantSize: 20,
			wantFits: true,
		},
		{
			name: "overflow renders at the floor",
			// 76 glyphs need size <= 13.2, below the minimum.
			text:     "Alexandrina Wilhelmina Featherstonehaugh-Carruthers de la Fontaine-Rousseaux",
			field:    testField(500, 40),
			wantSize: 14,
			wantFits: false,
		},
		{
			name:     "empty text fits at maximum",
			text:     "",
			field:    testField(500, 40),
			wantSize: 24,
			wantFits: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ft.Fit(tt.text, tt.field, font)
			if got.Size != tt.wantSize || got.Fits != tt.wantFits {
				t.Errorf("Fit(%q) = {%v %v}, want {%v %v}",
					tt.text, got.Size, got.Fits, tt.wantSize, tt.wantFits)
			}
		})
	}
}

func TestFitIsIdempotent(t *testing.T) {
	ft := Fitter{Metrics: charMetrics{perChar: 0.5}, PointsPerUnit: 1}
	font := template.Font{Family: "Helvetica"}
	field := testField(120, 40)
	text := "Bartholomew Montgomery"

	first := ft.Fit(text, field, font)
	for i := 0; i < 5; i++ {
		if got := ft.Fit(text, field, font); got != first {
			t.Fatalf("Fit run %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestFitNeverGoesBelowFloor(t *testing.T) {
	ft := Fitter{Metrics: charMetrics{perChar: 0.5}, PointsPerUnit: 1}
	field := testField(10, 40) // nothing meaningful fits in 10pt
	got := ft.Fit("Jane Doe", field, template.Font{Family: "Helvetica"})
	if got.Size != field.MinSize {
		t.Errorf("Size = %v, want the %v floor", got.Size, field.MinSize)
	}
	if got.Fits {
		t.Error("Fits = true for text wider than the box at the floor")
	}
}

func TestFitFractionalMinimum(t *testing.T) {
	ft := Fitter{Metrics: charMetrics{perChar: 0.5}, PointsPerUnit: 1}
	field := template.Field{Name: "Seal", Width: 10, Height: 40, MinSize: 14.5, MaxSize: 24}
	got := ft.Fit("Jane Doe", field, template.Font{Family: "Helvetica"})
	if got.Size != 14.5 {
		t.Errorf("Size = %v, want exactly the 14.5 floor", got.Size)
	}
}
