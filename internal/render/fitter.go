// Package render produces finished certificate PDFs: it sizes each field's
// text to its box and draws the template background plus the recipient's
// values into a single flattened page.
package render

import (
	"certbatch/internal/template"
)

// Step between candidate font sizes when shrinking text to fit.
const fitStep = 1.0

// Metrics measures rendered string widths for a font at a size, in
// document units. The PDF engine backs the production implementation;
// tests substitute a linear approximation.
type Metrics interface {
	StringWidth(s, family, style string, size float64) float64
}

// FitResult is the sizing decision for one field value.
type FitResult struct {
	// Size is the chosen font size in points.
	Size float64
	// Fits is false when the text still exceeds the box at the field's
	// minimum size. The text is rendered at that floor anyway.
	Fits bool
}

// Fitter shrinks text to a field's box by stepping the font size down from
// the field's maximum. PointsPerUnit converts the document unit to points
// so font sizes can be compared against box heights.
type Fitter struct {
	Metrics       Metrics
	PointsPerUnit float64
}

func (ft Fitter) pointsPerUnit() float64 {
	if ft.PointsPerUnit <= 0 {
		return 1
	}
	return ft.PointsPerUnit
}

// Fit picks the largest font size in [MinSize, MaxSize] at which text fits
// the field's box, stepping down by one point at a time. Empty text always
// fits at the maximum. The result depends only on the inputs, so repeated
// calls agree.
func (ft Fitter) Fit(text string, f template.Field, font template.Font) FitResult {
	if text == "" {
		return FitResult{Size: f.MaxSize, Fits: true}
	}

	k := ft.pointsPerUnit()
	size := f.MaxSize
	for {
		if ft.fits(text, f, font, size, k) {
			return FitResult{Size: size, Fits: true}
		}
		if size <= f.MinSize {
			return FitResult{Size: f.MinSize, Fits: false}
		}
		size -= fitStep
		if size < f.MinSize {
			size = f.MinSize
		}
	}
}

func (ft Fitter) fits(text string, f template.Field, font template.Font, size, k float64) bool {
	if size > f.Height*k {
		return false
	}
	return ft.Metrics.StringWidth(text, font.Family, font.Style, size) <= f.Width
}
