// Package template defines the certificate template descriptor and the
// field catalog built from it.
//
// A template is a single-page JSON document: fixed background elements
// (text, lines, rectangles) plus fillable text fields with absolute
// geometry and font-size bounds. The catalog enumerates the fillable
// fields, resolves their names against the canonical field set using the
// same alias policy as spreadsheet headers, and is cached per template for
// the lifetime of a batch.
package template

import (
	"bytes"
	"encoding/json"

	"certbatch/internal/errs"
	"certbatch/internal/schema"
)

// Font-size bounds applied when a field leaves them unset, in the
// descriptor's unit (points by default).
const (
	DefaultMaxFontSize = 24.0
	DefaultMinFontSize = 14.0
)

// Font selects one of the built-in faces. Family is one of "Helvetica",
// "Times", "Courier"; Style is "", "B", "I" or "BI".
type Font struct {
	Family string `json:"family,omitempty"`
	Style  string `json:"style,omitempty"`
}

func (f Font) withDefaults() Font {
	if f.Family == "" {
		f.Family = "Helvetica"
	}
	return f
}

// Field is one fillable text slot: a named box with font-size bounds.
// Coordinates are absolute page positions of the box's top-left corner.
type Field struct {
	Name    string  `json:"name"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	MinSize float64 `json:"minSize,omitempty"`
	MaxSize float64 `json:"maxSize,omitempty"`
	Align   string  `json:"align,omitempty"` // L, C, R (default C)
	Font    Font    `json:"font,omitempty"`
}

// Element is one fixed background item drawn before the fields.
type Element struct {
	Type string  `json:"type"` // text, line, rect
	Text string  `json:"text,omitempty"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	// X2/Y2 are the end point for line elements.
	X2     float64 `json:"x2,omitempty"`
	Y2     float64 `json:"y2,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Align  string  `json:"align,omitempty"`
	Font   Font    `json:"font,omitempty"`
}

// Descriptor is the parsed template document.
type Descriptor struct {
	Name        string    `json:"name"`
	PageSize    string    `json:"pageSize,omitempty"`    // A4, Letter (default A4)
	Orientation string    `json:"orientation,omitempty"` // P or L (default L)
	Unit        string    `json:"unit,omitempty"`        // pt, mm (default pt)
	Background  []Element `json:"background,omitempty"`
	Fields      []Field   `json:"fields"`
}

// Defaults supplies the configured font-size bounds applied to fields that
// leave their own bounds unset.
type Defaults struct {
	MinFontSize float64
	MaxFontSize float64
}

func (d Defaults) withFallbacks() Defaults {
	if d.MinFontSize <= 0 {
		d.MinFontSize = DefaultMinFontSize
	}
	if d.MaxFontSize <= 0 {
		d.MaxFontSize = DefaultMaxFontSize
	}
	return d
}

// Parse decodes and validates a template descriptor.
func Parse(data []byte, defaults Defaults) (*Descriptor, error) {
	defaults = defaults.withFallbacks()

	var desc Descriptor
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&desc); err != nil {
		return nil, errs.Wrap(errs.CodeFileFormat, "unparseable template document", err)
	}

	if desc.PageSize == "" {
		desc.PageSize = "A4"
	}
	if desc.Orientation == "" {
		desc.Orientation = "L"
	}
	if desc.Unit == "" {
		desc.Unit = "pt"
	}

	for i := range desc.Fields {
		f := &desc.Fields[i]
		if f.MaxSize <= 0 {
			f.MaxSize = defaults.MaxFontSize
		}
		if f.MinSize <= 0 {
			f.MinSize = defaults.MinFontSize
		}
		if f.MinSize > f.MaxSize {
			f.MinSize = f.MaxSize
		}
		if f.Align == "" {
			f.Align = "C"
		}
		f.Font = f.Font.withDefaults()
		if f.Name == "" {
			return nil, errs.Newf(errs.CodeFileFormat, "template field %d has no name", i)
		}
		if f.Width <= 0 || f.Height <= 0 {
			return nil, errs.Newf(errs.CodeFileFormat, "template field %q has no usable box", f.Name)
		}
	}
	for i := range desc.Background {
		desc.Background[i].Font = desc.Background[i].Font.withDefaults()
	}

	return &desc, nil
}

// CatalogField is one enumerated fillable field with its resolution
// against the canonical set. Unmapped fields carry the normalized name so
// passthrough spreadsheet columns can still fill them.
type CatalogField struct {
	Field
	// Canonical is the resolved canonical field, or "" when the name
	// matched no alias.
	Canonical schema.Field
	// Normalized is the field name under header normalization, used to
	// match passthrough columns.
	Normalized string
}

// Catalog is the enumerated field set of one template.
type Catalog struct {
	Descriptor *Descriptor
	Fields     []CatalogField
}

// BuildCatalog parses template bytes and enumerates the fillable fields.
// It fails with TEMPLATE_FIELD_MISSING when the template has no fields at
// all, or when none of them resolve to a required canonical field.
func BuildCatalog(data []byte, defaults Defaults) (*Catalog, error) {
	desc, err := Parse(data, defaults)
	if err != nil {
		return nil, err
	}
	if len(desc.Fields) == 0 {
		return nil, errs.New(errs.CodeTemplateFieldMissing, "template has no fillable fields")
	}

	cat := &Catalog{Descriptor: desc, Fields: make([]CatalogField, 0, len(desc.Fields))}
	hasRequired := false
	for _, f := range desc.Fields {
		cf := CatalogField{Field: f, Normalized: schema.Normalize(f.Name)}
		if canonical, ok := schema.ResolveFieldName(f.Name); ok {
			cf.Canonical = canonical
			// A full-name field carries the first+last pair on its own.
			if schema.IsRequired(canonical) || canonical == schema.FieldFullName {
				hasRequired = true
			}
		}
		cat.Fields = append(cat.Fields, cf)
	}
	if !hasRequired {
		return nil, errs.New(errs.CodeTemplateFieldMissing,
			"template has no recipient name field")
	}

	return cat, nil
}
