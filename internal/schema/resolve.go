package schema

// resolve.go implements header resolution: normalization, exact alias
// lookup, and bounded edit-distance fallback.
//
// Matching order per header:
//  1. Exact match against the alias tables. The first canonical field (in
//     fixed field order) with an exact alias match wins.
//  2. Fuzzy match: the alias with the smallest Levenshtein distance within
//     the allowed bound wins; distance ties resolve to the
//     lexicographically-first alias for determinism.
//
// Headers that match nothing are retained as passthrough columns, never an
// error. Missing required fields are collected across the whole header row
// and reported together.

import (
	"strings"
	"unicode"

	"certbatch/internal/errs"
)

// maxEditDistance caps the fuzzy threshold regardless of header length.
const maxEditDistance = 2

// Mapping is the result of resolving one header row.
type Mapping struct {
	// Columns maps header position to the canonical field it resolved to.
	Columns map[int]Field
	// Extras maps header position to the normalized name of an
	// unrecognized passthrough column.
	Extras map[int]string
}

// FieldColumn returns the header position resolved to f, or -1.
func (m Mapping) FieldColumn(f Field) int {
	for pos, mapped := range m.Columns {
		if mapped == f {
			return pos
		}
	}
	return -1
}

// Normalize lowercases a header and strips everything that is not a letter
// or digit, collapsing separators such as spaces, underscores and dashes.
// "First Name", "first_name" and "FIRST-NAME" all normalize to "firstname".
func Normalize(header string) string {
	var b strings.Builder
	b.Grow(len(header))
	for _, r := range strings.ToLower(strings.TrimSpace(header)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveFieldName resolves a single header or template field name to a
// canonical field. Returns false when the name matches no alias within the
// fuzzy bound.
func ResolveFieldName(name string) (Field, bool) {
	norm := Normalize(name)
	if norm == "" {
		return "", false
	}

	// Exact match wins immediately; field order fixes ties.
	for _, f := range fieldOrder {
		for _, alias := range aliasTable[f] {
			if norm == alias {
				return f, true
			}
		}
	}

	// Fuzzy match within the bounded distance.
	bound := len(norm) / 4
	if bound > maxEditDistance {
		bound = maxEditDistance
	}
	if bound == 0 {
		return "", false
	}

	bestField := Field("")
	bestAlias := ""
	bestDist := bound + 1
	for _, f := range fieldOrder {
		for _, alias := range aliasTable[f] {
			d := editDistance(norm, alias)
			if d < bestDist || (d == bestDist && alias < bestAlias) {
				bestDist = d
				bestField = f
				bestAlias = alias
			}
		}
	}
	if bestDist > bound {
		return "", false
	}
	return bestField, true
}

// ResolveHeaders maps a full header row to canonical fields. Each canonical
// field binds to at most one column (the first that resolves to it); later
// columns resolving to an already-bound field pass through as extras.
//
// When any required field matches no header, the returned error names every
// missing field, not just the first.
func ResolveHeaders(headers []string) (Mapping, error) {
	m := Mapping{
		Columns: make(map[int]Field),
		Extras:  make(map[int]string),
	}

	bound := make(map[Field]bool, len(headers))
	for pos, h := range headers {
		norm := Normalize(h)
		if norm == "" {
			continue
		}
		f, ok := ResolveFieldName(h)
		if !ok || bound[f] {
			m.Extras[pos] = norm
			continue
		}
		m.Columns[pos] = f
		bound[f] = true
	}

	var missing []string
	for _, f := range RequiredFields {
		if !bound[f] {
			missing = append(missing, f.Label())
		}
	}
	if len(missing) > 0 {
		return Mapping{}, errs.Newf(errs.CodeMissingRequiredColumn,
			"missing required columns: %s", strings.Join(missing, ", "))
	}

	return m, nil
}

// editDistance computes the Levenshtein distance between two strings using
// a rolling single-row table.
func editDistance(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	if string(ar) == string(br) {
		return 0
	}
	if len(ar) < len(br) {
		ar, br = br, ar
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i, ca := range ar {
		curr := make([]int, len(br)+1)
		curr[0] = i + 1
		for j, cb := range br {
			ins := curr[j] + 1
			del := prev[j+1] + 1
			sub := prev[j]
			if ca != cb {
				sub++
			}
			curr[j+1] = min3(ins, del, sub)
		}
		prev = curr
	}
	return prev[len(prev)-1]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
