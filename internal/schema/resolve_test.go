package schema

import (
	"strings"
	"testing"

	"certbatch/internal/errs"
)

// ============================================================================
// Normalize Tests
// ============================================================================

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"plain lowercase", "firstname", "firstname"},
		{"spaces stripped", "First Name", "firstname"},
		{"underscores stripped", "first_name", "firstname"},
		{"dashes stripped", "FIRST-NAME", "firstname"},
		{"surrounding whitespace", "  Last Name \t", "lastname"},
		{"punctuation stripped", "e-mail (work)", "emailwork"},
		{"digits kept", "address2", "address2"},
		{"empty", "", ""},
		{"only punctuation", "--- ", ""},
		{"unicode letters kept", "Curso Año", "cursoaño"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.header); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

// ============================================================================
// ResolveFieldName Tests
// ============================================================================

func TestResolveFieldNameAliases(t *testing.T) {
	// All accepted spellings of a field must land on the same canonical field.
	tests := []struct {
		header string
		want   Field
	}{
		{"First Name", FieldFirstName},
		{"firstname", FieldFirstName},
		{"FName", FieldFirstName},
		{"given_name", FieldFirstName},
		{"Last Name", FieldLastName},
		{"surname", FieldLastName},
		{"LNAME", FieldLastName},
		{"Full Name", FieldFullName},
		{"Name", FieldFullName},
		{"Course Title", FieldCourse},
		{"program", FieldCourse},
		{"Completion Date", FieldDate},
		{"Issue Date", FieldDate},
		{"Score", FieldGrade},
		{"Instructor", FieldInstructor},
		{"Issued By", FieldInstructor},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := ResolveFieldName(tt.header)
			if !ok {
				t.Fatalf("ResolveFieldName(%q) did not resolve", tt.header)
			}
			if got != tt.want {
				t.Errorf("ResolveFieldName(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestResolveFieldNameFuzzy(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   Field
		wantOK bool
	}{
		{"transposition in long header", "Frist Name", FieldFirstName, true},
		{"dropped letter", "firstnme", FieldFirstName, true},
		{"typo in surname", "surnam", FieldLastName, true},
		{"short header no fuzz budget", "fnm", "", false},
		{"unrelated header", "Employee ID", "", false},
		{"too many edits", "firzzznome", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveFieldName(tt.header)
			if ok != tt.wantOK {
				t.Fatalf("ResolveFieldName(%q) ok = %v, want %v", tt.header, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ResolveFieldName(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestResolveFieldNameDeterministic(t *testing.T) {
	// The same input must resolve identically on every call.
	for i := 0; i < 50; i++ {
		f, ok := ResolveFieldName("Frist Name")
		if !ok || f != FieldFirstName {
			t.Fatalf("run %d: ResolveFieldName(%q) = %q, %v", i, "Frist Name", f, ok)
		}
	}
}

// ============================================================================
// ResolveHeaders Tests
// ============================================================================

func TestResolveHeaders(t *testing.T) {
	headers := []string{"First Name", "Last Name", "Course", "Badge Number"}

	m, err := ResolveHeaders(headers)
	if err != nil {
		t.Fatalf("ResolveHeaders: %v", err)
	}

	if got := m.Columns[0]; got != FieldFirstName {
		t.Errorf("column 0 = %q, want %q", got, FieldFirstName)
	}
	if got := m.Columns[1]; got != FieldLastName {
		t.Errorf("column 1 = %q, want %q", got, FieldLastName)
	}
	if got := m.Columns[2]; got != FieldCourse {
		t.Errorf("column 2 = %q, want %q", got, FieldCourse)
	}
	if got := m.Extras[3]; got != "badgenumber" {
		t.Errorf("extras[3] = %q, want %q", got, "badgenumber")
	}
	if got := m.FieldColumn(FieldLastName); got != 1 {
		t.Errorf("FieldColumn(last_name) = %d, want 1", got)
	}
	if got := m.FieldColumn(FieldGrade); got != -1 {
		t.Errorf("FieldColumn(grade) = %d, want -1", got)
	}
}

func TestResolveHeadersCollectsAllMissing(t *testing.T) {
	// Neither required field present: the error must name both.
	_, err := ResolveHeaders([]string{"Course", "Date"})
	if err == nil {
		t.Fatal("expected error for missing required columns")
	}
	if !errs.IsCode(err, errs.CodeMissingRequiredColumn) {
		t.Fatalf("error code = %v, want %v", errs.CodeOf(err), errs.CodeMissingRequiredColumn)
	}
	msg := err.Error()
	if !strings.Contains(msg, "First Name") || !strings.Contains(msg, "Last Name") {
		t.Errorf("error should name every missing field, got: %s", msg)
	}
}

func TestResolveHeadersMissingOnlyLastName(t *testing.T) {
	_, err := ResolveHeaders([]string{"First Name", "Course"})
	if err == nil {
		t.Fatal("expected error for missing last name column")
	}
	msg := err.Error()
	if !strings.Contains(msg, "Last Name") {
		t.Errorf("error should name the last-name field, got: %s", msg)
	}
	if strings.Contains(msg, "First Name") {
		t.Errorf("error should not name present fields, got: %s", msg)
	}
}

func TestResolveHeadersDuplicateColumnPassthrough(t *testing.T) {
	// A second column resolving to an already-bound field passes through.
	m, err := ResolveHeaders([]string{"First Name", "Last Name", "fname"})
	if err != nil {
		t.Fatalf("ResolveHeaders: %v", err)
	}
	if _, bound := m.Columns[2]; bound {
		t.Error("duplicate first-name column should not bind a second time")
	}
	if m.Extras[2] != "fname" {
		t.Errorf("extras[2] = %q, want %q", m.Extras[2], "fname")
	}
}

// ============================================================================
// editDistance Tests
// ============================================================================

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"firstname", "fristname", 2},
		{"surname", "surnmae", 2},
		{"kitten", "sitting", 3},
	}

	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
