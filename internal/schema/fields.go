// Package schema defines the closed set of canonical recipient fields and
// the resolution policy that maps arbitrary column headers (and template
// field names) onto them.
//
// Resolution is a pure function over a static alias table plus bounded edit
// distance: headers are normalized, matched exactly against the alias
// tables, and only then matched fuzzily. The same policy is shared by the
// spreadsheet column resolver and the template field catalog so a header
// and a template field spelled the same way always land on the same
// canonical field.
package schema

// Field is a canonical recipient data field. The set is closed: headers
// resolve to at most one Field each, and unknown headers pass through as
// extra columns rather than resolving dynamically.
type Field string

const (
	FieldFirstName  Field = "first_name"
	FieldLastName   Field = "last_name"
	FieldFullName   Field = "full_name"
	FieldCourse     Field = "course"
	FieldDate       Field = "date"
	FieldGrade      Field = "grade"
	FieldInstructor Field = "instructor"
)

// fieldOrder fixes the iteration order for deterministic resolution.
var fieldOrder = []Field{
	FieldFirstName,
	FieldLastName,
	FieldFullName,
	FieldCourse,
	FieldDate,
	FieldGrade,
	FieldInstructor,
}

// RequiredFields are the canonical fields every recipient list must
// provide. Ingestion fails when any of them matches no header.
var RequiredFields = []Field{FieldFirstName, FieldLastName}

// All returns every canonical field in deterministic order.
func All() []Field {
	out := make([]Field, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// IsRequired reports whether f must resolve for ingestion to proceed.
func IsRequired(f Field) bool {
	for _, r := range RequiredFields {
		if r == f {
			return true
		}
	}
	return false
}

// Label returns a human-readable name for the field, used in error
// messages and manifests.
func (f Field) Label() string {
	switch f {
	case FieldFirstName:
		return "First Name"
	case FieldLastName:
		return "Last Name"
	case FieldFullName:
		return "Full Name"
	case FieldCourse:
		return "Course"
	case FieldDate:
		return "Date"
	case FieldGrade:
		return "Grade"
	case FieldInstructor:
		return "Instructor"
	default:
		return string(f)
	}
}
