package schema

// aliases.go holds the static alias tables. Every alias is stored in
// normalized form (lowercase, letters and digits only) so lookups compare
// normalized header against normalized alias directly.
//
// The tables are ordinary data, not behavior: adding a new accepted
// spelling for a field is a one-line change here and is covered by the
// resolution tests.

// aliasTable maps each canonical field to its accepted header spellings.
var aliasTable = map[Field][]string{
	FieldFirstName: {
		"firstname",
		"first",
		"fname",
		"givenname",
		"forename",
		"recipientfirstname",
	},
	FieldLastName: {
		"lastname",
		"last",
		"lname",
		"surname",
		"familyname",
		"recipientlastname",
	},
	FieldFullName: {
		"fullname",
		"name",
		"recipientname",
		"participantname",
		"studentname",
	},
	FieldCourse: {
		"course",
		"coursename",
		"coursetitle",
		"program",
		"training",
		"class",
		"event",
	},
	FieldDate: {
		"date",
		"issuedate",
		"completiondate",
		"dateofcompletion",
		"awarddate",
		"completed",
	},
	FieldGrade: {
		"grade",
		"score",
		"result",
		"mark",
		"finalgrade",
	},
	FieldInstructor: {
		"instructor",
		"teacher",
		"trainer",
		"presenter",
		"issuedby",
		"signatory",
	},
}

// Aliases returns the accepted normalized spellings for a field.
func Aliases(f Field) []string {
	src := aliasTable[f]
	out := make([]string, len(src))
	copy(out, src)
	return out
}
