package service

import "github.com/noah-isme/student-directory-api/internal/models"

// ProfileField names a searchable/filterable profile attribute.
type ProfileField int

const (
	FieldFirstName ProfileField = iota
	FieldLastName
	FieldUniID
	FieldEmail
	FieldPhone
	FieldBatchTitle
	FieldBatchSession
	FieldProgramName
	FieldCurrentCompany
	FieldCurrentJobPosition
	FieldBio
)

// SearchableFields lists every field the search inclusion filter inspects.
var SearchableFields = []ProfileField{
	FieldFirstName,
	FieldLastName,
	FieldUniID,
	FieldEmail,
	FieldPhone,
	FieldBatchTitle,
	FieldBatchSession,
	FieldProgramName,
	FieldCurrentCompany,
	FieldCurrentJobPosition,
	FieldBio,
}

// Value returns the field's value on p, or nil when it is unset.
func (f ProfileField) Value(p *models.StudentProfile) *string {
	switch f {
	case FieldFirstName:
		return &p.FirstName
	case FieldLastName:
		return &p.LastName
	case FieldUniID:
		return &p.UniID
	case FieldEmail:
		return &p.Email
	case FieldPhone:
		return p.Phone
	case FieldBatchTitle:
		return &p.Batch.Title
	case FieldBatchSession:
		return &p.Batch.Session
	case FieldProgramName:
		if p.Program == nil {
			return nil
		}
		return &p.Program.Name
	case FieldCurrentCompany:
		return p.CurrentCompany
	case FieldCurrentJobPosition:
		return p.CurrentJobPosition
	case FieldBio:
		return p.Bio
	default:
		return nil
	}
}

// MatchMode selects how a TextClause compares values.
type MatchMode int

const (
	MatchExact MatchMode = iota
	MatchPrefix
	MatchContains
)

// ProfileClause is one typed condition over a profile.
type ProfileClause interface {
	Matches(p *models.StudentProfile) bool
}

// TextClause compares one field against a value.
type TextClause struct {
	Field ProfileField
	Mode  MatchMode
	Value string
}

// Matches implements ProfileClause.
func (c TextClause) Matches(p *models.StudentProfile) bool {
	return matchFolded(c.Field.Value(p), c.Mode, fold(c.Value))
}

// foldedClause is a TextClause whose value was case-folded when it was built.
type foldedClause struct {
	field ProfileField
	mode  MatchMode
	value string
}

func newFoldedClause(field ProfileField, mode MatchMode, value string) foldedClause {
	return foldedClause{field: field, mode: mode, value: fold(value)}
}

// Matches implements ProfileClause.
func (c foldedClause) Matches(p *models.StudentProfile) bool {
	return matchFolded(c.field.Value(p), c.mode, c.value)
}

// FlagClause requires the class-representative flag to equal IsCR.
type FlagClause struct {
	IsCR bool
}

// Matches implements ProfileClause.
func (c FlagClause) Matches(p *models.StudentProfile) bool {
	return p.IsCR == c.IsCR
}

// AllOf matches when every clause matches. An empty AllOf matches everything.
type AllOf []ProfileClause

// Matches implements ProfileClause.
func (a AllOf) Matches(p *models.StudentProfile) bool {
	for _, c := range a {
		if !c.Matches(p) {
			return false
		}
	}
	return true
}

// AnyOf matches when at least one clause matches. An empty AnyOf matches nothing.
type AnyOf []ProfileClause

// Matches implements ProfileClause.
func (a AnyOf) Matches(p *models.StudentProfile) bool {
	for _, c := range a {
		if c.Matches(p) {
			return true
		}
	}
	return false
}

// anyField builds an AnyOf applying the same mode and value to several fields.
// value is folded once for all of them.
func anyField(mode MatchMode, value string, fields ...ProfileField) AnyOf {
	return anyFoldedField(mode, fold(value), fields...)
}

func anyFoldedField(mode MatchMode, folded string, fields ...ProfileField) AnyOf {
	clauses := make(AnyOf, 0, len(fields))
	for _, f := range fields {
		clauses = append(clauses, foldedClause{field: f, mode: mode, value: folded})
	}
	return clauses
}
