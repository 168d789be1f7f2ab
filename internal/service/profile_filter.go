package service

import (
	"sort"
	"strings"

	"github.com/noah-isme/student-directory-api/internal/models"
)

// filterClauses translates the listing filters into AND-combined clauses.
func filterClauses(f models.ProfileFilter) AllOf {
	var clauses AllOf
	if f.Batch != "" {
		clauses = append(clauses, newFoldedClause(FieldBatchTitle, MatchExact, f.Batch))
	}
	if f.Program != "" {
		clauses = append(clauses, newFoldedClause(FieldProgramName, MatchExact, f.Program))
	}
	if f.IsCR != nil {
		clauses = append(clauses, FlagClause{IsCR: *f.IsCR})
	}
	if f.Company != "" {
		clauses = append(clauses, newFoldedClause(FieldCurrentCompany, MatchContains, f.Company))
	}
	if f.Position != "" {
		clauses = append(clauses, newFoldedClause(FieldCurrentJobPosition, MatchContains, f.Position))
	}
	return clauses
}

// FilterProfiles returns the profiles matching every supplied filter ordered
// class representatives first, then by first name, last name and id.
func FilterProfiles(profiles []models.StudentProfile, f models.ProfileFilter) []models.StudentProfile {
	pred := filterClauses(f)
	out := make([]models.StudentProfile, 0, len(profiles))
	for i := range profiles {
		if pred.Matches(&profiles[i]) {
			out = append(out, profiles[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if a.IsCR != b.IsCR {
			return a.IsCR
		}
		return lessByName(a, b)
	})
	return out
}

// lessByName orders by first name then last name (case-folded, raw value as a
// tie-break) and finally by id so the order is total.
func lessByName(a, b *models.StudentProfile) bool {
	if c := compareName(a.FirstName, b.FirstName); c != 0 {
		return c < 0
	}
	if c := compareName(a.LastName, b.LastName); c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}

func compareName(a, b string) int {
	if c := strings.Compare(fold(a), fold(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
