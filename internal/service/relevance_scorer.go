package service

import "github.com/noah-isme/student-directory-api/internal/models"

// DefaultRelevance is assigned to a candidate that satisfied the inclusion
// filter but none of the tiers. Only a match on batch session lands here.
const DefaultRelevance = 1

type relevanceTier struct {
	score  int
	clause func(folded string) ProfileClause
}

// relevanceTiers is evaluated top to bottom; the first matching tier wins.
var relevanceTiers = []relevanceTier{
	{100, func(q string) ProfileClause { return foldedClause{field: FieldUniID, mode: MatchExact, value: q} }},
	{90, func(q string) ProfileClause { return anyFoldedField(MatchExact, q, FieldFirstName, FieldLastName) }},
	{80, func(q string) ProfileClause { return anyFoldedField(MatchPrefix, q, FieldFirstName, FieldLastName) }},
	{70, func(q string) ProfileClause { return foldedClause{field: FieldEmail, mode: MatchExact, value: q} }},
	{65, func(q string) ProfileClause { return foldedClause{field: FieldPhone, mode: MatchExact, value: q} }},
	{60, func(q string) ProfileClause { return foldedClause{field: FieldUniID, mode: MatchPrefix, value: q} }},
	{50, func(q string) ProfileClause { return anyFoldedField(MatchContains, q, FieldFirstName, FieldLastName) }},
	{40, func(q string) ProfileClause { return foldedClause{field: FieldBatchTitle, mode: MatchContains, value: q} }},
	{35, func(q string) ProfileClause {
		return foldedClause{field: FieldProgramName, mode: MatchContains, value: q}
	}},
	{30, func(q string) ProfileClause {
		return anyFoldedField(MatchContains, q, FieldCurrentCompany, FieldCurrentJobPosition)
	}},
	{25, func(q string) ProfileClause { return anyFoldedField(MatchContains, q, FieldEmail, FieldPhone) }},
	{10, func(q string) ProfileClause { return foldedClause{field: FieldBio, mode: MatchContains, value: q} }},
}

// RelevanceScorer scores candidates against one query. Build it once per
// request and reuse it for every candidate.
type RelevanceScorer struct {
	tiers  []ProfileClause
	scores []int
}

// NewRelevanceScorer prepares the tier clauses for query, folding it once.
func NewRelevanceScorer(query string) *RelevanceScorer {
	folded := fold(query)
	s := &RelevanceScorer{
		tiers:  make([]ProfileClause, len(relevanceTiers)),
		scores: make([]int, len(relevanceTiers)),
	}
	for i, t := range relevanceTiers {
		s.tiers[i] = t.clause(folded)
		s.scores[i] = t.score
	}
	return s
}

// Score returns the score of the first tier p satisfies.
func (s *RelevanceScorer) Score(p *models.StudentProfile) int {
	for i, clause := range s.tiers {
		if clause.Matches(p) {
			return s.scores[i]
		}
	}
	return DefaultRelevance
}

// Score is a convenience for scoring a single profile.
func Score(p *models.StudentProfile, query string) int {
	return NewRelevanceScorer(query).Score(p)
}
