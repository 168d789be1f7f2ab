package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldMatchers(t *testing.T) {
	cases := []struct {
		name     string
		field    *string
		query    string
		exact    bool
		prefix   bool
		contains bool
	}{
		{"identical", strPtr("Rahim"), "Rahim", true, true, true},
		{"case differs", strPtr("Rahim"), "rAHIM", true, true, true},
		{"prefix", strPtr("Rahim"), "rah", false, true, true},
		{"infix", strPtr("Rahim"), "ahi", false, false, true},
		{"absent", strPtr("Rahim"), "karim", false, false, false},
		{"nil field", nil, "rahim", false, false, false},
		{"empty field", strPtr(""), "", false, false, false},
		{"german sharp s folds", strPtr("Straße"), "STRASSE", true, true, true},
		{"greek final sigma folds", strPtr("ΟΔΥΣΣΕΥΣ"), "οδυσσευς", true, true, true},
		{"bengali passes through", strPtr("রহিম উদ্দিন"), "উদ্দিন", false, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exact, IsExactMatch(tc.field, tc.query), "exact")
			assert.Equal(t, tc.prefix, IsPrefixMatch(tc.field, tc.query), "prefix")
			assert.Equal(t, tc.contains, IsContainsMatch(tc.field, tc.query), "contains")
		})
	}
}

func TestParseBoolLoose(t *testing.T) {
	for _, raw := range []string{"true", "TRUE", "1", "yes", " Yes "} {
		assert.True(t, ParseBoolLoose(raw), raw)
	}
	for _, raw := range []string{"false", "0", "no", "", "y", "on"} {
		assert.False(t, ParseBoolLoose(raw), raw)
	}
}

func TestPredicateCombinators(t *testing.T) {
	p := newProfile("p1", "Rahim", "Uddin", "1810001", withCompany("Google"))

	assert.True(t, AllOf{}.Matches(&p))
	assert.False(t, AnyOf{}.Matches(&p))
	assert.True(t, AllOf{
		TextClause{Field: FieldFirstName, Mode: MatchExact, Value: "rahim"},
		FlagClause{IsCR: false},
	}.Matches(&p))
	assert.False(t, AllOf{
		TextClause{Field: FieldFirstName, Mode: MatchExact, Value: "rahim"},
		FlagClause{IsCR: true},
	}.Matches(&p))
	assert.True(t, anyField(MatchContains, "goo", FieldBio, FieldCurrentCompany).Matches(&p))
	assert.False(t, TextClause{Field: FieldProgramName, Mode: MatchContains, Value: "a"}.Matches(&p))
}
