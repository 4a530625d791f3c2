package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSearchQuery(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		terms   []string
		filters map[string]string
		limit   int
		empty   bool
	}{
		{name: "plain words", input: "Ali Rah", terms: []string{"ali", "rah"}, filters: map[string]string{}, limit: 10},
		{name: "filter and limit", input: "/find ali --affiliation Physics --limit 3", terms: []string{"ali"},
			filters: map[string]string{"affiliation": "physics"}, limit: 3},
		{name: "invalid limit keeps default", input: "bob --limit zero", terms: []string{"bob"}, filters: map[string]string{}, limit: 10},
		{name: "dangling flag is a term", input: "--affiliation", terms: []string{"--affiliation"}, filters: map[string]string{}, limit: 10},
		{name: "empty", input: "   ", filters: map[string]string{}, limit: 10, empty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			query := NewSearchQuery(tt.input)
			req.Equal(tt.terms, query.Terms)
			req.Equal(tt.filters, query.Filters)
			req.Equal(tt.limit, query.Limit)
			req.Equal(tt.empty, query.IsEmpty())
		})
	}
}
