package search

import (
	"strconv"
	"strings"
)

const defaultLimit = 10

// Query is a parsed directory search.
// It decouples what the user typed from what the index engine needs.
type Query struct {
	RawInput string            // what the user typed
	Terms    []string          // lowercase words matched as prefixes on names and affiliations
	Filters  map[string]string // exact field constraints, e.g. "affiliation": "physics"
	Limit    int
}

// NewSearchQuery parses command-line style input.
// Example: ali --affiliation physics --limit 5
func NewSearchQuery(input string) Query {
	query := Query{
		RawInput: input,
		Filters:  make(map[string]string),
		Limit:    defaultLimit,
	}

	parts := strings.Fields(input)
	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			key := strings.ToLower(strings.TrimPrefix(part, "--"))
			val := parts[i+1]
			if key == "limit" {
				if limit, err := strconv.Atoi(val); err == nil && limit > 0 {
					query.Limit = limit
				}
			} else {
				query.Filters[key] = strings.ToLower(val)
			}
			i++ // value consumed
			continue
		}

		if !strings.HasPrefix(part, "/") {
			query.Terms = append(query.Terms, strings.ToLower(part))
		}
	}
	return query
}

// IsEmpty reports whether the query constrains anything.
func (q Query) IsEmpty() bool {
	return len(q.Terms) == 0 && len(q.Filters) == 0
}
