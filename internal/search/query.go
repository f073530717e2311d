package search

import (
	"strings"

	"github.com/zon-format/docsearch/internal/indexing"
)

// MaxResults caps every query response
const MaxResults = 20

// Matches reports whether lowerQuery is a substring of the lowercased title or content of e
func Matches(e indexing.Entry, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(e.Title), lowerQuery) ||
		strings.Contains(strings.ToLower(e.Content), lowerQuery)
}

// Filter returns up to limit entries matching query, in index order.
// An empty query yields an empty, non-nil result.
func Filter(entries []indexing.Entry, query string, limit int) []indexing.Entry {
	results := []indexing.Entry{}
	if query == "" || limit <= 0 {
		return results
	}

	lq := strings.ToLower(query)
	for _, e := range entries {
		if !Matches(e, lq) {
			continue
		}
		results = append(results, e)
		if len(results) == limit {
			break
		}
	}
	return results
}
