package search

import (
	"fmt"
	"log"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/zon-format/docsearch/internal/indexing"
)

// bleveEngine retrieves candidates from a bleve index and re-checks them
// against the exact predicate, so results always equal Filter.
type bleveEngine struct {
	entries []indexing.Entry
	index   Index

	// literal disables candidate retrieval for entry lists containing text
	// a wildcard term match cannot see (newlines)
	literal bool
}

// NewBleveEngine indexes entries into an in-memory bleve index
func NewBleveEngine(entries []indexing.Entry) (Engine, error) {
	index, err := buildMemIndex(entries)
	if err != nil {
		return nil, err
	}
	return newBleveEngine(entries, index), nil
}

func newBleveEngine(entries []indexing.Entry, index Index) *bleveEngine {
	literal := false
	for _, e := range entries {
		if strings.Contains(e.Title, "\n") || strings.Contains(e.Content, "\n") {
			literal = true
			break
		}
	}
	return &bleveEngine{entries: entries, index: index, literal: literal}
}

func (e *bleveEngine) Search(q string, limit int) []indexing.Entry {
	if q == "" || limit <= 0 {
		return []indexing.Entry{}
	}
	if e.literal || !plainQuery(q) {
		return Filter(e.entries, q, limit)
	}

	candidates, err := e.candidates(strings.ToLower(q))
	if err != nil {
		log.Printf("Warning: bleve candidate search failed, using linear scan: %v", err)
		return Filter(e.entries, q, limit)
	}

	lq := strings.ToLower(q)
	results := []indexing.Entry{}
	for i, entry := range e.entries {
		if !candidates[docID(i)] || !Matches(entry, lq) {
			continue
		}
		results = append(results, entry)
		if len(results) == limit {
			break
		}
	}
	return results
}

// wildcardMeta lists the characters that carry meaning in a wildcard query
// or in the regexp bleve compiles it to
const wildcardMeta = "*?+()^$.{}[]|\\\n"

// plainQuery reports whether q can be matched by a wildcard term query
// without escaping
func plainQuery(q string) bool {
	return !strings.ContainsAny(q, wildcardMeta)
}

// candidates returns the IDs of every document whose title or content term
// contains lq
func (e *bleveEngine) candidates(lq string) (map[string]bool, error) {
	count, err := e.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("doc count: %w", err)
	}
	if count == 0 {
		return map[string]bool{}, nil
	}

	pattern := "*" + lq + "*"
	title := query.NewWildcardQuery(pattern)
	title.SetField("title")
	content := query.NewWildcardQuery(pattern)
	content.SetField("content")

	req := bleve.NewSearchRequestOptions(query.NewDisjunctionQuery([]query.Query{title, content}), int(count), 0, false)
	res, err := e.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	ids := make(map[string]bool, len(res.Hits))
	for _, hit := range res.Hits {
		ids[hit.ID] = true
	}
	return ids, nil
}

func (e *bleveEngine) Len() int {
	return len(e.entries)
}

func (e *bleveEngine) Close() error {
	return e.index.Close()
}
