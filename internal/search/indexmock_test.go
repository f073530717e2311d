package search

import (
	"fmt"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
)

// mockIndex is an in-memory stand-in for the Index interface
type mockIndex struct {
	docCount    uint64
	hits        []string
	searchError error
	closeError  error
	searches    atomic.Int64
	closed      atomic.Bool
}

func newMockIndex(docCount uint64, hits ...string) *mockIndex {
	return &mockIndex{docCount: docCount, hits: hits}
}

func (m *mockIndex) Search(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	m.searches.Add(1)
	if m.closed.Load() {
		return nil, fmt.Errorf("index closed")
	}
	if m.searchError != nil {
		return nil, m.searchError
	}

	hits := make(search.DocumentMatchCollection, 0, len(m.hits))
	for _, id := range m.hits {
		hits = append(hits, &search.DocumentMatch{ID: id})
	}
	return &bleve.SearchResult{
		Request: req,
		Hits:    hits,
		Total:   uint64(len(hits)),
	}, nil
}

func (m *mockIndex) DocCount() (uint64, error) {
	if m.closed.Load() {
		return 0, fmt.Errorf("index closed")
	}
	return m.docCount, nil
}

func (m *mockIndex) Close() error {
	if m.closed.Load() {
		return fmt.Errorf("already closed")
	}
	m.closed.Store(true)
	return m.closeError
}
