package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/zon-format/docsearch/internal/indexing"
)

// indexBatchSize is the number of entries submitted per bleve batch
const indexBatchSize = 100

// Index is an interface that abstracts bleve.Index operations
// This allows for easier testing with mocks
type Index interface {
	// Search executes a search request
	Search(req *bleve.SearchRequest) (*bleve.SearchResult, error)

	// DocCount returns the number of documents in the index
	DocCount() (uint64, error)

	// Close closes the index
	Close() error
}

// bleveIndexWrapper narrows a bleve.Index to the Index interface
type bleveIndexWrapper struct {
	index bleve.Index
}

// NewBleveIndexWrapper wraps a bleve.Index
func NewBleveIndexWrapper(index bleve.Index) Index {
	return &bleveIndexWrapper{index: index}
}

func (w *bleveIndexWrapper) Search(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return w.index.Search(req)
}

func (w *bleveIndexWrapper) DocCount() (uint64, error) {
	return w.index.DocCount()
}

func (w *bleveIndexWrapper) Close() error {
	return w.index.Close()
}

// indexedEntry is the document stored per entry. Fields hold the lowercased
// text as a single keyword term so wildcard queries see whole values.
type indexedEntry struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// newIndexMapping maps title and content as unstored keyword fields
func newIndexMapping() *mapping.IndexMappingImpl {
	field := bleve.NewTextFieldMapping()
	field.Analyzer = keyword.Name
	field.Store = false
	field.IncludeInAll = false
	field.IncludeTermVectors = false
	field.DocValues = false

	doc := bleve.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt("title", field)
	doc.AddFieldMappingsAt("content", field)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = keyword.Name
	return m
}

// docID is the bleve document ID of the entry at position i
func docID(i int) string {
	return strconv.Itoa(i)
}

// buildMemIndex creates an in-memory bleve index over entries
func buildMemIndex(entries []indexing.Entry) (Index, error) {
	index, err := bleve.NewMemOnly(newIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	batch := index.NewBatch()
	for i, e := range entries {
		doc := indexedEntry{
			Title:   strings.ToLower(e.Title),
			Content: strings.ToLower(e.Content),
		}
		if err := batch.Index(docID(i), doc); err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to add entry %d to batch: %w", i, err)
		}

		if batch.Size() >= indexBatchSize {
			if err := index.Batch(batch); err != nil {
				index.Close()
				return nil, fmt.Errorf("failed to index batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to index final batch: %w", err)
		}
	}

	return NewBleveIndexWrapper(index), nil
}
