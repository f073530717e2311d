package search

import (
	"fmt"

	"github.com/zon-format/docsearch/internal/indexing"
)

// Engine names accepted by NewFactory
const (
	EngineScan  = "scan"
	EngineBleve = "bleve"
)

// Engine answers substring queries over one immutable entry list.
// Every implementation returns the same results as Filter.
type Engine interface {
	// Search returns up to limit matching entries in index order
	Search(query string, limit int) []indexing.Entry

	// Len returns the number of indexed entries
	Len() int

	// Close releases resources held by the engine
	Close() error
}

// Factory builds an engine over a complete entry list
type Factory func(entries []indexing.Entry) (Engine, error)

// NewFactory returns the factory registered under name
func NewFactory(name string) (Factory, error) {
	switch name {
	case EngineScan:
		return NewScanEngine, nil
	case EngineBleve, "":
		return NewBleveEngine, nil
	default:
		return nil, fmt.Errorf("unknown search engine %q (want %q or %q)", name, EngineScan, EngineBleve)
	}
}

// scanEngine is the linear reference implementation
type scanEngine struct {
	entries []indexing.Entry
}

// NewScanEngine returns an engine that filters entries linearly
func NewScanEngine(entries []indexing.Entry) (Engine, error) {
	return &scanEngine{entries: entries}, nil
}

func (e *scanEngine) Search(query string, limit int) []indexing.Entry {
	return Filter(e.entries, query, limit)
}

func (e *scanEngine) Len() int {
	return len(e.entries)
}

func (e *scanEngine) Close() error {
	return nil
}
