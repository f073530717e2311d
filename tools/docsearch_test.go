package tools

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zon-format/docsearch/internal/content"
	"github.com/zon-format/docsearch/internal/docsync"
	"github.com/zon-format/docsearch/internal/indexing"
	"github.com/zon-format/docsearch/internal/search"
	"github.com/zon-format/docsearch/internal/site"
)

// fakeSyncer records sync calls and replays a canned outcome
type fakeSyncer struct {
	result docsync.Result
	err    error
	calls  int
	forced bool
	onSync func()
}

func (f *fakeSyncer) Sync(ctx context.Context, force bool) (docsync.Result, error) {
	f.calls++
	f.forced = force
	if f.onSync != nil {
		f.onSync()
	}
	return f.result, f.err
}

func newTestSite(t *testing.T) *site.Site {
	t.Helper()
	s, err := site.New(site.Definition{
		Documents: []site.Document{
			{Slug: "index", Path: "index.md"},
			{Slug: "llm", Path: "llm.md"},
		},
		Navigation: []site.Section{
			{Title: "Getting Started", Items: []site.Item{{Title: "Introduction", Href: "/docs"}}},
			{Title: "Guides", Items: []site.Item{{Title: "LLM Integration", Href: "/docs/llm"}}},
		},
	})
	if err != nil {
		t.Fatalf("Failed to create site: %v", err)
	}
	return s
}

// newTestDocSearch wires a DocSearch over an in-memory source with a one hour cache
func newTestDocSearch(t *testing.T, syncer Syncer) (*DocSearch, *content.MemorySource) {
	t.Helper()

	src := content.NewMemorySource()
	src.AddFile("index.md", []byte("Welcome to ZON\n\n## Setup\n\nInstall it.\n"))
	src.AddFile("llm.md", []byte("Token efficient prompts\n\n## Prompting\n"))

	s := newTestSite(t)
	b := indexing.NewBuilder(s, src)
	b.Logf = nil
	svc, err := search.NewService(b, search.Options{Engine: search.EngineBleve, CacheTTL: time.Hour})
	if err != nil {
		t.Fatalf("Failed to create search service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return NewDocSearch(s, svc, syncer), src
}

func TestSearchDocumentation(t *testing.T) {
	ds, _ := newTestDocSearch(t, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		input     SearchDocumentationInput
		wantHrefs []string
		wantQuery string
	}{
		{
			name:      "document and heading match",
			input:     SearchDocumentationInput{Query: "setup"},
			wantHrefs: []string{"/docs", "/docs#setup"},
			wantQuery: "setup",
		},
		{
			name:      "case insensitive across documents",
			input:     SearchDocumentationInput{Query: "PROMPT"},
			wantHrefs: []string{"/docs/llm", "/docs/llm#prompting"},
			wantQuery: "PROMPT",
		},
		{
			name:      "max results caps output",
			input:     SearchDocumentationInput{Query: "o", MaxResults: 1},
			wantHrefs: []string{"/docs"},
			wantQuery: "o",
		},
		{
			name:      "empty query",
			input:     SearchDocumentationInput{},
			wantHrefs: []string{},
		},
		{
			name:      "no match",
			input:     SearchDocumentationInput{Query: "kubernetes"},
			wantHrefs: []string{},
			wantQuery: "kubernetes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, output, err := ds.SearchDocumentation(ctx, nil, tt.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if result != nil {
				t.Errorf("Expected nil CallToolResult, got %+v", result)
			}
			if output.Results == nil {
				t.Fatal("Results should never be nil")
			}
			if output.Query != tt.wantQuery {
				t.Errorf("Query = %q, want %q", output.Query, tt.wantQuery)
			}
			if output.Total != len(output.Results) {
				t.Errorf("Total = %d, want %d", output.Total, len(output.Results))
			}

			hrefs := make([]string, 0, len(output.Results))
			for _, e := range output.Results {
				hrefs = append(hrefs, e.Href)
			}
			if !slices.Equal(hrefs, tt.wantHrefs) {
				t.Errorf("Hrefs = %v, want %v", hrefs, tt.wantHrefs)
			}
		})
	}
}

func TestSearchDocumentation_EntryFields(t *testing.T) {
	ds, _ := newTestDocSearch(t, nil)

	_, output, err := ds.SearchDocumentation(context.Background(), nil, SearchDocumentationInput{Query: "integration > prompting"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(output.Results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(output.Results))
	}

	want := indexing.Entry{
		Title:   "Prompting",
		Href:    "/docs/llm#prompting",
		Content: "LLM Integration > Prompting",
		Section: "Guides",
	}
	if output.Results[0] != want {
		t.Errorf("Entry = %+v, want %+v", output.Results[0], want)
	}
}

func TestRefreshDocumentation_Embedded(t *testing.T) {
	ds, src := newTestDocSearch(t, nil)
	ctx := context.Background()

	_, before, err := ds.RefreshDocumentation(ctx, nil, RefreshDocumentationInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if before.Updated {
		t.Error("Embedded docs should never report an update")
	}
	if before.EntriesIndexed != 4 {
		t.Errorf("EntriesIndexed = %d, want 4", before.EntriesIndexed)
	}

	src.AddFile("llm.md", []byte("Token efficient prompts\n\n## Prompting\n\n## Streaming\n"))

	// Without force the cached index is kept
	_, stale, err := ds.RefreshDocumentation(ctx, nil, RefreshDocumentationInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stale.EntriesIndexed != 4 {
		t.Errorf("EntriesIndexed = %d, want 4 (cached)", stale.EntriesIndexed)
	}

	_, forced, err := ds.RefreshDocumentation(ctx, nil, RefreshDocumentationInput{Force: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if forced.EntriesIndexed != 5 {
		t.Errorf("EntriesIndexed = %d, want 5 after forced refresh", forced.EntriesIndexed)
	}
	if !strings.Contains(forced.Message, "5 entries indexed") {
		t.Errorf("Unexpected message: %q", forced.Message)
	}
}

func TestRefreshDocumentation_Syncer(t *testing.T) {
	lastUpdate := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("successful sync rebuilds index", func(t *testing.T) {
		syncer := &fakeSyncer{result: docsync.Result{
			Updated:    true,
			Downloaded: 2,
			LastUpdate: lastUpdate,
			Message:    "Synced 2 of 2 documents",
		}}
		ds, src := newTestDocSearch(t, syncer)
		ctx := context.Background()

		// Publish the cached index before the sync changes the source
		ds.searcher.Entries(ctx)
		syncer.onSync = func() {
			src.AddFile("index.md", []byte("Welcome\n\n## Setup\n\n## Upgrade\n"))
		}

		_, output, err := ds.RefreshDocumentation(ctx, nil, RefreshDocumentationInput{Force: false})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if syncer.calls != 1 || syncer.forced {
			t.Errorf("Sync calls = %d forced = %v, want 1 false", syncer.calls, syncer.forced)
		}
		if !output.Updated || output.Downloaded != 2 {
			t.Errorf("Unexpected output: %+v", output)
		}
		if !output.LastUpdate.Equal(lastUpdate) {
			t.Errorf("LastUpdate = %v, want %v", output.LastUpdate, lastUpdate)
		}
		if output.EntriesIndexed != 5 {
			t.Errorf("EntriesIndexed = %d, want 5", output.EntriesIndexed)
		}
	})

	t.Run("fresh cache keeps index", func(t *testing.T) {
		syncer := &fakeSyncer{result: docsync.Result{Message: "Cache is fresh"}}
		ds, src := newTestDocSearch(t, syncer)
		ctx := context.Background()

		ds.searcher.Entries(ctx)
		src.AddFile("index.md", []byte("Welcome\n\n## Setup\n\n## Upgrade\n"))

		_, output, err := ds.RefreshDocumentation(ctx, nil, RefreshDocumentationInput{})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if output.Updated {
			t.Error("Expected Updated = false")
		}
		if output.EntriesIndexed != 4 {
			t.Errorf("EntriesIndexed = %d, want 4", output.EntriesIndexed)
		}
		if !strings.HasPrefix(output.Message, "Cache is fresh") {
			t.Errorf("Unexpected message: %q", output.Message)
		}
	})

	t.Run("failed sync", func(t *testing.T) {
		syncer := &fakeSyncer{err: errors.New("network down")}
		ds, _ := newTestDocSearch(t, syncer)

		_, _, err := ds.RefreshDocumentation(context.Background(), nil, RefreshDocumentationInput{Force: true})
		if err == nil {
			t.Fatal("Expected error")
		}
		if !strings.Contains(err.Error(), "network down") {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("partial sync succeeds", func(t *testing.T) {
		syncer := &fakeSyncer{
			result: docsync.Result{Updated: true, Downloaded: 1, Failed: 1, Message: "Synced 1 of 2 documents"},
			err:    errors.New("llm: download failed with status: 404"),
		}
		ds, _ := newTestDocSearch(t, syncer)

		_, output, err := ds.RefreshDocumentation(context.Background(), nil, RefreshDocumentationInput{Force: true})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if output.Failed != 1 {
			t.Errorf("Failed = %d, want 1", output.Failed)
		}
	})
}

func TestListDocumentation(t *testing.T) {
	ds, _ := newTestDocSearch(t, nil)

	_, output, err := ds.ListDocumentation(context.Background(), nil, ListDocumentationInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !slices.Equal(output.Sitemap, []string{"/docs", "/docs/llm"}) {
		t.Errorf("Sitemap = %v", output.Sitemap)
	}
	if len(output.Sections) != 2 || output.Sections[1].Title != "Guides" {
		t.Errorf("Sections = %+v", output.Sections)
	}
}

func TestReadSitemap(t *testing.T) {
	ds, _ := newTestDocSearch(t, nil)

	result, err := ds.ReadSitemap(context.Background(), nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("Expected 1 content, got %d", len(result.Contents))
	}

	var hrefs []string
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &hrefs); err != nil {
		t.Fatalf("Invalid sitemap JSON: %v", err)
	}
	if !slices.Equal(hrefs, []string{"/docs", "/docs/llm"}) {
		t.Errorf("Sitemap = %v", hrefs)
	}
}

func TestRegisterDocSearchTools(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "docsearch-test", Version: "test"}, nil)

	if err := RegisterDocSearchTools(server, nil); err == nil {
		t.Error("Expected error for nil DocSearch")
	}

	ds, _ := newTestDocSearch(t, nil)
	if err := RegisterDocSearchTools(server, ds); err != nil {
		t.Fatalf("RegisterDocSearchTools failed: %v", err)
	}

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "docsearch-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	defer session.Close()

	list, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	for _, want := range []string{"search_documentation", "refresh_documentation", "list_documentation"} {
		if !slices.Contains(names, want) {
			t.Errorf("Tool %q not registered (got %v)", want, names)
		}
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "search_documentation",
		Arguments: map[string]any{"query": "setup"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Tool returned error: %+v", result.Content)
	}

	raw, err := json.Marshal(result.StructuredContent)
	if err != nil {
		t.Fatalf("Failed to encode structured content: %v", err)
	}
	var output SearchDocumentationOutput
	if err := json.Unmarshal(raw, &output); err != nil {
		t.Fatalf("Failed to decode structured content: %v", err)
	}
	if output.Total != 2 || output.Results[1].Href != "/docs#setup" {
		t.Errorf("Unexpected output: %+v", output)
	}
}
