package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zon-format/docsearch/internal/docsync"
	"github.com/zon-format/docsearch/internal/indexing"
	"github.com/zon-format/docsearch/internal/search"
	"github.com/zon-format/docsearch/internal/site"
)

// SitemapURI identifies the sitemap resource
const SitemapURI = "docsearch://sitemap"

// Searcher is the query side of the search service
type Searcher interface {
	Search(ctx context.Context, query string) []indexing.Entry
	Entries(ctx context.Context) []indexing.Entry
	Reset()
}

// Syncer refreshes the docs directory from remote sources
type Syncer interface {
	Sync(ctx context.Context, force bool) (docsync.Result, error)
}

// DocSearch backs the documentation tools
type DocSearch struct {
	site     *site.Site
	searcher Searcher
	syncer   Syncer // nil when serving embedded docs
}

// NewDocSearch creates the tool backend; syncer may be nil
func NewDocSearch(s *site.Site, searcher Searcher, syncer Syncer) *DocSearch {
	return &DocSearch{site: s, searcher: searcher, syncer: syncer}
}

// SearchDocumentationInput defines input for search_documentation tool
type SearchDocumentationInput struct {
	Query      string `json:"query" jsonschema:"Case-insensitive substring to look for in titles and content"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 20)"`
}

// SearchDocumentationOutput defines output for search_documentation tool
type SearchDocumentationOutput struct {
	Results []indexing.Entry `json:"results"`
	Query   string           `json:"query"`
	Total   int              `json:"total"`
}

// RefreshDocumentationInput defines input for refresh_documentation tool
type RefreshDocumentationInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Download even if the cache is fresh (optional, defaults to false)"`
}

// RefreshDocumentationOutput defines output for refresh_documentation tool
type RefreshDocumentationOutput struct {
	Updated        bool      `json:"updated"`
	Downloaded     int       `json:"downloaded"`
	Failed         int       `json:"failed"`
	LastUpdate     time.Time `json:"last_update,omitzero"`
	EntriesIndexed int       `json:"entries_indexed"`
	Message        string    `json:"message"`
}

// ListDocumentationInput defines input for list_documentation tool
type ListDocumentationInput struct{}

// ListDocumentationOutput defines output for list_documentation tool
type ListDocumentationOutput struct {
	Sections []site.Section `json:"sections"`
	Sitemap  []string       `json:"sitemap"`
}

// SearchDocumentation runs a substring query against the search index
func (d *DocSearch) SearchDocumentation(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentationInput) (*mcp.CallToolResult, SearchDocumentationOutput, error) {
	maxResults := input.MaxResults
	if maxResults <= 0 || maxResults > search.MaxResults {
		maxResults = search.MaxResults
	}

	results := d.searcher.Search(ctx, input.Query)
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	output := SearchDocumentationOutput{
		Results: results,
		Query:   input.Query,
		Total:   len(results),
	}
	return nil, output, nil
}

// RefreshDocumentation syncs remote documents and drops the current index
func (d *DocSearch) RefreshDocumentation(ctx context.Context, req *mcp.CallToolRequest, input RefreshDocumentationInput) (*mcp.CallToolResult, RefreshDocumentationOutput, error) {
	var output RefreshDocumentationOutput

	if d.syncer != nil {
		result, err := d.syncer.Sync(ctx, input.Force)
		output.Updated = result.Updated
		output.Downloaded = result.Downloaded
		output.Failed = result.Failed
		output.LastUpdate = result.LastUpdate
		output.Message = result.Message
		if err != nil {
			if !result.Updated {
				return nil, output, fmt.Errorf("refresh failed: %w", err)
			}
			// Partial sync: keep what arrived and report the rest
			log.Printf("Warning: Some documents failed to sync: %v", err)
		}
	} else {
		output.Message = "Serving embedded documentation, nothing to download"
	}

	if output.Updated || input.Force {
		d.searcher.Reset()
	}

	output.EntriesIndexed = len(d.searcher.Entries(ctx))
	output.Message = fmt.Sprintf("%s, %d entries indexed", output.Message, output.EntriesIndexed)

	return nil, output, nil
}

// ListDocumentation returns the navigation tree and the canonical document hrefs
func (d *DocSearch) ListDocumentation(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentationInput) (*mcp.CallToolResult, ListDocumentationOutput, error) {
	return nil, ListDocumentationOutput{
		Sections: d.site.Navigation(),
		Sitemap:  d.site.Sitemap(),
	}, nil
}

// ReadSitemap serves the sitemap resource
func (d *DocSearch) ReadSitemap(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(d.site.Sitemap())
	if err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      SitemapURI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// RegisterDocSearchTools registers documentation search tools and resources
func RegisterDocSearchTools(server *mcp.Server, d *DocSearch) error {
	if d == nil || d.site == nil || d.searcher == nil {
		return errors.New("doc search requires a site and a searcher")
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_documentation",
			Description: "Search documentation titles and content by case-insensitive substring. Returns up to 20 entries in index order.",
		},
		d.SearchDocumentation,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_documentation",
			Description: "Download documents with a remote source (auto-skipped while the cache is fresh) and rebuild the search index",
		},
		d.RefreshDocumentation,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_documentation",
			Description: "List navigation sections and the canonical href of every documentation page",
		},
		d.ListDocumentation,
	)

	server.AddResource(
		&mcp.Resource{
			URI:         SitemapURI,
			Name:        "sitemap",
			Description: "Canonical hrefs of every registered document",
			MIMEType:    "application/json",
		},
		d.ReadSitemap,
	)

	return nil
}
