package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zon-format/docsearch/internal/indexing"
	"github.com/zon-format/docsearch/internal/search"
)

// Searcher is the query API the HTTP handlers serve
type Searcher interface {
	Search(ctx context.Context, query string) []indexing.Entry
	Entries(ctx context.Context) []indexing.Entry
	Stats() search.Stats
}

// Options configures the router
type Options struct {
	ServiceName string
	Searcher    Searcher

	// Documents is the registry size reported by /health
	Documents int

	CORSOrigins []string

	// Limiter is optional; nil disables rate limiting
	Limiter Limiter

	// Logger enables gin's request logger
	Logger bool
}

// NewRouter builds the HTTP handler
func NewRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if opts.Logger {
		router.Use(gin.Logger())
	}
	router.Use(RequestID())
	router.Use(Tracing(opts.ServiceName)...)
	router.Use(CORS(opts.CORSOrigins))
	if opts.Limiter != nil {
		router.Use(RateLimit(opts.Limiter))
	}

	h := &handlers{searcher: opts.Searcher, documents: opts.Documents}

	router.GET("/health", h.health)

	api := router.Group("/api")
	{
		api.GET("/search", h.search)
		api.GET("/search/index", h.index)
	}

	return router
}

type handlers struct {
	searcher  Searcher
	documents int
}

// search answers GET /api/search?q=. A missing query yields [].
func (h *handlers) search(c *gin.Context) {
	results := h.searcher.Search(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, results)
}

// index returns the complete entry list
func (h *handlers) index(c *gin.Context) {
	entries := h.searcher.Entries(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}

func (h *handlers) health(c *gin.Context) {
	stats := h.searcher.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"documents": h.documents,
		"entries":   stats.Entries,
		"engine":    stats.Engine,
	})
}
