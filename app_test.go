package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zon-format/docsearch/internal/config"
	"github.com/zon-format/docsearch/internal/server"
	"github.com/zon-format/docsearch/tools"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:             "0",
		GinMode:          "test",
		DocsTTL:          time.Hour,
		DocsSyncInterval: time.Hour,
		SearchEngine:     "bleve",
		RateLimitRPS:     10,
		RateLimitBurst:   20,
		RateLimitWindow:  time.Minute,
	}
}

func TestNewApp_Embedded(t *testing.T) {
	a, err := newApp(testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { a.close() })

	assert.Nil(t, a.syncer)
	assert.Nil(t, a.scheduler)
	assert.Nil(t, a.watcher)

	a.start()
	st := a.service.Stats()
	assert.Greater(t, st.Entries, len(a.site.Documents()))

	_, out, err := a.docSearch().SearchDocumentation(context.Background(), nil, tools.SearchDocumentationInput{Query: "zon"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Results)
	assert.LessOrEqual(t, out.Total, 20)
}

func TestNewApp_DocsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	siteFile := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(siteFile, []byte(`
documents:
  - slug: index
    path: index.md
navigation: []
`), 0644))

	cfg := testConfig()
	cfg.SiteFile = siteFile
	cfg.DocsDir = dir
	cfg.DocsWatch = true
	cfg.SearchCacheTTL = time.Hour

	a, err := newApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.close() })

	require.NotNil(t, a.syncer)
	assert.Nil(t, a.scheduler, "no document declares a remote URL")
	require.NotNil(t, a.watcher)

	a.start()
	assert.Empty(t, a.service.Search(context.Background(), "hello"))

	// The watcher drops the cached index once the document appears
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.md"), []byte("hello world\n"), 0644))
	require.Eventually(t, func() bool {
		return len(a.service.Search(context.Background(), "hello")) == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNewApp_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.SiteFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := newApp(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.SearchEngine = "lucene"
	_, err = newApp(cfg)
	assert.Error(t, err)
}

func TestNewLimiter(t *testing.T) {
	a, err := newApp(testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { a.close() })

	cfg := testConfig()
	_, ok := a.newLimiter(cfg).(*server.MemoryLimiter)
	assert.True(t, ok)

	cfg.RedisURL = "redis://127.0.0.1:1"
	_, ok = a.newLimiter(cfg).(*server.MemoryLimiter)
	assert.True(t, ok, "unreachable Redis falls back to memory")
	assert.Nil(t, a.redis)
}

func TestAppClose_ClosesRedis(t *testing.T) {
	a, err := newApp(testConfig())
	require.NoError(t, err)

	a.redis = redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	require.NoError(t, a.close())

	err = a.redis.Ping(context.Background()).Err()
	assert.ErrorIs(t, err, redis.ErrClosed)
}

func TestRegisterTools(t *testing.T) {
	a, err := newApp(testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { a.close() })

	assert.NoError(t, tools.RegisterDocSearchTools(createMCPServer(), a.docSearch()))
}
