package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zon-format/docsearch/internal/indexing"
	"github.com/zon-format/docsearch/internal/search"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd := newRootCmd()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeTestDocs(t *testing.T) (siteFile, docsDir string) {
	t.Helper()
	dir := t.TempDir()
	docsDir = filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "index.md"), []byte("Welcome\n\n## Setup\n\n### Linux\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "api.md"), []byte("Encode and decode\n\n## encode()\n"), 0644))

	siteFile = filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(siteFile, []byte(`
documents:
  - slug: index
    path: index.md
  - slug: api
    path: api.md
  - slug: gone
    path: gone.md
navigation:
  - title: Reference
    items:
      - title: API
        href: /docs/api
`), 0644))
	return siteFile, docsDir
}

func TestBuildCmd_WritesIndex(t *testing.T) {
	siteFile, docsDir := writeTestDocs(t)
	out := filepath.Join(t.TempDir(), "public", "search-index.json")

	_, err := execute(t, "build", "--site", siteFile, "--docs", docsDir, "--out", out, "--indent")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var index indexFile
	require.NoError(t, json.Unmarshal(data, &index))

	assert.Equal(t, indexing.IndexSchemaVersion, index.SchemaVersion)
	assert.Equal(t, 2, index.Documents)
	assert.Equal(t, 5, index.Count)
	require.Len(t, index.Entries, 5)
	assert.Equal(t, search.Fingerprint(index.Entries), index.Fingerprint)
	assert.Equal(t, []string{"/docs", "/docs/api", "/docs/gone"}, index.Sitemap)

	assert.Equal(t, indexing.Entry{
		Title:   "Linux",
		Href:    "/docs#linux",
		Content: "index > Setup > Linux",
		Section: "Documentation",
	}, index.Entries[2])
	assert.Equal(t, "Reference", index.Entries[3].Section)
}

func TestBuildCmd_Stdout(t *testing.T) {
	out, err := execute(t, "build")
	require.NoError(t, err)

	var index indexFile
	require.NoError(t, json.Unmarshal([]byte(out), &index))
	assert.NotEmpty(t, index.Entries)
	assert.Equal(t, len(index.Entries), index.Count)
}

func TestBuildCmd_Errors(t *testing.T) {
	_, err := execute(t, "build", "--docs", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, err = execute(t, "build", "--site", filepath.Join(t.TempDir(), "site.txt"))
	assert.Error(t, err)

	_, err = execute(t, "build", "extra")
	assert.Error(t, err)
}

func TestSearchCmd(t *testing.T) {
	siteFile, docsDir := writeTestDocs(t)

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "search", "--site", siteFile, "--docs", docsDir, "--json", "SETUP")
		require.NoError(t, err)

		var results []indexing.Entry
		require.NoError(t, json.Unmarshal([]byte(out), &results))
		var hrefs []string
		for _, e := range results {
			hrefs = append(hrefs, e.Href)
		}
		assert.Equal(t, []string{"/docs", "/docs#setup", "/docs#linux"}, hrefs)
	})

	t.Run("table", func(t *testing.T) {
		out, err := execute(t, "search", "--site", siteFile, "--docs", docsDir, "--engine", "scan", "encode()")
		require.NoError(t, err)
		assert.Contains(t, out, "Results:")
		assert.Contains(t, out, "[1] API (/docs/api)")
		assert.Contains(t, out, "[2] encode() (/docs/api#encode)")
	})

	t.Run("no results", func(t *testing.T) {
		out, err := execute(t, "search", "--site", siteFile, "--docs", docsDir, "kubernetes")
		require.NoError(t, err)
		assert.Contains(t, out, "No results found.")
	})

	t.Run("requires exactly one arg", func(t *testing.T) {
		_, err := execute(t, "search")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepts 1 arg(s)")
	})

	t.Run("unknown engine", func(t *testing.T) {
		_, err := execute(t, "search", "--engine", "lucene", "zon")
		assert.Error(t, err)
	})
}

func TestSitemapCmd(t *testing.T) {
	siteFile, docsDir := writeTestDocs(t)

	out, err := execute(t, "sitemap", "--site", siteFile, "--docs", docsDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs", "/docs/api", "/docs/gone"}, strings.Fields(out))
}
