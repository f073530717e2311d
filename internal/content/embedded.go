package content

import (
	"embed"
	"io/fs"
)

// Embedded default site so the server works standalone without a docs
// directory on disk.
//
// Embedded files:
// - data/site.yaml: Document Registry and Navigation
// - data/docs/*.md: documentation pages

//go:embed data/site.yaml
//go:embed data/docs/*
var embeddedFS embed.FS

// DefaultSiteFile is the embedded site definition name, for format detection
const DefaultSiteFile = "site.yaml"

// NewEmbeddedSource creates a Source serving the embedded documentation pages
func NewEmbeddedSource() *FSSource {
	docs, err := fs.Sub(embeddedFS, "data/docs")
	if err != nil {
		// Only fails on an invalid literal path
		panic(err)
	}
	return NewFSSource(docs)
}

// DefaultSite returns the embedded site definition
func DefaultSite() []byte {
	data, err := embeddedFS.ReadFile("data/site.yaml")
	if err != nil {
		panic(err)
	}
	return data
}
