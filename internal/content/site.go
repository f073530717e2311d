package content

import (
	"fmt"
	"os"

	"github.com/zon-format/docsearch/internal/site"
)

// LoadSite reads the site definition at path, or the embedded one when path is empty
func LoadSite(path string) (*site.Site, error) {
	if path == "" {
		format, err := site.FormatFromPath(DefaultSiteFile)
		if err != nil {
			return nil, err
		}
		return site.Parse(DefaultSite(), format)
	}
	return site.Load(path)
}

// OpenSource returns a Source over dir, creating it if needed so doc sync
// can fill it. An empty dir serves the embedded documents.
func OpenSource(dir string) (Source, error) {
	if dir == "" {
		return NewEmbeddedSource(), nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create docs directory: %w", err)
	}
	return NewDirSource(dir)
}
