package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zon-format/docsearch/internal/indexing"
	"github.com/zon-format/docsearch/internal/search"
)

// indexFile is the JSON document written by the build command
type indexFile struct {
	SchemaVersion int              `json:"schema_version"`
	GeneratedAt   time.Time        `json:"generated_at"`
	Fingerprint   string           `json:"fingerprint"`
	Documents     int              `json:"documents"`
	Count         int              `json:"count"`
	Entries       []indexing.Entry `json:"entries"`
	Sitemap       []string         `json:"sitemap"`
}

func newBuildCmd(root *rootOptions) *cobra.Command {
	var (
		out    string
		indent bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the search index and write it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := root.builder()
			if err != nil {
				return err
			}
			return runBuild(cmd, b, out, indent)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&indent, "indent", false, "indent the JSON output")

	return cmd
}

func runBuild(cmd *cobra.Command, b *indexing.Builder, out string, indent bool) error {
	log.Printf("Documentation Indexer v%d", indexing.IndexSchemaVersion)
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	start := time.Now()
	entries := b.Build()

	docs := 0
	for _, e := range entries {
		if !strings.Contains(e.Href, "#") {
			docs++
		}
	}
	log.Printf("✓ Built %d entries from %d documents in %v", len(entries), docs, time.Since(start).Round(time.Millisecond))

	index := indexFile{
		SchemaVersion: indexing.IndexSchemaVersion,
		GeneratedAt:   time.Now().UTC().Truncate(time.Second),
		Fingerprint:   search.Fingerprint(entries),
		Documents:     docs,
		Count:         len(entries),
		Entries:       entries,
		Sitemap:       b.Site().Sitemap(),
	}

	var data []byte
	var err error
	if indent {
		data, err = json.MarshalIndent(index, "", "  ")
	} else {
		data, err = json.Marshal(index)
	}
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	if out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(out, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}

	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("✓ Indexing complete!")
	log.Printf("")
	log.Printf("Index details:")
	log.Printf("  Location:     %s", out)
	log.Printf("  Entries:      %d", len(entries))
	log.Printf("  Documents:    %d", docs)
	log.Printf("  Fingerprint:  %s", index.Fingerprint)
	log.Printf("  Schema:       v%d", indexing.IndexSchemaVersion)
	return nil
}
