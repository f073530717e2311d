package main

import (
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/zon-format/docsearch/internal/content"
	"github.com/zon-format/docsearch/internal/indexing"
)

// rootOptions are shared by every subcommand
type rootOptions struct {
	siteFile string
	docsDir  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "indexer",
		Short: "Build and inspect the documentation search index",
		Long: heredoc.Doc(`
			Builds the documentation search index offline, the same way the
			server does per query, and writes it as JSON for static hosting.

			Without --site and --docs the embedded documentation is used.
		`),
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.siteFile, "site", "", "site definition file (.yaml, .yml, .json or .toml)")
	cmd.PersistentFlags().StringVar(&opts.docsDir, "docs", "", "documentation directory")

	cmd.AddCommand(newBuildCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newSitemapCmd(opts))

	return cmd
}

// builder loads the site definition and documents named by the flags
func (o *rootOptions) builder() (*indexing.Builder, error) {
	s, err := content.LoadSite(o.siteFile)
	if err != nil {
		return nil, err
	}

	var src content.Source
	if o.docsDir == "" {
		src = content.NewEmbeddedSource()
	} else {
		// Unlike the server, the indexer never creates the directory
		src, err = content.NewDirSource(o.docsDir)
		if err != nil {
			return nil, err
		}
	}

	return indexing.NewBuilder(s, src), nil
}
