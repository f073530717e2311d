package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zon-format/docsearch/internal/indexing"
	"github.com/zon-format/docsearch/internal/search"
)

func newSearchCmd(root *rootOptions) *cobra.Command {
	var (
		engine     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run a query against a freshly built index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := root.builder()
			if err != nil {
				return err
			}
			b.Logf = nil

			svc, err := search.NewService(b, search.Options{Engine: engine})
			if err != nil {
				return err
			}
			defer svc.Close()

			results := svc.Search(context.Background(), args[0])
			if jsonOutput {
				return outputSearchJSON(cmd, results)
			}
			outputSearchTable(cmd, results)
			return nil
		},
	}

	cmd.Flags().StringVar(&engine, "engine", search.EngineBleve, "query engine: scan or bleve")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output results as JSON")

	return cmd
}

func outputSearchJSON(cmd *cobra.Command, results []indexing.Entry) error {
	w := cmd.OutOrStdout()
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []indexing.Entry) {
	w := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintln(w, "Results:")
	fmt.Fprintln(w)
	for i, e := range results {
		fmt.Fprintf(w, "  [%d] %s (%s)\n", i+1, e.Title, e.Href)
		fmt.Fprintf(w, "      %s: %s\n", e.Section, e.Content)
		fmt.Fprintln(w)
	}
}

func newSitemapCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sitemap",
		Short: "List the canonical href of every registered document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := root.builder()
			if err != nil {
				return err
			}
			for _, href := range b.Site().Sitemap() {
				fmt.Fprintln(cmd.OutOrStdout(), href)
			}
			return nil
		},
	}
}
