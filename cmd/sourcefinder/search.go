package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sourcefinder/sourcefinder/client"
	"github.com/sourcefinder/sourcefinder/search"
)

// searcherFunc adapts a client method to search.Searcher.
type searcherFunc func(ctx context.Context, token string, q client.SearchQuery) (*client.SearchResponse, error)

func (f searcherFunc) Search(ctx context.Context, token string, q client.SearchQuery) (*client.SearchResponse, error) {
	return f(ctx, token, q)
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		text       string
		filePath   string
		minPercent float64
		noRerank   bool
		baseline   bool
		asJSON     bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Find the passages most similar to a text or file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && text == "" {
				text = args[0]
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			var api search.Searcher = a.client
			if baseline {
				api = searcherFunc(a.client.SearchBaseline)
			}
			ctrl := search.NewController(api, a.store)
			ctrl.SetText(text)
			ctrl.SetMinSimilarityPercent(minPercent)
			ctrl.SetRerank(!noRerank)

			if filePath != "" {
				f, err := os.Open(filePath)
				if err != nil {
					return fmt.Errorf("open query file: %w", err)
				}
				defer f.Close()
				src := client.FileSource{Name: filepath.Base(filePath), Reader: f, Size: -1}
				if st, err := f.Stat(); err == nil {
					src.Size = st.Size()
				}
				ctrl.SetFile(&src)
			}

			log.Debug().Str("text", text).Str("file", filePath).Float64("min_percent", minPercent).Bool("baseline", baseline).Msg("search")
			start := time.Now()
			if err := ctrl.Submit(ctx); err != nil {
				return err
			}
			log.Debug().Dur("elapsed", time.Since(start)).Msg("search completed")

			st := ctrl.Snapshot()
			if asJSON {
				b, _ := json.MarshalIndent(client.SearchResponse{Query: st.Query, Results: st.Results}, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			printResults(cmd.OutOrStdout(), st.Results)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Query text")
	cmd.Flags().StringVar(&filePath, "file", "", "Query file (.txt, .pdf, .docx)")
	cmd.Flags().Float64Var(&minPercent, "min-percent", search.DefaultMinSimilarityPercent, "Minimum similarity percentage [0,100]")
	cmd.Flags().BoolVar(&noRerank, "no-rerank", false, "Skip the rerank stage")
	cmd.Flags().BoolVar(&baseline, "baseline", false, "Use the baseline ranker")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw response as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Request timeout")
	return cmd
}

func printResults(w io.Writer, results []client.SearchResultItem) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results")
		return
	}
	for i, r := range results {
		page := ""
		if r.PageNumber != nil {
			page = fmt.Sprintf("  p.%d", *r.PageNumber)
		}
		fmt.Fprintf(w, "%d. %s  %s%s\n", i+1, r.Title, r.PercentLabel(), page)
		if ex := strings.TrimSpace(r.Excerpt); ex != "" {
			fmt.Fprintf(w, "   %s\n", ex)
		}
	}
}
