// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-library/internal/related"
)

var relatedCmd = &cobra.Command{
	Use:   "related [keywords...]",
	Short: "Discover related work on arXiv, Semantic Scholar, and OpenAlex",
	Long: `Related queries the enabled academic APIs concurrently, merges duplicate
results, and drops links you already viewed and papers already in the
library. Without keywords, the library's most frequent keywords and your
research interests are used. If every API fails, the last cached results
are shown.`,
	RunE: runRelated,
}

func init() {
	relatedCmd.Flags().Bool("json", false, "output results as JSON")
	relatedCmd.Flags().Int("max-results", 0, "maximum number of results (0 = use config)")
	rootCmd.AddCommand(relatedCmd)
}

func runRelated(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.RelatedWork.MaxResults = n
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.finder.Discover(ctx, args)
	if err != nil {
		return err
	}
	if jsonOutput {
		return related.FormatJSON(d, os.Stdout)
	}
	related.FormatTable(d, os.Stdout)
	return nil
}
