// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop stale related work and evict old papers from a large library",
	Long: `Purge removes the related-work cache when it is older than the
retention period, and evicts papers older than library.long_term_retention
when the library holds more than library.high_water_mark papers.`,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().Duration("retention", 0, "related-work cache retention (0 = use config)")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	retention, _ := cmd.Flags().GetDuration("retention")

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.store.PurgeStale(ctx, retention)
	if err != nil {
		return err
	}
	if !rep.CacheRemoved && len(rep.PapersEvicted) == 0 {
		fmt.Fprintln(os.Stdout, "Nothing to purge.")
		return nil
	}
	if rep.CacheRemoved {
		fmt.Fprintln(os.Stdout, "Removed stale related-work cache.")
	}
	for _, id := range rep.PapersEvicted {
		fmt.Fprintf(os.Stdout, "Evicted %s\n", id)
	}
	return nil
}
