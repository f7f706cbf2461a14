// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-library/internal/messaging"
	"github.com/pdiddy/paper-library/pkg/types"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Group the library into topic clusters",
	Long: `Cluster sends the library to the clustering service and replaces the
stored clusters with the result. Without a reachable service, papers are
grouped locally by their first keyword.`,
	RunE: runCluster,
}

func init() {
	clusterCmd.Flags().Float64("threshold", 0, "similarity threshold in [0,1] (0 = use settings)")
	clusterCmd.Flags().Bool("json", false, "output the clustering result as JSON")
	rootCmd.AddCommand(clusterCmd)
}

func runCluster(cmd *cobra.Command, args []string) error {
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.call(ctx, messaging.PerformClustering, messaging.PerformClusteringPayload{Threshold: threshold})
	if err != nil {
		return err
	}
	result := resp.Data.(types.ClusteringResult)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printClusters(os.Stdout, result)
	return nil
}

func printClusters(w io.Writer, result types.ClusteringResult) {
	if result.AlgorithmInfo.Fallback {
		fmt.Fprintln(w, "note: clustering service unavailable, grouped by primary keyword")
	}
	if len(result.Clusters) == 0 {
		fmt.Fprintln(w, "No clusters.")
		return
	}

	fmt.Fprintf(w, "%-12s  %-24s  %-7s  %-8s  %s\n", "ID", "Name", "Papers", "Cohesion", "Keywords")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, c := range result.Clusters {
		fmt.Fprintf(w, "%-12s  %-24s  %-7d  %-8.2f  %s\n",
			truncate(c.ID, 12),
			truncate(c.Name, 24),
			len(c.Members),
			c.CohesionScore,
			truncate(strings.Join(c.Keywords, ", "), 40))
	}
	m := result.QualityMetrics
	fmt.Fprintf(w, "\n%d clusters, average cohesion %.2f, coverage %.0f%% (%s)\n",
		len(result.Clusters), m.AverageCohesion, m.Coverage*100, result.AlgorithmInfo.Name)
}
