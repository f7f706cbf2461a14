// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-library/internal/messaging"
	"github.com/pdiddy/paper-library/pkg/types"
)

// --- add ---

var addCmd = &cobra.Command{
	Use:   "add FILE...",
	Short: "Analyze local documents and add them to the library",
	Long: `Add sends each file through the analysis gateway and stores the result.
When the gateway is unavailable the paper is stored as a minimal record
titled by its file name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	failed := 0
	for _, path := range args {
		paper, err := addFile(ctx, a, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL  %s: %v\n", path, err)
			failed++
			continue
		}
		note := ""
		if paper.UsedFallback {
			note = "  (analysis unavailable, stored minimal record)"
		}
		fmt.Fprintf(os.Stdout, "OK    %s  %s%s\n", paper.ID, truncate(paper.Title, 60), note)
	}
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}

func addFile(ctx context.Context, a *app, path string) (messaging.AnalyzeResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return messaging.AnalyzeResult{}, err
	}
	fileType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if fileType == "" {
		fileType = "application/pdf"
	}

	resp, err := a.call(ctx, messaging.AnalyzeDocument, messaging.AnalyzeDocumentPayload{
		FileData: base64.StdEncoding.EncodeToString(data),
		FileName: filepath.Base(path),
		FileType: fileType,
		FileSize: int64(len(data)),
	})
	if err != nil {
		return messaging.AnalyzeResult{}, err
	}
	return resp.Data.(messaging.AnalyzeResult), nil
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List papers in the library",
	Long: `List prints the library in insertion order. --query matches title,
authors, and keywords case-insensitively; --cluster restricts the list to
one cluster's members.`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	clusterID, _ := cmd.Flags().GetString("cluster")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.call(ctx, messaging.ListPapers, messaging.ListPapersPayload{Query: query, ClusterID: clusterID})
	if err != nil {
		return err
	}
	papers := resp.Data.([]types.Paper)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(papers)
	}
	printPapers(os.Stdout, papers)
	return nil
}

func printPapers(w io.Writer, papers []types.Paper) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-50s  %-30s  %s\n", "ID", "Title", "Keywords", "Added")
	fmt.Fprintln(w, strings.Repeat("-", 132))
	for _, p := range papers {
		fmt.Fprintf(w, "%-36s  %-50s  %-30s  %s\n",
			p.ID,
			truncate(p.Title, 50),
			truncate(strings.Join(p.Keywords, ", "), 30),
			p.ProcessedDate.Format("2006-01-02"))
	}
	fmt.Fprintf(w, "\n%d papers\n", len(papers))
}

// --- delete ---

var deleteCmd = &cobra.Command{
	Use:   "delete ID...",
	Short: "Remove papers from the library and from their clusters",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, id := range args {
		resp, err := a.call(ctx, messaging.DeletePaper, messaging.DeletePaperPayload{ID: id})
		if err != nil {
			return err
		}
		if resp.Data.(messaging.DeleteResult).Deleted {
			fmt.Fprintf(os.Stdout, "Deleted %s\n", id)
		} else {
			fmt.Fprintf(os.Stdout, "Not found: %s\n", id)
		}
	}
	return nil
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func init() {
	listCmd.Flags().String("query", "", "filter by title, author, or keyword")
	listCmd.Flags().String("cluster", "", "filter by cluster ID")
	listCmd.Flags().Bool("json", false, "output papers as JSON")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
}
