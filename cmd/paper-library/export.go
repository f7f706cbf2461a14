// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the library as JSON, CSV, BibTeX, YAML, or CSL-JSON",
	Long: `Export writes every paper (and, for JSON and YAML, every cluster) to a
file named paper-library-YYYY-MM-DD.<ext> in the current directory, or to
--out. Use --out - to write to stdout.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "json", "export format: json, csv, bibtex, yaml, or csl")
	exportCmd.Flags().String("out", "", "output file (default: generated name; - for stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.handler.ExportLibrary(ctx, format)
	if err != nil {
		return err
	}

	if out == "-" {
		_, err := os.Stdout.Write(res.Data)
		return err
	}
	if out == "" {
		out = res.Filename
	}
	if err := os.WriteFile(out, res.Data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Exported to %s\n", out)
	return nil
}
