// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-library CLI. The same
// binary serves the browser extension (serve) and manages the library
// from the shell.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-library/internal/logger"
	"github.com/pdiddy/paper-library/internal/secrets"
	"github.com/pdiddy/paper-library/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is decoded from viper in PersistentPreRunE.
	cfg types.Config

	log = logger.Nop()
)

// rootCmd is the base command for the paper-library CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-library",
	Short: "Local research paper library with clustering and related-work discovery",
	Long: `paper-library keeps a local library of analyzed research papers. Uploaded
PDFs are analyzed by a remote service (or stored as minimal records when it
is unavailable), grouped into topic clusters, and used to discover related
work on arXiv, Semantic Scholar, and OpenAlex.

Run "paper-library serve" to expose the library to the browser extension;
the other subcommands operate on the same store from the shell.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("decoding config: %w", err)
		}

		l, err := logger.New(cfg.Log.Mode)
		if err != nil {
			return err
		}
		log = l

		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(secretsDir, log)
		if err != nil {
			return err
		}
		secrets.Apply(&cfg, s)
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-library.yaml or ~/.config/paper-library/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of secret files (one value per file)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides storage.path)")
	rootCmd.PersistentFlags().String("log-mode", "", "log mode: dev or prod (overrides log.mode)")

	_ = viper.BindPFlag("storage.path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("log.mode", rootCmd.PersistentFlags().Lookup("log-mode"))

	setDefaults(viper.GetViper())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-library")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-library"))
		}
	}

	viper.SetEnvPrefix("PAPER_LIBRARY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
