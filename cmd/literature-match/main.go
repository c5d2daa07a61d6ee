// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the literature-match CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/literature-match/internal/config"
	"github.com/pdiddy/literature-match/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is the effective configuration, loaded before any subcommand runs.
var cfg *types.Config

// rootCmd is the base command for the literature-match CLI.
var rootCmd = &cobra.Command{
	Use:   "literature-match",
	Short: "Resolve citations in a document to citekeys in a Zotero library",
	Long: `literature-match maps extracted references to the citekeys of a Zotero
library exported through Better BibTeX. Exact identifiers (DOI, arXiv, URL)
match deterministically; the rest are ranked by title similarity and either
matched, handed to an adjudicator, or flagged for review.

The match command writes match_result.json; apply-decisions folds external
adjudications back into it. The library subcommands keep a local SQLite
snapshot so matching can run without Zotero.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Decode(viper.GetViper())
		if err != nil {
			return err
		}
		return config.InitLogger(cfg.Log)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./literature-match.yaml or ~/.config/literature-match/literature-match.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("store", "", "snapshot database path")
	rootCmd.PersistentFlags().String("library-cache", "", "Better BibTeX JSON export file (overrides the endpoint)")
	rootCmd.PersistentFlags().String("zotero-endpoint", "", "Better BibTeX export URL")
	rootCmd.PersistentFlags().Duration("timeout", 0, "library fetch timeout")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("library.cache_path", rootCmd.PersistentFlags().Lookup("library-cache"))
	_ = viper.BindPFlag("library.endpoint", rootCmd.PersistentFlags().Lookup("zotero-endpoint"))
	_ = viper.BindPFlag("library.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	config.Setup(viper.GetViper(), cfgFile)

	used, err := config.ReadFile(viper.GetViper())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
