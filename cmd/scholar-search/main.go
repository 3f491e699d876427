// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scholar-search CLI. It queries
// several scholarly search APIs at once, merges and ranks what they return,
// and exports the results.
package main

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-search/internal/observability"
	"github.com/pdiddy/scholar-search/internal/secrets"
	"github.com/pdiddy/scholar-search/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the resolved configuration, filled before any subcommand runs.
	cfg types.Config

	// logger writes structured logs to stderr.
	logger = zerolog.Nop()

	// keys holds provider credentials from .secrets/ and the environment.
	keys secrets.Keys
)

// rootCmd is the base command for the scholar-search CLI.
var rootCmd = &cobra.Command{
	Use:   "scholar-search",
	Short: "Search PubMed, Semantic Scholar, Europe PMC, OpenAlex, PLOS, and arXiv at once",
	Long: `scholar-search sends one query to several scholarly search APIs in
parallel, merges the records that describe the same work, fills in missing
abstracts and citation counts from OpenAlex, and ranks the merged list by
keyword relevance and citations.

Results can be printed as a table or exported as CSV, JSON, a text report,
CSL-YAML, or a reloadable YAML query file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			cfg.Logging.Level = "debug"
		}
		logger = observability.NewLogger(cfg.Logging)
		if configFileUsed != "" {
			logger.Debug().Str("file", configFileUsed).Msg("using config file")
		}

		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(secretsDir, logger)
		if err != nil {
			return err
		}
		keys = keysFromEnv(viper.GetViper()).Merge(secrets.KeysFrom(s))
		if len(s) > 0 {
			names := make([]string, 0, len(s))
			for k := range s {
				names = append(names, k)
			}
			sort.Strings(names)
			logger.Debug().Strs("secrets", names).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scholar-search.yaml or ~/.config/scholar-search/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of API key files")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug details to stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scholar-search")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scholar-search"))
		}
	}

	configureEnv(viper.GetViper())
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		configFileUsed = viper.ConfigFileUsed()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
