package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/artpar/typekit/config"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "typekit",
	Short: "Runtime structural type registry for YAML-defined schemas",
	Long: `Typekit resolves YAML type templates into concrete struct types at
runtime, with generic instantiation, recursive references and a JSON codec.

Quick start:
  typekit validate    # Parse and resolve all schema dirs
  typekit inspect     # Print a resolved type
  typekit watch       # Resolve and hot-reload on schema changes

Management:
  typekit sync        # Persist templates to the database
  typekit fingerprint # Print structural fingerprints`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "typekit.yaml", "config file path")
}

func loadConfig() (*config.Config, error) {
	return config.LoadWithFallback(cfgFile)
}

func setupLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
