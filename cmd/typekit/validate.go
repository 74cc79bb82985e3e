package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/typekit/adapters/sqlite"
	"github.com/artpar/typekit/core/loader"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and schemas before deployment",
	Long: `Validate the typekit configuration and all schema directories.

Checks:
  - YAML syntax of config and schema files
  - Field names, indexes and type-parameter arity per template
  - All non-generic templates resolve, including recursive references
  - Database is writable (optional)

Examples:
  typekit validate
  typekit validate --config /etc/typekit/config.yaml`,
	RunE: runValidate,
}

var validateCheckDatabase bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check if database is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config valid\n", checkMark)

	for _, dir := range cfg.Schema.Dirs {
		if _, err := os.Stat(dir); err != nil {
			fmt.Printf("  %s Schema dir: %s\n", crossMark, dir)
			return fmt.Errorf("schema dir: %w", err)
		}
		fmt.Printf("  %s Schema dir: %s\n", checkMark, dir)
	}

	reg, err := loader.Load(cfg.Schema.Dirs, nil)
	if err != nil {
		fmt.Printf("  %s Schemas resolve\n", crossMark)
		return fmt.Errorf("schema error: %w", err)
	}
	fmt.Printf("  %s Schemas resolve\n", checkMark)
	fmt.Printf("  %s Templates registered: %d\n", checkMark, len(reg.Templates()))
	fmt.Printf("  %s Concrete types resolved: %d\n", checkMark, reg.ResolvedCount())

	generics := 0
	for _, tpl := range reg.Templates() {
		if len(tpl.TypeParams) > 0 {
			generics++
		}
	}
	if generics > 0 {
		fmt.Printf("  %s Generic templates (resolved on demand): %d\n", checkMark, generics)
	}

	if validateCheckDatabase {
		if err := checkDatabaseWritable(cfg.Database.DSN); err != nil {
			fmt.Printf("  %s Database writable\n", crossMark)
			fmt.Printf("      Error: %v\n", err)
		} else {
			fmt.Printf("  %s Database writable\n", checkMark)
		}
	}

	fmt.Println()
	fmt.Println("Schemas are valid.")
	return nil
}

func checkDatabaseWritable(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate()
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
