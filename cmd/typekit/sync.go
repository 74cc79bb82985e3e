package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/typekit/adapters/sqlite"
	"github.com/artpar/typekit/core/loader"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Persist schema templates to the database",
	Long: `Load all schema dirs, validate them and write every template to the
configured database. With --check, report drift between the stored
templates and the schema files without writing anything.

Examples:
  typekit sync
  typekit sync --check`,
	RunE: runSync,
}

var syncCheck bool

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncCheck, "check", false, "report drift without writing")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := loader.Load(cfg.Schema.Dirs, nil)
	if err != nil {
		return err
	}
	templates := reg.Templates()

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	store := sqlite.NewTemplateStore(db)
	ctx := context.Background()

	if syncCheck {
		drifted, err := store.Drifted(ctx, templates)
		if err != nil {
			return err
		}
		if len(drifted) == 0 {
			fmt.Println("No drift: stored templates match schema files.")
			return nil
		}
		for _, name := range drifted {
			fmt.Printf("  %s %s\n", crossMark, name)
		}
		return fmt.Errorf("%d template(s) drifted", len(drifted))
	}

	if err := store.SaveAll(ctx, templates); err != nil {
		return err
	}
	fmt.Printf("Synced %d template(s) to %s.\n", len(templates), cfg.Database.DSN)
	return nil
}
