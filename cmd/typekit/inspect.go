package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/typekit/core/loader"
	"github.com/artpar/typekit/core/registry"
	"github.com/artpar/typekit/core/schema"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <type-expr>",
	Short: "Print a resolved concrete type",
	Long: `Resolve a type expression against the configured schema dirs and print
the concrete type's fields.

Generic templates take fully-specified arguments:

  typekit inspect User
  typekit inspect "Box<Long>"
  typekit inspect "Map<String, Node>"`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := loader.Load(cfg.Schema.Dirs, nil)
	if err != nil {
		return err
	}

	ref, err := schema.ParseTypeExpr(args[0])
	if err != nil {
		return err
	}

	t, err := reg.ResolveType(ref)
	if err != nil {
		return err
	}

	st, ok := t.(registry.StructType)
	if !ok {
		fmt.Printf("%s (built-in)\n", t)
		return nil
	}

	ct := st.Of()
	fmt.Printf("%s\n", ct)
	fmt.Printf("  fingerprint: %s\n\n", ct.Fingerprint())
	for _, f := range ct.Fields() {
		line := fmt.Sprintf("  %-20s %s", f.Name, f.Type)
		if f.Optional {
			line += "  (optional)"
		}
		fmt.Println(line)
	}
	return nil
}
