package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/artpar/typekit/core/loader"
	"github.com/artpar/typekit/core/registry"
	"github.com/artpar/typekit/core/schema"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint [type-expr...]",
	Short: "Print structural fingerprints of resolved types",
	Long: `Print the structural fingerprint of each given type expression, or of
every non-generic template when no arguments are given.

Fingerprints are stable across field reordering of unrelated templates and
change whenever a type's resolved structure changes, so they are suitable
for schema drift detection in CI.`,
	RunE: runFingerprint,
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := loader.Load(cfg.Schema.Dirs, nil)
	if err != nil {
		return err
	}

	exprs := args
	if len(exprs) == 0 {
		for _, tpl := range reg.Templates() {
			if len(tpl.TypeParams) == 0 {
				exprs = append(exprs, tpl.SerialName)
			}
		}
		sort.Strings(exprs)
	}

	for _, expr := range exprs {
		ref, err := schema.ParseTypeExpr(expr)
		if err != nil {
			return err
		}
		t, err := reg.ResolveType(ref)
		if err != nil {
			return err
		}
		st, ok := t.(registry.StructType)
		if !ok {
			return fmt.Errorf("%s is not a struct type", expr)
		}
		fmt.Printf("%s  %s\n", st.Of().Fingerprint(), expr)
	}
	return nil
}
