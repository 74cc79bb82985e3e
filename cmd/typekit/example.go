package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/typekit/core/codec"
	"github.com/artpar/typekit/core/loader"
	"github.com/artpar/typekit/core/registry"
	"github.com/artpar/typekit/core/sample"
	"github.com/artpar/typekit/core/schema"
)

var exampleCmd = &cobra.Command{
	Use:   "example <type-expr>",
	Short: "Print an example JSON document for a type",
	Long: `Generate a deterministic example value for a type expression and print
it as JSON. Useful for documentation and for seeding golden files.

Examples:
  typekit example User
  typekit example "Box<Uuid>" --seed 7`,
	Args: cobra.ExactArgs(1),
	RunE: runExample,
}

var exampleSeed int64

func init() {
	rootCmd.AddCommand(exampleCmd)

	exampleCmd.Flags().Int64Var(&exampleSeed, "seed", 1, "random seed")
}

func runExample(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("%s is not a struct type", args[0])
	}

	v, err := sample.New(exampleSeed).Value(st.Of())
	if err != nil {
		return err
	}
	data, err := codec.Encode(v)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return err
	}
	fmt.Println(pretty.String())
	return nil
}
