package main

import (
	"context"
	"fmt"

	"github.com/sourceplane/datachain/internal/metrics"
	"github.com/sourceplane/datachain/internal/planner"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the workspace and every product",
	Long:  "Load, schema-check and normalize every product, then compile each chain without writing a plan.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateProducts(cmd.Context())
	},
}

func registerValidateCommand(root *cobra.Command) {
	root.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug output")
}

func validateProducts(ctx context.Context) error {
	fmt.Println("□ Validating workspace...")
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}
	fmt.Println("✓ Workspace is valid")

	fmt.Println("□ Validating products...")
	docs, err := loadProducts(ws)
	if err != nil {
		return err
	}
	if debugMode {
		for _, doc := range docs {
			fmt.Printf("  %s (%s)\n", doc.Metadata.Name, doc.Source)
		}
	}
	fmt.Printf("✓ %d products match the schema\n", len(docs))

	fmt.Println("□ Normalizing products...")
	products, err := normalizeProducts(ws, docs)
	if err != nil {
		return fmt.Errorf("normalization failed: %w", err)
	}

	fmt.Println("□ Compiling chains...")
	compiled, err := planner.NewChainPlanner(metrics.NewRegistry()).Plan(ctx, products)
	if err != nil {
		return err
	}

	fmt.Printf("✓ All validation passed (%d chains)\n", len(compiled))
	return nil
}
