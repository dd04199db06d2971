package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Debug product normalization",
	RunE: func(cmd *cobra.Command, args []string) error {
		return debugProducts()
	},
}

func registerDebugCommand(root *cobra.Command) {
	root.AddCommand(debugCmd)
}

func debugProducts() error {
	fmt.Println("□ Loading and normalizing...")
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	docs, err := loadProducts(ws)
	if err != nil {
		return err
	}

	products, err := normalizeProducts(ws, docs)
	if err != nil {
		return err
	}

	fmt.Printf("\nWorkspace: %+v\n", ws.Metadata)
	fmt.Printf("Products dir: %s\n", ws.ProductsPath())
	fmt.Printf("Vars: %v\n", ws.Spec.Vars)
	fmt.Printf("Shared assets: %d\n", len(ws.Spec.Assets))
	for _, asset := range ws.Spec.Assets {
		fmt.Printf("  - %s: type=%s, provided=%v\n", asset.Name, asset.Type, asset.Provided)
	}

	fmt.Printf("Products: %d\n", len(products))
	for _, product := range products {
		fmt.Printf("  - %s: source=%s, chains=%d\n", product.Name, product.Source, len(product.Chains))
		for _, chain := range product.Chains {
			fmt.Printf("    chain %s: steps=%d, assets=%d\n", chain.Name, len(chain.Steps), len(chain.Assets))
			for _, step := range chain.Steps {
				fmt.Printf("      %s (%s) in=[%s] out=[%s]\n",
					step.Name, step.Kind, strings.Join(step.Inputs, ", "), strings.Join(step.Outputs, ", "))
			}
		}
	}

	return nil
}
