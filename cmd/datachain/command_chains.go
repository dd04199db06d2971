package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourceplane/datachain/internal/metrics"
	"github.com/sourceplane/datachain/internal/planner"
	"github.com/spf13/cobra"
)

var chainsCmd = &cobra.Command{
	Use:     "chains [chain-name]",
	Aliases: []string{"chain"},
	Short:   "List and inspect chains",
	Long:    "List every chain with its product and step count. Use 'datachain chains <name>' for the compiled execution order.",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listChains(cmd.Context(), args)
	},
}

func registerChainsCommand(root *cobra.Command) {
	root.AddCommand(chainsCmd)

	chainsCmd.Flags().BoolVar(&changedOnly, "changed", false, "Show only chains of changed products (requires git)")
	chainsCmd.Flags().StringVar(&baseBranch, "base", "main", "Base branch for change detection")
	chainsCmd.Flags().BoolVarP(&longFormat, "long", "l", false, "Show detailed information")
}

func listChains(ctx context.Context, args []string) error {
	fmt.Println("□ Loading products...")
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

	products, err = selectProducts(ctx, changeDetector(), products)
	if err != nil {
		return err
	}
	if changedOnly && len(products) == 0 {
		fmt.Println("✓ No products have changed")
		return nil
	}

	compiled, err := planner.NewChainPlanner(metrics.NewRegistry()).Plan(ctx, products)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		for _, cc := range compiled {
			if cc.Graph.Chain == args[0] {
				printChainDetails(cc)
				return nil
			}
		}
		return fmt.Errorf("chain not found: %s", args[0])
	}

	if len(compiled) == 0 {
		fmt.Println("No chains found")
		return nil
	}

	fmt.Println("\nChains:")
	for _, cc := range compiled {
		if longFormat {
			printChainDetails(cc)
		} else {
			fmt.Printf("  %s (product: %s, steps: %d, source: %s)\n",
				cc.Graph.Chain, cc.Product, len(cc.Graph.Nodes), cc.Source)
		}
	}

	if !longFormat {
		fmt.Println("\nRun 'datachain chain <name>' for detailed information")
	}
	return nil
}

func printChainDetails(cc *planner.CompiledChain) {
	fmt.Printf("\n[Chain] %s\n", cc.Graph.Chain)
	fmt.Printf("  Product:    %s\n", cc.Product)
	fmt.Printf("  Source:     %s\n", cc.Source)
	if cc.Chain.Description != "" {
		fmt.Printf("  Description: %s\n", cc.Chain.Description)
	}

	fmt.Printf("  Order (%d):\n", len(cc.Order))
	for i, id := range cc.Order {
		node, _ := cc.Graph.Node(id)
		fmt.Printf("    %d. %s (%s)\n", i+1, id, node.Step.Kind)
		if len(node.Step.Inputs) > 0 {
			fmt.Printf("       in:  %s\n", strings.Join(node.Step.Inputs, ", "))
		}
		if len(node.Step.Outputs) > 0 {
			fmt.Printf("       out: %s\n", strings.Join(node.Step.Outputs, ", "))
		}
	}

	if len(cc.Chain.Assets) > 0 {
		fmt.Printf("  Assets (%d):\n", len(cc.Chain.Assets))
		for _, asset := range cc.Chain.Assets {
			fmt.Printf("    %s: type=%s, provided=%v\n", asset.Name, asset.Type, asset.Provided)
		}
	}
}
