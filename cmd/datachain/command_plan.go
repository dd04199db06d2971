package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sourceplane/datachain/internal/metrics"
	"github.com/sourceplane/datachain/internal/model"
	"github.com/sourceplane/datachain/internal/planner"
	"github.com/sourceplane/datachain/internal/render"
	"github.com/sourceplane/datachain/internal/schema"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compile products into an execution plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		return generatePlan(cmd.Context(), cmd.Flags().Changed("output"), cmd.Flags().Changed("format"))
	},
}

func registerPlanCommand(root *cobra.Command) {
	root.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&outputFile, "output", "o", "plan.json", "Output plan file path (default from workspace)")
	planCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format when the output path has no extension (json/yaml)")
	planCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug output")
	planCmd.Flags().StringVarP(&viewPlan, "view", "v", "", "View plan (dag/order/chain=NAME)")
	planCmd.Flags().BoolVar(&changedOnly, "changed", false, "Plan only products whose files changed (requires git)")
	planCmd.Flags().StringVar(&baseBranch, "base", "main", "Base branch for change detection")
	planCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write compile metrics in Prometheus text format to this file")
}

func generatePlan(ctx context.Context, outputSet, formatSet bool) error {
	fmt.Println("□ Loading workspace...")
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}
	if !outputSet && ws.Spec.Output != "" {
		outputFile = ws.Spec.Output
	}
	if !formatSet && ws.Spec.Format != "" {
		outputFormat = ws.Spec.Format
	}

	fmt.Println("□ Loading products...")
	docs, err := loadProducts(ws)
	if err != nil {
		return err
	}

	if debugMode {
		fmt.Printf("  Loaded %d product documents\n", len(docs))
	}

	fmt.Println("□ Normalizing products...")
	products, err := normalizeProducts(ws, docs)
	if err != nil {
		return err
	}

	if changedOnly {
		fmt.Println("□ Detecting changed products...")
	}
	products, err = selectProducts(ctx, changeDetector(), products)
	if err != nil {
		return err
	}
	if changedOnly && len(products) == 0 {
		fmt.Println("✓ No products have changed")
		return nil
	}

	fmt.Println("□ Compiling chains...")
	reg := metrics.NewRegistry()
	compiled, err := planner.NewChainPlanner(reg).Plan(ctx, products)
	if metricsFile != "" {
		// failed compilations are worth recording too
		if werr := reg.WriteTextfile(metricsFile); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}

	if debugMode {
		nodes := 0
		for _, cc := range compiled {
			nodes += len(cc.Graph.Nodes)
		}
		fmt.Printf("  Compiled %d chains, %d steps\n", len(compiled), nodes)
	}

	fmt.Println("□ Rendering plan...")
	renderer := render.NewRenderer()
	plan := renderer.RenderPlan(planMetadata(ws.Metadata), compiled)

	if debugMode {
		fmt.Println("\n" + renderer.DebugDump(plan))
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return err
	}
	if err := validator.ValidatePlan(plan); err != nil {
		return fmt.Errorf("rendered plan failed schema validation: %w", err)
	}

	if err := renderer.WritePlan(plan, outputFile, outputFormat); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}
	fmt.Printf("✓ Plan generated with %d chains\n", len(plan.Chains))
	fmt.Printf("✓ Saved to: %s\n", outputFile)

	if viewPlan != "" {
		viewer := render.NewPlanViewer(plan, os.Stdout)
		var output string

		switch {
		case viewPlan == "order":
			output = viewer.ViewOrder()
		case strings.HasPrefix(viewPlan, "chain="):
			output = viewer.ViewChain(strings.TrimPrefix(viewPlan, "chain="))
		default:
			output = viewer.ViewDAG()
		}

		fmt.Println("\n" + output)
	}

	return nil
}

func planMetadata(ws model.Metadata) model.Metadata {
	if ws.Name == "" {
		ws.Name = "datachain"
	}
	return ws
}
