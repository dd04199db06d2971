package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sourceplane/datachain/internal/runner"
	"github.com/sourceplane/datachain/internal/schema"
	"github.com/spf13/cobra"
)

var (
	runPlanFile string
	runChains   []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Walk a compiled plan in execution order",
	Long:  "Walk the chains of a generated plan file in execution order and print each step. Steps are not executed; an external scheduler does that.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlan(cmd.Context())
	},
}

func registerRunCommand(root *cobra.Command) {
	root.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runPlanFile, "plan", "plan.json", "Path to plan file (json or yaml)")
	runCmd.Flags().StringSliceVar(&runChains, "chain", nil, "Only walk these chains (repeatable)")
}

func runPlan(ctx context.Context) error {
	plan, err := runner.LoadPlan(runPlanFile)
	if err != nil {
		return err
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return err
	}
	if err := validator.ValidatePlan(plan); err != nil {
		return fmt.Errorf("plan %s failed schema validation: %w", runPlanFile, err)
	}
	if len(plan.Chains) == 0 {
		return fmt.Errorf("plan contains no chains")
	}

	fmt.Println("□ Dry-run: steps are printed, not executed")

	r := runner.NewRunner(os.Stdout, nil)
	if err := r.Run(ctx, plan, runChains...); err != nil {
		return err
	}

	fmt.Println("✓ Dry-run complete")
	return nil
}
