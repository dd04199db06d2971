package main

import (
	"fmt"
	"strings"

	"github.com/sourceplane/datachain/internal/model"
	"github.com/sourceplane/datachain/internal/normalize"
	"github.com/spf13/cobra"
)

var kindsCmd = &cobra.Command{
	Use:     "kinds [kind]",
	Aliases: []string{"kind"},
	Short:   "List built-in step kinds",
	Long:    "List the step kinds whose params are resolved into declared inputs and outputs. Use 'datachain kinds <kind>' for details.",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listKinds(args)
	},
}

func registerKindsCommand(root *cobra.Command) {
	root.AddCommand(kindsCmd)

	kindsCmd.Flags().BoolVarP(&longFormat, "long", "l", false, "Show detailed information")
}

func listKinds(args []string) error {
	if len(args) > 0 {
		spec, exists := normalize.LookupKind(model.Kind(args[0]))
		if !exists {
			return fmt.Errorf("kind not found: %s", args[0])
		}
		printKindDetails(spec)
		return nil
	}

	fmt.Println("Available Kinds:")
	for _, spec := range normalize.Kinds() {
		if longFormat {
			printKindDetails(spec)
		} else {
			fmt.Printf("  %-22s  %s\n", spec.Kind, spec.Description)
		}
	}

	if !longFormat {
		fmt.Println("\nRun 'datachain kind <name>' for detailed information")
	}
	return nil
}

func printKindDetails(spec normalize.KindSpec) {
	fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("Kind: %s\n", spec.Kind)
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	fmt.Printf("Description:\n  %s\n\n", spec.Description)

	printParams := func(title string, params []string) {
		if len(params) == 0 {
			return
		}
		fmt.Printf("%s:\n", title)
		for _, p := range params {
			fmt.Printf("  • %s\n", p)
		}
		fmt.Printf("\n")
	}

	printParams("Required Params", spec.Required)
	printParams("Input Params (consume an asset)", spec.InputParams)
	printParams("Output Params (produce an asset)", spec.OutputParams)
	printParams("Reference Params (name an existing asset)", spec.RefParams)

	var example []string
	for _, p := range spec.Required {
		example = append(example, fmt.Sprintf("%s: <%s>", p, p))
	}
	fmt.Printf("Example:\n  - name: my_step\n    kind: %s\n    params: {%s}\n\n", spec.Kind, strings.Join(example, ", "))
}
