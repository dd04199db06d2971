package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/sourceplane/datachain/internal/config"
	"github.com/sourceplane/datachain/internal/ctxlog"
	"github.com/spf13/cobra"
)

var (
	workspaceFile string
	productsDir   string
	logLevel      string
	logFormat     string
	outputFile    string
	outputFormat  string
	debugMode     bool
	longFormat    bool
	viewPlan      string
	changedOnly   bool
	baseBranch    string
	metricsFile   string
)

var rootCmd = &cobra.Command{
	Use:   "datachain",
	Short: "Data product compiler: chains → execution plan",
	Long:  "datachain compiles declarative data-product chains into linear execution graphs and renders a plan an external scheduler can traverse",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains([]string{"debug", "info", "warn", "error"}, logLevel) {
			return fmt.Errorf("invalid --log-level %q: expected debug, info, warn or error", logLevel)
		}
		if !slices.Contains([]string{"text", "json"}, logFormat) {
			return fmt.Errorf("invalid --log-format %q: expected text or json", logFormat)
		}

		logger := ctxlog.New(logLevel, logFormat, os.Stderr)
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspaceFile, "workspace", "w", config.DefaultWorkspaceFile, "Workspace file (optional unless given explicitly)")
	rootCmd.PersistentFlags().StringVarP(&productsDir, "products", "p", "", "Products directory, overrides the workspace (use * or ** for recursive scanning)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text/json)")

	registerPlanCommand(rootCmd)
	registerRunCommand(rootCmd)
	registerValidateCommand(rootCmd)
	registerDebugCommand(rootCmd)
	registerKindsCommand(rootCmd)
	registerChainsCommand(rootCmd)
}
