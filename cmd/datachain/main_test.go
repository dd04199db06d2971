package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sourceplane/datachain/internal/runner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exampleWorkspace = filepath.Join("..", "..", "examples", "datachain.yaml")

func execute(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

// resetFlags restores every flag of cmd and its subcommands to its default,
// since flag variables are package-level and outlive a single Execute
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestPlanAndRunExamples(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "plan.yaml")

	require.NoError(t, execute(t, "plan", "--workspace", exampleWorkspace, "--output", planPath, "--view", "dag", "--log-level", "warn"))

	plan, err := runner.LoadPlan(planPath)
	require.NoError(t, err)

	var names []string
	for _, chain := range plan.Chains {
		names = append(names, chain.Name)
	}
	assert.Equal(t, []string{"dau", "dau_aws", "tc", "user_count", "user_count_aws"}, names)

	dauAWS := plan.Chains[1]
	assert.Equal(t, []string{
		"dau_aws.0.download", "dau_aws.1.upload", "dau_aws.2.crawler", "dau_aws.3.query",
	}, dauAWS.Order)
	assert.Equal(t, "daily_active_users-crawler", dauAWS.Nodes[2].Params["name"])

	tc := plan.Chains[2]
	require.Len(t, tc.Nodes, 1)
	assert.Empty(t, tc.Nodes[0].Inputs, "provided assets are not inputs")

	require.NoError(t, execute(t, "run", "--plan", planPath, "--chain", "tc"))
}

func TestValidateExamples(t *testing.T) {
	require.NoError(t, execute(t, "validate", "--workspace", exampleWorkspace))
}

func TestKinds(t *testing.T) {
	require.NoError(t, execute(t, "kinds", "upload_file_to_s3"))
	assert.Error(t, execute(t, "kinds", "no_such_kind"))
}

func TestChains(t *testing.T) {
	require.NoError(t, execute(t, "chains", "--workspace", exampleWorkspace, "dau_aws"))
	assert.Error(t, execute(t, "chains", "--workspace", exampleWorkspace, "missing"))
}

func TestInvalidLogLevel(t *testing.T) {
	err := execute(t, "kinds", "--log-level", "verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --log-level")
}

func TestFlagsDoNotLeakBetweenRuns(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, execute(t, "plan", "--workspace", exampleWorkspace, "--output", planPath, "--log-level", "warn"))

	require.NoError(t, execute(t, "run", "--plan", planPath, "--chain", "tc"))
	assert.Equal(t, []string{"tc"}, runChains)

	require.NoError(t, execute(t, "run", "--plan", planPath, "--chain", "dau"))
	assert.Equal(t, []string{"dau"}, runChains)

	require.NoError(t, execute(t, "kinds"))
	assert.Empty(t, runChains)
	assert.Equal(t, "plan.json", runPlanFile)
	assert.Equal(t, "info", logLevel)
	assert.False(t, rootCmd.PersistentFlags().Changed("workspace"))
}

func TestMissingExplicitWorkspace(t *testing.T) {
	err := execute(t, "validate", "--workspace", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load workspace")
}
