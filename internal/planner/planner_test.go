package planner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sourceplane/datachain/internal/compiler"
	"github.com/sourceplane/datachain/internal/ctxlog"
	"github.com/sourceplane/datachain/internal/metrics"
	"github.com/sourceplane/datachain/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

func counter(t *testing.T, vec *prometheus.CounterVec, label string) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, vec.WithLabelValues(label).Write(&metric))
	return metric.GetCounter().GetValue()
}

func linearChain(name string, steps int) model.Chain {
	chain := model.Chain{Name: name}
	for i := 0; i < steps; i++ {
		step := model.WorkStep{Name: fmt.Sprintf("s%d", i), Outputs: []string{fmt.Sprintf("r%d", i)}}
		if i > 0 {
			step.Inputs = []string{fmt.Sprintf("r%d", i-1)}
		}
		chain.Steps = append(chain.Steps, step)
	}
	return chain
}

func TestPlan_SortsByChainName(t *testing.T) {
	reg := metrics.NewRegistry()
	cp := NewChainPlanner(reg)

	products := []*model.Product{
		{Name: "user_count", Source: "products/user_count.yaml", Chains: []model.Chain{linearChain("user_count", 2)}},
		{Name: "dau", Source: "products/dau.hcl", Chains: []model.Chain{linearChain("dau", 3), linearChain("dau_backfill", 1)}},
	}

	compiled, err := cp.Plan(testContext(), products)
	require.NoError(t, err)
	require.Len(t, compiled, 3)

	assert.Equal(t, "dau", compiled[0].Graph.Chain)
	assert.Equal(t, "dau_backfill", compiled[1].Graph.Chain)
	assert.Equal(t, "user_count", compiled[2].Graph.Chain)

	assert.Equal(t, "dau", compiled[0].Product)
	assert.Equal(t, "products/dau.hcl", compiled[0].Source)
	assert.Equal(t, []string{"dau.0.s0", "dau.1.s1", "dau.2.s2"}, compiled[0].Order)
	assert.Equal(t, "user_count", compiled[2].Product)

	assert.Equal(t, 3.0, counter(t, reg.ChainsCompiledTotal, "success"))
}

func TestPlan_DuplicateChainAcrossProducts(t *testing.T) {
	cp := NewChainPlanner(metrics.NewRegistry())

	products := []*model.Product{
		{Name: "dau", Source: "a.yaml", Chains: []model.Chain{linearChain("shared", 1)}},
		{Name: "dau_aws", Source: "b.yaml", Chains: []model.Chain{linearChain("shared", 1)}},
	}

	_, err := cp.Plan(testContext(), products)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate chain name "shared"`)
	assert.Contains(t, err.Error(), "a.yaml")
	assert.Contains(t, err.Error(), "b.yaml")
}

func TestCheckChainNames(t *testing.T) {
	products := []*model.Product{
		{Name: "dau", Source: "a.yaml", Chains: []model.Chain{linearChain("dau", 1)}},
		{Name: "tc", Source: "b.yaml", Chains: []model.Chain{linearChain("tc", 1), linearChain("tc_daily", 1)}},
	}
	require.NoError(t, CheckChainNames(products))
	require.NoError(t, CheckChainNames(nil))

	products = append(products, &model.Product{Name: "tc_aws", Source: "c.yaml", Chains: []model.Chain{linearChain("tc_daily", 1)}})
	err := CheckChainNames(products)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate chain name "tc_daily"`)
	assert.Contains(t, err.Error(), "product tc (b.yaml)")
	assert.Contains(t, err.Error(), "product tc_aws (c.yaml)")
}

func TestPlan_OrderErrorCountedOnce(t *testing.T) {
	orig := orderGraph
	t.Cleanup(func() { orderGraph = orig })
	orderGraph = func(g *model.Graph) ([]string, error) {
		return nil, &compiler.MalformedGraphError{Chain: g.Chain, Reason: "cycle"}
	}

	reg := metrics.NewRegistry()
	products := []*model.Product{{Name: "p", Chains: []model.Chain{linearChain("c", 2)}}}

	_, err := NewChainPlanner(reg).Plan(testContext(), products)
	require.Error(t, err)

	var malformed *compiler.MalformedGraphError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, err.Error(), "failed to order chain c")

	assert.Equal(t, 0.0, counter(t, reg.ChainsCompiledTotal, "success"))
	assert.Equal(t, 1.0, counter(t, reg.ChainsCompiledTotal, "error"))
	assert.Equal(t, 1.0, counter(t, reg.CompileErrorsTotal, "malformed_graph"))
}

func TestPlan_CompileErrorIsTyped(t *testing.T) {
	reg := metrics.NewRegistry()
	cp := NewChainPlanner(reg)

	broken := model.Chain{Name: "broken", Steps: []model.WorkStep{
		{Name: "upload", Inputs: []string{"file"}},
	}}
	products := []*model.Product{{Name: "p", Chains: []model.Chain{broken}}}

	_, err := cp.Plan(testContext(), products)
	require.Error(t, err)

	var depErr *compiler.DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "upload", depErr.Step)
	assert.Equal(t, "file", depErr.Input)
	assert.Contains(t, err.Error(), "failed to compile chain broken")

	assert.Equal(t, 1.0, counter(t, reg.CompileErrorsTotal, "dependency"))
	assert.Equal(t, 1.0, counter(t, reg.ChainsCompiledTotal, "error"))
}

func TestCompileAll_PreservesInputOrder(t *testing.T) {
	cp := NewChainPlanner(metrics.NewRegistry())

	var chains []model.Chain
	for i := 0; i < 50; i++ {
		chains = append(chains, linearChain(fmt.Sprintf("chain%02d", i), i%5+1))
	}

	compiled, err := cp.CompileAll(testContext(), chains)
	require.NoError(t, err)
	require.Len(t, compiled, len(chains))
	for i, cc := range compiled {
		assert.Equal(t, chains[i].Name, cc.Graph.Chain)
		assert.Equal(t, chains[i].Name, cc.Chain.Name)
		assert.Len(t, cc.Graph.Nodes, len(chains[i].Steps))
		assert.Len(t, cc.Order, len(chains[i].Steps))
		assert.Empty(t, cc.Product)
	}
}

func TestCompileAll_Empty(t *testing.T) {
	compiled, err := NewChainPlanner(metrics.NewRegistry()).CompileAll(testContext(), nil)
	require.NoError(t, err)
	assert.Empty(t, compiled)
}

func TestCompileAll_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext())
	cancel()

	_, err := NewChainPlanner(metrics.NewRegistry()).CompileAll(ctx, []model.Chain{linearChain("a", 1)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&compiler.EmptyChainError{Chain: "c"}, "empty_chain"},
		{&compiler.InvalidChainError{Chain: "c", Step: -1, Reason: "chain name is empty"}, "invalid_chain"},
		{&compiler.DuplicateStepNameError{Chain: "c", Step: "x", First: 0, Second: 1}, "duplicate_step_name"},
		{&compiler.DependencyError{Chain: "c", Step: "b", Input: "file"}, "dependency"},
		{&compiler.MalformedGraphError{Chain: "c", Reason: "cycle"}, "malformed_graph"},
		{fmt.Errorf("wrapped: %w", &compiler.EmptyChainError{}), "empty_chain"},
		{errors.New("boom"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, errorReason(tt.err))
		})
	}
}
