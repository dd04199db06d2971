package compiler

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sourceplane/datachain/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(name string, inputs, outputs []string) model.WorkStep {
	return model.WorkStep{Name: name, Inputs: inputs, Outputs: outputs}
}

func s3Chain() model.Chain {
	return model.Chain{
		Name: "chainname",
		Steps: []model.WorkStep{
			step("download", nil, []string{"file"}),
			step("upload", []string{"file"}, []string{"s3_object"}),
			step("catalog", []string{"s3_object"}, nil),
		},
	}
}

func TestCompile_LinearChain(t *testing.T) {
	g, err := Compile(s3Chain())
	require.NoError(t, err)

	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Edges, 2)
	assert.Equal(t, "chainname", g.Chain)
	assert.Equal(t, "chainname.0.download", g.Nodes[0].ID)
	assert.Equal(t, "chainname.1.upload", g.Nodes[1].ID)
	assert.Equal(t, "chainname.2.catalog", g.Nodes[2].ID)
	assert.Equal(t, []model.Edge{
		{From: "chainname.0.download", To: "chainname.1.upload"},
		{From: "chainname.1.upload", To: "chainname.2.catalog"},
	}, g.Edges)

	order, err := TopologicalOrder(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"chainname.0.download", "chainname.1.upload", "chainname.2.catalog"}, order)
}

func TestCompile_SingleStep(t *testing.T) {
	g, err := Compile(model.Chain{Name: "tc", Steps: []model.WorkStep{step("upload", nil, []string{"s3"})}})
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Edges)

	order, err := TopologicalOrder(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"tc.0.upload"}, order)
}

func TestCompile_InputFromEarlierStep(t *testing.T) {
	// the query consumes the location declared two steps back
	chain := model.Chain{
		Name: "dau_aws",
		Steps: []model.WorkStep{
			step("download", nil, []string{"file"}),
			step("upload", []string{"file"}, []string{"s3_object"}),
			step("crawler", nil, []string{"table"}),
			step("query", []string{"table", "s3_object"}, nil),
		},
	}
	g, err := Compile(chain)
	require.NoError(t, err)
	assert.Len(t, g.Edges, 3)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		chain    model.Chain
		sentinel error
		check    func(t *testing.T, err error)
	}{
		{
			name:     "empty chain",
			chain:    model.Chain{Name: "empty"},
			sentinel: ErrEmptyChain,
			check: func(t *testing.T, err error) {
				var target *EmptyChainError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "empty", target.Chain)
			},
		},
		{
			name: "duplicate step names",
			chain: model.Chain{Name: "dup", Steps: []model.WorkStep{
				step("x", nil, nil),
				step("y", nil, nil),
				step("x", nil, nil),
			}},
			sentinel: ErrDuplicateStepName,
			check: func(t *testing.T, err error) {
				var target *DuplicateStepNameError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "x", target.Step)
				assert.Equal(t, 0, target.First)
				assert.Equal(t, 2, target.Second)
			},
		},
		{
			name: "unmet input",
			chain: model.Chain{Name: "deps", Steps: []model.WorkStep{
				step("A", nil, nil),
				step("B", []string{"file"}, nil),
			}},
			sentinel: ErrDependency,
			check: func(t *testing.T, err error) {
				var target *DependencyError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "B", target.Step)
				assert.Equal(t, "file", target.Input)
				assert.Contains(t, err.Error(), `"B"`)
				assert.Contains(t, err.Error(), `"file"`)
			},
		},
		{
			name: "input produced only by a later step",
			chain: model.Chain{Name: "late", Steps: []model.WorkStep{
				step("query", []string{"table"}, nil),
				step("crawler", nil, []string{"table"}),
			}},
			sentinel: ErrDependency,
		},
		{
			name: "step consuming its own output",
			chain: model.Chain{Name: "self", Steps: []model.WorkStep{
				step("loop", []string{"file"}, []string{"file"}),
			}},
			sentinel: ErrDependency,
		},
		{
			name:     "empty step name",
			chain:    model.Chain{Name: "anon", Steps: []model.WorkStep{step("", nil, nil)}},
			sentinel: ErrInvalidChain,
		},
		{
			name:     "empty chain name",
			chain:    model.Chain{Steps: []model.WorkStep{step("a", nil, nil)}},
			sentinel: ErrInvalidChain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Compile(tt.chain)
			require.Error(t, err)
			assert.Nil(t, g)
			assert.True(t, errors.Is(err, tt.sentinel), "expected %v, got %v", tt.sentinel, err)
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestCompile_Deterministic(t *testing.T) {
	first, err := Compile(s3Chain())
	require.NoError(t, err)
	second, err := Compile(s3Chain())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("compile is not deterministic (-first +second):\n%s", diff)
	}
}

func TestCompile_DoesNotAliasInput(t *testing.T) {
	chain := s3Chain()
	chain.Steps[0].Params = map[string]string{"url": "https://example.com/a.csv"}

	g, err := Compile(chain)
	require.NoError(t, err)

	chain.Steps[0].Params["url"] = "changed"
	chain.Steps[1].Inputs[0] = "changed"

	assert.Equal(t, "https://example.com/a.csv", g.Nodes[0].Step.Params["url"])
	assert.Equal(t, []string{"file"}, g.Nodes[1].Step.Inputs)
}
