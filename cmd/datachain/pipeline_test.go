package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/sourceplane/datachain/internal/ctxlog"
	"github.com/sourceplane/datachain/internal/git"
	"github.com/sourceplane/datachain/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// changedRepo chdirs into a fresh repository root whose diff against main
// lists changed, and points the workspace flag at datachain.yaml in it
func changedRepo(t *testing.T, changed ...string) *git.ChangeDetector {
	t.Helper()
	root := t.TempDir()
	chdir(t, root)

	prev := workspaceFile
	workspaceFile = "datachain.yaml"
	t.Cleanup(func() { workspaceFile = prev })

	responses := map[string]string{
		"rev-parse --show-toplevel": root + "\n",
		"diff --name-only main":     strings.Join(changed, "\n") + "\n",
	}
	return git.NewChangeDetectorWithRunner("main", func(_ context.Context, args ...string) ([]byte, error) {
		out, ok := responses[strings.Join(args, " ")]
		if !ok {
			return nil, errors.New("fatal: bad revision")
		}
		return []byte(out), nil
	})
}

func pipelineContext() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

func testProduct(name, source string, chains ...string) *model.Product {
	p := &model.Product{Name: name, Source: source}
	for _, chain := range chains {
		p.Chains = append(p.Chains, model.Chain{Name: chain})
	}
	return p
}

func productNames(products []*model.Product) []string {
	var names []string
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}

func TestSelectProducts_KeepsChangedSources(t *testing.T) {
	detector := changedRepo(t, "products/tc.hcl")
	products := []*model.Product{
		testProduct("dau", "products/dau.yaml", "dau"),
		testProduct("tc", "products/tc.hcl", "tc"),
	}

	selected, err := selectProducts(pipelineContext(), detector, products)
	require.NoError(t, err)
	assert.Equal(t, []string{"tc"}, productNames(selected))
}

func TestSelectProducts_WorkspaceChangeSelectsAll(t *testing.T) {
	detector := changedRepo(t, "datachain.yaml")
	products := []*model.Product{
		testProduct("dau", "products/dau.yaml", "dau"),
		testProduct("tc", "products/tc.hcl", "tc"),
	}

	selected, err := selectProducts(pipelineContext(), detector, products)
	require.NoError(t, err)
	assert.Equal(t, []string{"dau", "tc"}, productNames(selected))
}

func TestSelectProducts_NothingChanged(t *testing.T) {
	detector := changedRepo(t)
	products := []*model.Product{testProduct("dau", "products/dau.yaml", "dau")}

	selected, err := selectProducts(pipelineContext(), detector, products)
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestSelectProducts_DuplicateChainInUnchangedProduct(t *testing.T) {
	// only dau_aws changed, but its chain name clashes with unchanged dau
	detector := changedRepo(t, "products/dau_aws.yaml")
	products := []*model.Product{
		testProduct("dau", "products/dau.yaml", "dau"),
		testProduct("dau_aws", "products/dau_aws.yaml", "dau"),
	}

	_, err := selectProducts(pipelineContext(), detector, products)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate chain name "dau"`)
	assert.Contains(t, err.Error(), "products/dau.yaml")
}

func TestSelectProducts_WithoutDetector(t *testing.T) {
	products := []*model.Product{
		testProduct("dau", "products/dau.yaml", "dau"),
		testProduct("tc", "products/tc.hcl", "tc"),
	}

	selected, err := selectProducts(pipelineContext(), nil, products)
	require.NoError(t, err)
	assert.Equal(t, products, selected)

	_, err = selectProducts(pipelineContext(), nil, append(products, testProduct("tc_aws", "products/tc_aws.hcl", "tc")))
	assert.Error(t, err)
}

func TestSelectProducts_GitFailure(t *testing.T) {
	detector := git.NewChangeDetectorWithRunner("main", func(context.Context, ...string) ([]byte, error) {
		return nil, errors.New("not a git repository")
	})

	_, err := selectProducts(pipelineContext(), detector, []*model.Product{testProduct("dau", "products/dau.yaml", "dau")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to detect changes")
}

// chdir changes the working directory for the duration of the test
// (stands in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
