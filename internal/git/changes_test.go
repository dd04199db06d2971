package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGit answers git invocations from a table keyed by the joined args.
// Missing keys fail like an unknown revision would.
func fakeGit(responses map[string]string, calls *[]string) CommandRunner {
	return func(_ context.Context, args ...string) ([]byte, error) {
		key := strings.Join(args, " ")
		if calls != nil {
			*calls = append(*calls, key)
		}
		out, ok := responses[key]
		if !ok {
			return nil, errors.New("fatal: bad revision")
		}
		return []byte(out), nil
	}
}

func TestGetChangedFiles_CombinesSources(t *testing.T) {
	cd := NewChangeDetectorWithRunner("main", fakeGit(map[string]string{
		"diff --name-only":          "products/dau.yaml\n",
		"diff --cached --name-only": "products/tc.hcl\nproducts/dau.yaml\n",
		"diff --name-only main":     "datachain.yaml\n",
	}, nil))

	files, err := cd.GetChangedFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"datachain.yaml", "products/dau.yaml", "products/tc.hcl"}, files)
}

func TestGetChangedFiles_Fallbacks(t *testing.T) {
	t.Run("origin branch", func(t *testing.T) {
		cd := NewChangeDetectorWithRunner("develop", fakeGit(map[string]string{
			"diff --name-only origin/develop": "products/dau.yaml\n",
		}, nil))

		files, err := cd.GetChangedFiles(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"products/dau.yaml"}, files)
	})

	t.Run("merge base", func(t *testing.T) {
		var calls []string
		cd := NewChangeDetectorWithRunner("", fakeGit(map[string]string{
			"merge-base HEAD origin/main": "abc123\n",
			"diff --name-only abc123":     "products/tc.hcl\n",
		}, &calls))

		files, err := cd.GetChangedFiles(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"products/tc.hcl"}, files)
		assert.Contains(t, calls, "merge-base --fork-point main")
	})

	t.Run("nothing changed", func(t *testing.T) {
		cd := NewChangeDetectorWithRunner("main", fakeGit(map[string]string{}, nil))

		files, err := cd.GetChangedFiles(context.Background())
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestChangedPaths(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)

	cd := NewChangeDetectorWithRunner("main", fakeGit(map[string]string{
		"rev-parse --show-toplevel": root + "\n",
		"diff --name-only main":     "products/aws/dau_aws.yaml\n",
	}, nil))

	changed, err := cd.ChangedPaths(context.Background(), []string{
		filepath.Join("products", "aws", "dau_aws.yaml"),
		filepath.Join("products", "local", "tc.hcl"),
		filepath.Join(root, "products", "aws", "dau_aws.yaml"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("products", "aws", "dau_aws.yaml"),
		filepath.Join(root, "products", "aws", "dau_aws.yaml"),
	}, changed)

	ok, err := cd.IsFileChanged(context.Background(), filepath.Join("products", "local", "tc.hcl"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChangedPaths_NotARepository(t *testing.T) {
	cd := NewChangeDetectorWithRunner("main", fakeGit(map[string]string{}, nil))

	_, err := cd.ChangedPaths(context.Background(), []string{"products/dau.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to locate git repository")
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
