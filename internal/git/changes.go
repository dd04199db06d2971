// Package git detects which product files changed relative to a base branch.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// CommandRunner runs git with args and returns its standard output
type CommandRunner func(ctx context.Context, args ...string) ([]byte, error)

func execGit(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "git", args...).Output()
}

// ChangeDetector detects files that have changed in git
type ChangeDetector struct {
	baseBranch string // branch to compare against (e.g., "main", "develop")
	git        CommandRunner
}

// NewChangeDetector creates a change detector that shells out to git
func NewChangeDetector(baseBranch string) *ChangeDetector {
	return NewChangeDetectorWithRunner(baseBranch, execGit)
}

// NewChangeDetectorWithRunner creates a change detector using run to invoke git
func NewChangeDetectorWithRunner(baseBranch string, run CommandRunner) *ChangeDetector {
	if baseBranch == "" {
		baseBranch = "main"
	}
	return &ChangeDetector{
		baseBranch: baseBranch,
		git:        run,
	}
}

// GetChangedFiles returns repository-relative paths of files that differ from
// the base branch, combined with staged and unstaged changes. The result is
// sorted.
func (cd *ChangeDetector) GetChangedFiles(ctx context.Context) ([]string, error) {
	filesMap := make(map[string]bool)
	collect := func(output []byte) {
		for _, f := range strings.Split(strings.TrimSpace(string(output)), "\n") {
			if f != "" {
				filesMap[f] = true
			}
		}
	}

	if output, err := cd.git(ctx, "diff", "--name-only"); err == nil {
		collect(output)
	}
	if output, err := cd.git(ctx, "diff", "--cached", "--name-only"); err == nil {
		collect(output)
	}

	// Commits already pushed on a feature branch only show up against the base
	output, err := cd.git(ctx, "diff", "--name-only", cd.baseBranch)

	// The base branch may only exist on the remote in CI checkouts
	if err != nil || len(output) == 0 {
		output, err = cd.git(ctx, "diff", "--name-only", "origin/"+cd.baseBranch)
	}

	// Detached HEAD: diff against the merge base
	if err != nil || len(output) == 0 {
		if base, ok := cd.mergeBase(ctx); ok {
			output, err = cd.git(ctx, "diff", "--name-only", base)
		}
	}

	if err == nil {
		collect(output)
	}

	result := make([]string, 0, len(filesMap))
	for f := range filesMap {
		result = append(result, f)
	}
	sort.Strings(result)
	return result, nil
}

func (cd *ChangeDetector) mergeBase(ctx context.Context) (string, bool) {
	candidates := [][]string{
		{"merge-base", "--fork-point", cd.baseBranch},
		{"merge-base", "HEAD", cd.baseBranch},
		{"merge-base", "HEAD", "origin/" + cd.baseBranch},
	}
	for _, args := range candidates {
		output, err := cd.git(ctx, args...)
		if err == nil && len(strings.TrimSpace(string(output))) > 0 {
			return strings.TrimSpace(string(output)), true
		}
	}
	return "", false
}

// RepoRoot returns the top-level directory of the working tree
func (cd *ChangeDetector) RepoRoot(ctx context.Context) (string, error) {
	output, err := cd.git(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("failed to locate git repository: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// ChangedPaths returns the subset of paths (relative to the working directory
// or absolute) whose files changed. Paths are returned as given, in input order.
func (cd *ChangeDetector) ChangedPaths(ctx context.Context, paths []string) ([]string, error) {
	root, err := cd.RepoRoot(ctx)
	if err != nil {
		return nil, err
	}

	files, err := cd.GetChangedFiles(ctx)
	if err != nil {
		return nil, err
	}
	changed := make(map[string]bool, len(files))
	for _, f := range files {
		changed[filepath.ToSlash(f)] = true
	}

	var result []string
	for _, path := range paths {
		rel, err := repoRelative(root, path)
		if err != nil {
			return nil, err
		}
		if changed[rel] {
			result = append(result, path)
		}
	}
	return result, nil
}

// IsFileChanged reports whether a single file changed
func (cd *ChangeDetector) IsFileChanged(ctx context.Context, path string) (bool, error) {
	changed, err := cd.ChangedPaths(ctx, []string{path})
	if err != nil {
		return false, err
	}
	return len(changed) > 0, nil
}

func repoRelative(root, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", fmt.Errorf("failed to relate %s to repository root: %w", path, err)
	}
	return filepath.ToSlash(rel), nil
}
