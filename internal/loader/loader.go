package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sourceplane/datachain/internal/model"
	"gopkg.in/yaml.v3"
)

// LoadProduct loads a product document, choosing the parser by extension
func LoadProduct(path string) (*model.ProductDocument, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return LoadProductYAML(path)
	case ".hcl":
		return LoadProductHCL(path)
	default:
		return nil, fmt.Errorf("unsupported product file %s: expected .yaml, .yml or .hcl", path)
	}
}

// LoadProductYAML loads and parses a product YAML file
func LoadProductYAML(path string) (*model.ProductDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read product file: %w", err)
	}

	var doc model.ProductDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse product YAML %s: %w", path, err)
	}
	doc.Source = path

	return &doc, nil
}

// LoadProductsFromDir loads every product file under a directory path.
// Supports glob patterns for recursive search:
//   - Exact path: non-recursive, only files directly inside the directory
//   - Path with * or **: every directory the glob matches is walked recursively
//
// Example paths:
//   - "products" - products/*.yaml, products/*.hcl
//   - "products/*" - everything below each subdirectory of products
//
// Documents are returned sorted by source path.
func LoadProductsFromDir(dir string) ([]*model.ProductDocument, error) {
	files, err := FindProductFiles(dir)
	if err != nil {
		return nil, err
	}

	docs := make([]*model.ProductDocument, 0, len(files))
	for _, file := range files {
		doc, err := LoadProduct(file)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// FindProductFiles resolves dir (exact or glob) into a sorted list of product files
func FindProductFiles(dir string) ([]string, error) {
	isRecursive := strings.Contains(dir, "*")

	var searchPaths []string
	if isRecursive {
		// filepath.Glob treats ** like *, so the walk below provides the depth
		matches, err := filepath.Glob(strings.ReplaceAll(dir, "**", "*"))
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate glob pattern %s: %w", dir, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("glob pattern %s matched nothing", dir)
		}
		searchPaths = matches
	} else {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to access products directory %s: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("products path is not a directory: %s", dir)
		}
		searchPaths = []string{dir}
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if isProductFile(path) && !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, basePath := range searchPaths {
		if !isRecursive {
			entries, err := os.ReadDir(basePath)
			if err != nil {
				return nil, fmt.Errorf("failed to read directory %s: %w", basePath, err)
			}
			for _, entry := range entries {
				if !entry.IsDir() {
					add(filepath.Join(basePath, entry.Name()))
				}
			}
			continue
		}

		err := filepath.WalkDir(basePath, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk directory %s: %w", basePath, err)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no product files found in %s", dir)
	}

	sort.Strings(files)
	return files, nil
}

func isProductFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".hcl":
		return true
	}
	return false
}
