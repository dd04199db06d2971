package main

import (
	"context"
	"fmt"

	"github.com/sourceplane/datachain/internal/config"
	"github.com/sourceplane/datachain/internal/ctxlog"
	"github.com/sourceplane/datachain/internal/git"
	"github.com/sourceplane/datachain/internal/loader"
	"github.com/sourceplane/datachain/internal/model"
	"github.com/sourceplane/datachain/internal/normalize"
	"github.com/sourceplane/datachain/internal/planner"
	"github.com/sourceplane/datachain/internal/schema"
)

// loadWorkspace reads the workspace file and applies flag overrides. The
// default workspace file may be absent; an explicit --workspace must exist.
func loadWorkspace() (*config.Workspace, error) {
	explicit := rootCmd.PersistentFlags().Changed("workspace")
	ws, err := config.LoadWorkspaceOrDefault(workspaceFile, explicit)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}

	if productsDir != "" {
		// flag paths are relative to the working directory
		ws.Spec.Products = productsDir
		ws.Dir = ""
	}
	return ws, nil
}

// loadProducts loads every product document the workspace points at and
// checks each against the product schema
func loadProducts(ws *config.Workspace) ([]*model.ProductDocument, error) {
	docs, err := loader.LoadProductsFromDir(ws.ProductsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load products from %s: %w", ws.ProductsPath(), err)
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if err := validator.ValidateProduct(doc); err != nil {
			return nil, fmt.Errorf("product %s failed schema validation: %w", doc.Source, err)
		}
	}

	return docs, nil
}

// normalizeProducts resolves every document against the workspace
func normalizeProducts(ws *config.Workspace, docs []*model.ProductDocument) ([]*model.Product, error) {
	n := normalize.NewNormalizer(ws)
	products := make([]*model.Product, 0, len(docs))
	for _, doc := range docs {
		product, err := n.NormalizeProduct(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize product: %w", err)
		}
		products = append(products, product)
	}
	return products, nil
}

// selectProducts checks chain names across every product, then narrows to
// changed products when detector is non-nil
func selectProducts(ctx context.Context, detector *git.ChangeDetector, products []*model.Product) ([]*model.Product, error) {
	if err := planner.CheckChainNames(products); err != nil {
		return nil, err
	}
	if detector == nil {
		return products, nil
	}

	filtered, err := filterChanged(ctx, detector, products)
	if err != nil {
		return nil, fmt.Errorf("failed to detect changes: %w", err)
	}
	return filtered, nil
}

// changeDetector returns a detector for --changed, or nil when the flag is off
func changeDetector() *git.ChangeDetector {
	if !changedOnly {
		return nil
	}
	return git.NewChangeDetector(baseBranch)
}

// filterChanged keeps products whose source file changed. A changed
// workspace file affects every product.
func filterChanged(ctx context.Context, detector *git.ChangeDetector, products []*model.Product) ([]*model.Product, error) {
	logger := ctxlog.FromContext(ctx)

	workspaceChanged, err := detector.IsFileChanged(ctx, workspaceFile)
	if err != nil {
		return nil, err
	}
	if workspaceChanged {
		logger.Info("workspace file changed, planning every product", "workspace", workspaceFile)
		return products, nil
	}

	sources := make([]string, 0, len(products))
	for _, product := range products {
		sources = append(sources, product.Source)
	}
	changed, err := detector.ChangedPaths(ctx, sources)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool, len(changed))
	for _, path := range changed {
		keep[path] = true
	}

	var filtered []*model.Product
	for _, product := range products {
		if keep[product.Source] {
			filtered = append(filtered, product)
		}
	}
	logger.Debug("filtered products by change", "total", len(products), "changed", len(filtered))
	return filtered, nil
}
