// Package normalize turns product documents into chains of work steps with
// declared inputs and outputs, ready for the compiler.
package normalize

import (
	"fmt"
	"sort"
	"text/template"

	"github.com/go-playground/validator/v10"
	"github.com/sourceplane/datachain/internal/config"
	"github.com/sourceplane/datachain/internal/model"
)

var validate = validator.New()

// Normalizer resolves product documents against a workspace
type Normalizer struct {
	workspace     *config.Workspace
	templateCache map[string]*template.Template
}

// NewNormalizer creates a normalizer. A nil workspace means no shared assets or vars.
func NewNormalizer(ws *config.Workspace) *Normalizer {
	if ws == nil {
		ws = config.Default()
	}
	return &Normalizer{
		workspace:     ws,
		templateCache: make(map[string]*template.Template),
	}
}

// NormalizeProduct validates doc and resolves each chain's steps
func (n *Normalizer) NormalizeProduct(doc *model.ProductDocument) (*model.Product, error) {
	if doc == nil {
		return nil, fmt.Errorf("product document cannot be nil")
	}
	if err := config.FormatValidationError(validate.Struct(doc)); err != nil {
		return nil, fmt.Errorf("invalid product %s: %w", doc.Source, err)
	}

	assets, err := n.mergeAssets(doc)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        doc.Metadata.Name,
		Description: doc.Metadata.Description,
		Source:      doc.Source,
		Chains:      make([]model.Chain, 0, len(doc.Chains)),
	}

	for _, spec := range doc.Chains {
		chainName := spec.Name
		if chainName == "" {
			chainName = doc.Metadata.Name
		}

		context := templateContext(n.workspace.Spec.Vars, doc.Vars, product.Name, chainName)
		chain := model.Chain{
			Name:        chainName,
			Description: spec.Description,
			Steps:       make([]model.WorkStep, 0, len(spec.Steps)),
		}
		referenced := make(map[string]bool)
		for _, stepSpec := range spec.Steps {
			step, refs, err := n.resolveStep(stepSpec, assets, context)
			if err != nil {
				return nil, fmt.Errorf("product %s, chain %s: %w", product.Name, chainName, err)
			}
			chain.Steps = append(chain.Steps, step)
			for _, ref := range refs {
				referenced[ref] = true
			}
		}

		chain.Assets, err = n.chainAssets(referenced, assets, context)
		if err != nil {
			return nil, fmt.Errorf("product %s, chain %s: %w", product.Name, chainName, err)
		}
		product.Chains = append(product.Chains, chain)
	}

	return product, nil
}

// mergeAssets indexes workspace assets overlaid with the product's own
func (n *Normalizer) mergeAssets(doc *model.ProductDocument) (map[string]model.AssetSpec, error) {
	assets := make(map[string]model.AssetSpec, len(n.workspace.Spec.Assets)+len(doc.Assets))
	for _, asset := range n.workspace.Spec.Assets {
		assets[asset.Name] = asset
	}

	local := make(map[string]bool, len(doc.Assets))
	for _, asset := range doc.Assets {
		if local[asset.Name] {
			return nil, fmt.Errorf("product %s: asset %q declared twice", doc.Metadata.Name, asset.Name)
		}
		local[asset.Name] = true
		assets[asset.Name] = asset
	}
	return assets, nil
}

// resolveStep renders params and derives declared inputs/outputs from the
// kind catalog. Unknown kinds keep only their explicit inputs and outputs.
// It also returns every asset name the step references.
func (n *Normalizer) resolveStep(spec model.StepSpec, assets map[string]model.AssetSpec, context map[string]any) (model.WorkStep, []string, error) {
	params, err := n.renderParams(spec.Params, context, spec.Name)
	if err != nil {
		return model.WorkStep{}, nil, err
	}

	step := model.WorkStep{
		Name:   spec.Name,
		Kind:   model.Kind(spec.Kind),
		Params: params,
	}

	kind, known := LookupKind(step.Kind)
	if known {
		for _, key := range kind.Required {
			if params[key] == "" {
				return model.WorkStep{}, nil, fmt.Errorf("step %s (%s): missing required param %q", spec.Name, spec.Kind, key)
			}
		}
	}

	var refs []string
	lookup := func(key string) (model.AssetSpec, bool, error) {
		name, ok := params[key]
		if !ok {
			return model.AssetSpec{}, false, nil
		}
		asset, exists := assets[name]
		if !exists {
			return model.AssetSpec{}, false, fmt.Errorf("step %s: param %s references unknown asset %q", spec.Name, key, name)
		}
		refs = appendUnique(refs, name)
		return asset, true, nil
	}

	for _, key := range kind.RefParams {
		if _, _, err := lookup(key); err != nil {
			return model.WorkStep{}, nil, err
		}
	}
	for _, key := range kind.InputParams {
		asset, ok, err := lookup(key)
		if err != nil {
			return model.WorkStep{}, nil, err
		}
		// provided assets exist before the chain runs
		if ok && !asset.Provided {
			step.Inputs = appendUnique(step.Inputs, asset.Name)
		}
	}
	for _, key := range kind.OutputParams {
		asset, ok, err := lookup(key)
		if err != nil {
			return model.WorkStep{}, nil, err
		}
		if ok {
			step.Outputs = appendUnique(step.Outputs, asset.Name)
		}
	}

	step.Inputs = appendUnique(step.Inputs, spec.Inputs...)
	step.Outputs = appendUnique(step.Outputs, spec.Outputs...)

	for _, name := range append(append([]string{}, spec.Inputs...), spec.Outputs...) {
		if _, exists := assets[name]; exists {
			refs = appendUnique(refs, name)
		}
	}

	return step, refs, nil
}

// chainAssets returns the referenced assets sorted by name, params rendered
func (n *Normalizer) chainAssets(referenced map[string]bool, assets map[string]model.AssetSpec, context map[string]any) ([]model.AssetSpec, error) {
	names := make([]string, 0, len(referenced))
	for name := range referenced {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.AssetSpec, 0, len(names))
	for _, name := range names {
		asset := assets[name]
		params, err := n.renderParams(asset.Params, context, "asset "+name)
		if err != nil {
			return nil, err
		}
		asset.Params = params
		out = append(out, asset)
	}
	return out, nil
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range list {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}
