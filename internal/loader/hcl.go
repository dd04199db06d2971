package loader

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/sourceplane/datachain/internal/model"
)

// hclProduct is the top-level shape of a product written in HCL:
//
//	name = "tc"
//	asset "tc_csv" { type = "file" }
//	chain "tc" {
//	  step "upload" {
//	    kind   = "upload_file_to_s3"
//	    params = { file = "tc_csv", s3_object = "tc_s3" }
//	  }
//	}
type hclProduct struct {
	APIVersion  string            `hcl:"api_version,optional"`
	Name        string            `hcl:"name"`
	Description string            `hcl:"description,optional"`
	Vars        map[string]string `hcl:"vars,optional"`
	Assets      []*hclAsset       `hcl:"asset,block"`
	Chains      []*hclChain       `hcl:"chain,block"`
}

type hclAsset struct {
	Name     string            `hcl:"name,label"`
	Type     string            `hcl:"type"`
	Provided bool              `hcl:"provided,optional"`
	Params   map[string]string `hcl:"params,optional"`
}

type hclChain struct {
	Name        string     `hcl:"name,label"`
	Description string     `hcl:"description,optional"`
	Steps       []*hclStep `hcl:"step,block"`
}

type hclStep struct {
	Name    string            `hcl:"name,label"`
	Kind    string            `hcl:"kind"`
	Params  map[string]string `hcl:"params,optional"`
	Inputs  []string          `hcl:"inputs,optional"`
	Outputs []string          `hcl:"outputs,optional"`
}

// LoadProductHCL loads and decodes a product HCL file
func LoadProductHCL(path string) (*model.ProductDocument, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse product HCL %s: %w", path, diags)
	}

	var root hclProduct
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode product HCL %s: %w", path, diags)
	}

	return root.toDocument(path), nil
}

func (p *hclProduct) toDocument(path string) *model.ProductDocument {
	apiVersion := p.APIVersion
	if apiVersion == "" {
		apiVersion = "datachain.sourceplane.io/v1"
	}

	doc := &model.ProductDocument{
		APIVersion: apiVersion,
		Kind:       "DataProduct",
		Metadata:   model.Metadata{Name: p.Name, Description: p.Description},
		Vars:       p.Vars,
		Source:     path,
	}

	for _, a := range p.Assets {
		doc.Assets = append(doc.Assets, model.AssetSpec{Name: a.Name, Type: a.Type, Provided: a.Provided, Params: a.Params})
	}

	for _, c := range p.Chains {
		chain := model.ChainSpec{Name: c.Name, Description: c.Description}
		for _, s := range c.Steps {
			chain.Steps = append(chain.Steps, model.StepSpec{
				Name:    s.Name,
				Kind:    s.Kind,
				Params:  s.Params,
				Inputs:  s.Inputs,
				Outputs: s.Outputs,
			})
		}
		doc.Chains = append(doc.Chains, chain)
	}

	return doc
}
