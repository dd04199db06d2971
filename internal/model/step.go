package model

// Kind tags a step's operational category (download, upload, catalog registration, query ...).
// It is informational only; nothing in the compiler branches on it.
type Kind string

// WorkStep is a single unit of work inside a chain
type WorkStep struct {
	Name    string            `yaml:"name" json:"name"`
	Kind    Kind              `yaml:"kind,omitempty" json:"kind,omitempty"`
	Inputs  []string          `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs []string          `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Params  map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
}

// Clone returns a deep copy of the step
func (s WorkStep) Clone() WorkStep {
	out := WorkStep{
		Name:    s.Name,
		Kind:    s.Kind,
		Inputs:  cloneStrings(s.Inputs),
		Outputs: cloneStrings(s.Outputs),
	}
	if s.Params != nil {
		out.Params = make(map[string]string, len(s.Params))
		for k, v := range s.Params {
			out.Params[k] = v
		}
	}
	return out
}

// Chain is an ordered list of work steps meant to run as a linear pipeline.
// Assets lists the resources its steps reference; the compiler ignores it.
type Chain struct {
	Name        string
	Description string
	Steps       []WorkStep
	Assets      []AssetSpec
}

// Product is the normalized form of a product document: every chain is
// resolved down to steps with declared inputs and outputs.
type Product struct {
	Name        string
	Description string
	Source      string // file the product was loaded from
	Chains      []Chain
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
