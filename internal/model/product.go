package model

// ProductDocument is the declarative form of a data product (k8s-style envelope)
type ProductDocument struct {
	APIVersion string            `yaml:"apiVersion" json:"apiVersion" validate:"required"`
	Kind       string            `yaml:"kind" json:"kind" validate:"required,eq=DataProduct"`
	Metadata   Metadata          `yaml:"metadata" json:"metadata"`
	Vars       map[string]string `yaml:"vars,omitempty" json:"vars,omitempty"`
	Assets     []AssetSpec       `yaml:"assets,omitempty" json:"assets,omitempty" validate:"dive"`
	Chains     []ChainSpec       `yaml:"chains" json:"chains" validate:"required,min=1,dive"`

	// Source is the file the document was read from
	Source string `yaml:"-" json:"-"`
}

// Metadata holds standard object metadata
type Metadata struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// AssetSpec declares an external resource steps read or write: a local file,
// an S3 object, a catalog table, a query. Params are opaque to the compiler.
// A provided asset already exists before any chain runs, so consuming it
// does not require an earlier step to produce it.
type AssetSpec struct {
	Name     string            `yaml:"name" json:"name" validate:"required"`
	Type     string            `yaml:"type" json:"type" validate:"required"`
	Provided bool              `yaml:"provided,omitempty" json:"provided,omitempty"`
	Params   map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
}

// ChainSpec is a named, ordered list of steps
type ChainSpec struct {
	Name        string     `yaml:"name,omitempty" json:"name,omitempty"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []StepSpec `yaml:"steps" json:"steps" validate:"required,min=1,dive"`
}

// StepSpec is a step as written in a product document
type StepSpec struct {
	Name    string            `yaml:"name" json:"name" validate:"required"`
	Kind    string            `yaml:"kind" json:"kind" validate:"required"`
	Params  map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
	Inputs  []string          `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs []string          `yaml:"outputs,omitempty" json:"outputs,omitempty"`
}
