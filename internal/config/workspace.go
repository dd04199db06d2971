// Package config loads the workspace file: where the product definitions
// live and which assets and variables every product shares.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/sourceplane/datachain/internal/model"
	"gopkg.in/yaml.v3"
)

// DefaultWorkspaceFile is looked up in the working directory when no
// --workspace flag is given
const DefaultWorkspaceFile = "datachain.yaml"

var validate = validator.New()

// Workspace is the workspace-level configuration document
type Workspace struct {
	APIVersion string         `yaml:"apiVersion" validate:"required"`
	Kind       string         `yaml:"kind" validate:"required,eq=Workspace"`
	Metadata   model.Metadata `yaml:"metadata"`
	Spec       WorkspaceSpec  `yaml:"spec"`

	// Dir is the directory of the workspace file; relative product paths
	// resolve against it
	Dir string `yaml:"-"`
}

// WorkspaceSpec holds shared settings
type WorkspaceSpec struct {
	// Products is a directory or glob pattern (* or **) holding product files
	Products string            `yaml:"products" validate:"required"`
	Output   string            `yaml:"output,omitempty"`
	Format   string            `yaml:"format,omitempty" validate:"omitempty,oneof=json yaml"`
	Vars     map[string]string `yaml:"vars,omitempty"`
	// Assets are merged into every product; a product asset with the same name wins
	Assets []model.AssetSpec `yaml:"assets,omitempty" validate:"dive"`
}

// Default returns the workspace used when no workspace file exists
func Default() *Workspace {
	return &Workspace{
		APIVersion: "datachain.sourceplane.io/v1",
		Kind:       "Workspace",
		Spec: WorkspaceSpec{
			Products: "products",
			Output:   "plan.json",
			Format:   "json",
		},
	}
}

// LoadWorkspace reads and validates a workspace file
func LoadWorkspace(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace file: %w", err)
	}

	ws := Default()
	if err := yaml.Unmarshal(data, ws); err != nil {
		return nil, fmt.Errorf("failed to parse workspace YAML: %w", err)
	}

	if err := ws.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workspace %s: %w", path, err)
	}
	ws.Dir = filepath.Dir(path)

	seen := make(map[string]bool, len(ws.Spec.Assets))
	for _, asset := range ws.Spec.Assets {
		if seen[asset.Name] {
			return nil, fmt.Errorf("invalid workspace %s: asset %q declared twice", path, asset.Name)
		}
		seen[asset.Name] = true
	}

	return ws, nil
}

// LoadWorkspaceOrDefault loads path, falling back to Default when the file
// does not exist and explicit is false
func LoadWorkspaceOrDefault(path string, explicit bool) (*Workspace, error) {
	ws, err := LoadWorkspace(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return ws, err
}

// ProductsPath returns the products directory or glob, resolved against the
// workspace directory when relative
func (w *Workspace) ProductsPath() string {
	if w.Dir == "" || filepath.IsAbs(w.Spec.Products) {
		return w.Spec.Products
	}
	return filepath.Join(w.Dir, w.Spec.Products)
}

// Validate checks struct constraints
func (w *Workspace) Validate() error {
	return FormatValidationError(validate.Struct(w))
}

// FormatValidationError converts validator errors to a "Field: message" form
func FormatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must have at least %s entries", field, e.Param())
		case "eq":
			return fmt.Errorf("%s: must be %q", field, e.Param())
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, e.Param())
		default:
			return fmt.Errorf("%s: failed %s validation", field, e.Tag())
		}
	}

	return err
}
