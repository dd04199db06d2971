// Package schema validates product and plan documents against embedded JSON schemas.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed *.schema.yaml
var embeddedSchemas embed.FS

// Validator handles JSON schema validation
type Validator struct {
	productSchema *jsonschema.Schema
	planSchema    *jsonschema.Schema
}

// NewValidator compiles the embedded product and plan schemas
func NewValidator() (*Validator, error) {
	v := &Validator{}

	productSchema, err := loadSchema("product.schema.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to load product schema: %w", err)
	}
	v.productSchema = productSchema

	planSchema, err := loadSchema("plan.schema.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to load plan schema: %w", err)
	}
	v.planSchema = planSchema

	return v, nil
}

// ValidateProduct validates a product document. Any value that marshals to
// JSON is accepted, typically a *model.ProductDocument.
func (v *Validator) ValidateProduct(doc interface{}) error {
	if v.productSchema == nil {
		return fmt.Errorf("product schema not loaded")
	}
	return validate(v.productSchema, doc)
}

// ValidatePlan validates an execution plan document
func (v *Validator) ValidatePlan(plan interface{}) error {
	if v.planSchema == nil {
		return fmt.Errorf("plan schema not loaded")
	}
	return validate(v.planSchema, plan)
}

// validate checks the JSON form of value, which is what the schema describes
func validate(schema *jsonschema.Schema, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	var instance interface{}
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}

	return schema.Validate(instance)
}

// loadSchema reads an embedded YAML schema and compiles it
func loadSchema(name string) (*jsonschema.Schema, error) {
	data, err := embeddedSchemas.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	// Parse YAML to interface{}, then convert to JSON for the schema compiler
	var schemaData interface{}
	if err := yaml.Unmarshal(data, &schemaData); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	jsonData, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(jsonData)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return schema, nil
}
