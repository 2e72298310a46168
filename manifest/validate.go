package manifest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var manifestSchema []byte

var (
	compiledSchema *gojsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

func getSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		loader := gojsonschema.NewBytesLoader(manifestSchema)
		compiledSchema, compileErr = gojsonschema.NewSchema(loader)
	})
	return compiledSchema, compileErr
}

// Validate checks serialized manifest YAML against the manifest schema.
// It returns a slice of validation problem descriptions (empty when valid)
// and an error if the document cannot be checked at all.
func Validate(yamlData []byte) ([]string, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(yamlData, &doc); err != nil {
		return nil, fmt.Errorf("parsing manifest for validation: %w", err)
	}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting manifest to JSON: %w", err)
	}

	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling manifest schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("validating manifest: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}
