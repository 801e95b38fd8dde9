package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaDocument string

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// SchemaErrors lists every schema violation found in a document.
type SchemaErrors []error

func (se SchemaErrors) Error() string {
	if len(se) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("config does not match schema: ")
	for i, err := range se {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("schema.json", strings.NewReader(schemaDocument)); err != nil {
			compileErr = fmt.Errorf("invalid schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("schema.json")
	})
	return compiledSchema, compileErr
}

// ValidateSchema checks the raw document against the embedded schema.
//
// YAML documents are converted to their JSON form first, so integer node ids
// become string keys.
func ValidateSchema(data []byte, file string) error {
	sch, err := schema()
	if err != nil {
		return err
	}

	doc, err := toJSONValue(data, file)
	if err != nil {
		return err
	}

	if err := sch.Validate(doc); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			return extractSchemaErrors(verr)
		}
		return err
	}
	return nil
}

func toJSONValue(data []byte, file string) (interface{}, error) {
	var raw interface{}
	if strings.ToLower(filepath.Ext(file)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
		return raw, nil
	}

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	b, err := json.Marshal(normalize(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to convert config: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to convert config: %w", err)
	}
	return doc, nil
}

// normalize turns yaml maps with non-string keys into string-keyed maps.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

func extractSchemaErrors(err *jsonschema.ValidationError) SchemaErrors {
	var errs SchemaErrors
	if len(err.Causes) == 0 && err.Message != "" {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		errs = append(errs, fmt.Errorf("%s: %s", loc, err.Message))
	}
	for _, cause := range err.Causes {
		errs = append(errs, extractSchemaErrors(cause)...)
	}
	return errs
}
