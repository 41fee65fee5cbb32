package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"
)

// Request body schemas, by file name without extension.
const (
	schemaToggleAnomaly  = "toggle_anomaly"
	schemaRootCause      = "root_cause"
	schemaGenerate       = "generate"
	schemaCreateStack    = "create_stack"
	schemaInvokeEndpoint = "invoke_endpoint"
)

//go:embed schemas/*.yaml
var schemaFS embed.FS

var (
	schemaOnce sync.Once
	schemaErr  error
	schemas    map[string]*jsonschema.Schema
)

func loadSchemas() (map[string]*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		entries, err := schemaFS.ReadDir("schemas")
		if err != nil {
			schemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		urls := map[string]string{}
		for _, e := range entries {
			raw, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
			if err != nil {
				schemaErr = err
				return
			}
			doc, err := yaml.YAMLToJSON(raw)
			if err != nil {
				schemaErr = fmt.Errorf("convert %s to json: %w", e.Name(), err)
				return
			}
			name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
			url := "mem://schemas/" + name + ".json"
			if err := compiler.AddResource(url, bytes.NewReader(doc)); err != nil {
				schemaErr = fmt.Errorf("add schema %s: %w", name, err)
				return
			}
			urls[name] = url
		}
		compiled := make(map[string]*jsonschema.Schema, len(urls))
		for name, url := range urls {
			sch, err := compiler.Compile(url)
			if err != nil {
				schemaErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			compiled[name] = sch
		}
		schemas = compiled
	})
	return schemas, schemaErr
}

// validateBody checks a JSON body against the named schema. Failures wrap
// ErrBadRequest and name the first offending field.
func validateBody(name string, body []byte) error {
	all, err := loadSchemas()
	if err != nil {
		return err
	}
	sch, ok := all[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: invalid json: %v", ErrBadRequest, err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrBadRequest, describeValidation(err))
	}
	return nil
}

// describeValidation reduces a validation error to its deepest cause.
func describeValidation(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}
