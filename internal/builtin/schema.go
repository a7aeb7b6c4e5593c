// Package builtin ships the plugins bundled with strand. They cover the
// schema component type; everything else is expected to come from
// user-registered plugins and extensions.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zjrosen/strand/internal/component"
	"github.com/zjrosen/strand/internal/plugin"
)

// schemaEmission is the compiled form of a schema component. Maps marshal
// with sorted keys, so the emission is deterministic.
type schemaEmission struct {
	Schema     string         `json:"schema"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

// SchemaPlugin returns the bundled schema plugin. Compilation emits a JSON
// document describing the schema; validation checks that every required
// property is actually defined.
func SchemaPlugin() plugin.Plugin {
	return plugin.Plugin{
		Name:       "schema-core",
		Version:    "1.0.0",
		Types:      []component.Type{component.TypeSchema},
		OnCompile:  compileSchema,
		OnValidate: validateSchema,
	}
}

// compileSchema emits the schema as JSON. Upstream output is left alone so
// user extensions can take over emission entirely.
func compileSchema(ctx context.Context, c component.Component, code string) (string, error) {
	if code != "" {
		return code, nil
	}

	emission := schemaEmission{
		Schema:     c.Name,
		Properties: properties(c),
		Required:   required(c),
	}
	out, err := json.MarshalIndent(emission, "", "  ")
	if err != nil {
		return "", fmt.Errorf("emit schema %s: %w", c.Name, err)
	}
	return string(out), nil
}

// validateSchema checks that the required list only names defined properties.
func validateSchema(ctx context.Context, c component.Component, result component.ValidationResult) (component.ValidationResult, error) {
	props := properties(c)
	for _, name := range required(c) {
		if _, ok := props[name]; !ok {
			result.IsValid = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("schema %s: required property not defined: %s", c.Name, name))
		}
	}
	return result, nil
}

func properties(c component.Component) map[string]any {
	props, _ := c.Definition["properties"].(map[string]any)
	return props
}

// required accepts both the []any YAML decoding produces and the []string a
// programmatically built component carries.
func required(c component.Component) []string {
	switch raw := c.Definition["required"].(type) {
	case []string:
		return raw
	case []any:
		names := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}
