package runbook

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// The runbook shape is checked with a JSON Schema before any typed decoding
// happens. General settings (sim, title, global args) may live either at the
// document's top level or nested under a "general" key, so the schema is
// assembled in two variants depending on which form the document uses.

func enumOf(values []string) map[string]any {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return map[string]any{"enum": enum}
}

func argsSchema() map[string]any {
	return map[string]any{
		"type":          "object",
		"minProperties": 1,
		"propertyNames": map[string]any{"minLength": 1},
	}
}

func generalProperties() map[string]any {
	return map[string]any{
		"sim":        enumOf(Simulators),
		"title":      map[string]any{"type": "string", "minLength": 1},
		"build_args": argsSchema(),
		"test_args":  argsSchema(),
	}
}

func testbenchSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"path", "tb_top", "hdl"},
		"properties": map[string]any{
			"srcs": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "integer"},
				"minItems": 1,
			},
			"path":       map[string]any{"type": "string", "minLength": 1},
			"rtl_top":    map[string]any{"type": "string", "minLength": 1},
			"tb_top":     map[string]any{"type": "string", "minLength": 1},
			"hdl":        enumOf(HDLKinds),
			"tags":       map[string]any{"type": "array", "items": map[string]any{"type": "string", "minLength": 1}, "minItems": 1},
			"build_args": argsSchema(),
			"test_args":  argsSchema(),
		},
	}
}

// documentSchema builds the schema variant matching the document form.
func documentSchema(generalNested bool) map[string]any {
	properties := map[string]any{
		"srcs": map[string]any{
			"type":                 "object",
			"minProperties":        1,
			"propertyNames":        map[string]any{"pattern": "^[0-9]+$"},
			"additionalProperties": map[string]any{"type": "string", "minLength": 1},
		},
		"tbs": map[string]any{
			"type":                 "object",
			"minProperties":        1,
			"additionalProperties": testbenchSchema(),
		},
		"include": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string", "minLength": 1},
			"minItems": 1,
		},
	}
	required := []any{"tbs"}

	if generalNested {
		properties["general"] = map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []any{"sim"},
			"properties":           generalProperties(),
		}
		required = append(required, "general")
	} else {
		for k, v := range generalProperties() {
			properties[k] = v
		}
		required = append(required, "sim")
	}

	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"additionalProperties": false,
		"required":             required,
		"properties":           properties,
	}
}

// normalize converts a decoded YAML tree into a JSON-compatible form:
// mapping keys become strings (so srcs integer keys survive as "1", "2", ...)
// and nested containers are rewritten recursively.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}

// validateSchema checks the normalized document against the runbook schema
// and returns every field-level violation found.
func validateSchema(doc map[string]any) ([]Violation, error) {
	_, generalNested := doc["general"]

	schemaLoader := gojsonschema.NewGoLoader(documentSchema(generalNested))
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, resErr := range result.Errors() {
		violations = append(violations, Violation{
			Field:   resErr.Field(),
			Message: resErr.Description(),
		})
	}
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].Field != violations[j].Field {
			return violations[i].Field < violations[j].Field
		}
		return violations[i].Message < violations[j].Message
	})
	return violations, nil
}
