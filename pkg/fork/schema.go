package fork

import (
	"encoding/json"
	"fmt"
)

// validateAgainstSchema checks value against a minimal JSON-schema subset:
// type, required, properties, and items. It is deliberately structural;
// format and numeric-range keywords are ignored.
func validateAgainstSchema(value any, schema map[string]any, path string) error {
	if len(schema) == 0 {
		return nil
	}
	wantType, _ := schema["type"].(string)
	if wantType == "" {
		return nil
	}

	switch wantType {
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return &SchemaValidationError{Path: path, Reason: fmt.Sprintf("expected object, got %T", value)}
		}
		required, _ := schema["required"].([]any)
		for _, raw := range required {
			field, _ := raw.(string)
			if _, present := obj[field]; !present {
				return &SchemaValidationError{Path: path + "." + field, Reason: "required field missing"}
			}
		}
		properties, _ := schema["properties"].(map[string]any)
		for field, rawPropSchema := range properties {
			propSchema, _ := rawPropSchema.(map[string]any)
			propValue, present := obj[field]
			if !present {
				continue
			}
			if err := validateAgainstSchema(propValue, propSchema, path+"."+field); err != nil {
				return err
			}
		}
	case "array":
		arr, ok := value.([]any)
		if !ok {
			return &SchemaValidationError{Path: path, Reason: fmt.Sprintf("expected array, got %T", value)}
		}
		items, _ := schema["items"].(map[string]any)
		if items != nil {
			for i, elem := range arr {
				if err := validateAgainstSchema(elem, items, fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
		}
	case "string":
		if _, ok := value.(string); !ok {
			return &SchemaValidationError{Path: path, Reason: fmt.Sprintf("expected string, got %T", value)}
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return &SchemaValidationError{Path: path, Reason: fmt.Sprintf("expected boolean, got %T", value)}
		}
	case "number", "integer":
		if !isNumeric(value) {
			return &SchemaValidationError{Path: path, Reason: fmt.Sprintf("expected %s, got %T", wantType, value)}
		}
	}
	return nil
}

func isNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, json.Number:
		return true
	}
	return false
}
