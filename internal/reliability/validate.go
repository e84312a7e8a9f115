package reliability

import "fmt"

// Schema describes the expected shape of a handler input. It checks
// required presence, a primitive type tag, and required nested
// properties, enough to reject malformed input before paying the retry
// cost.
type Schema struct {
	Required   bool              `json:"required,omitempty"`
	Type       string            `json:"type,omitempty"` // string, number, boolean, object, array
	Properties map[string]Schema `json:"properties,omitempty"`
}

// ValidationResult reports the outcome of ValidateInput without raising.
type ValidationResult struct {
	Valid bool   `json:"is_valid"`
	Error string `json:"error,omitempty"`
}

// ValidateInput checks value against schema. It never panics and never
// returns an error value; malformed input yields Valid=false with a
// human-readable reason.
func ValidateInput(value any, schema Schema) ValidationResult {
	if err := validate(value, schema, ""); err != nil {
		return ValidationResult{Valid: false, Error: err.Error()}
	}
	return ValidationResult{Valid: true}
}

func validate(value any, schema Schema, path string) error {
	if value == nil {
		if schema.Required {
			return fmt.Errorf("%s is required", fieldName(path))
		}
		return nil
	}

	if schema.Type != "" && !matchesType(value, schema.Type) {
		return fmt.Errorf("%s must be of type %s", fieldName(path), schema.Type)
	}

	if len(schema.Properties) > 0 {
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%s must be an object", fieldName(path))
		}
		for name, sub := range schema.Properties {
			child, present := obj[name]
			if !present || child == nil {
				if sub.Required {
					return fmt.Errorf("%s is required", fieldName(joinPath(path, name)))
				}
				continue
			}
			if err := validate(child, sub, joinPath(path, name)); err != nil {
				return err
			}
		}
	}

	return nil
}

func matchesType(value any, typeName string) bool {
	switch typeName {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		switch value.(type) {
		case []any:
			return true
		}
		return false
	default:
		// Unknown type tags are not enforced.
		return true
	}
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func fieldName(path string) string {
	if path == "" {
		return "value"
	}
	return path
}
