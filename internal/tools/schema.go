package tools

import (
	"encoding/json"
	"fmt"
	"math"
)

// schema is the subset of JSON Schema the tool parameter declarations
// use: an object with typed properties and a required list.
type schema struct {
	Type       string                    `json:"type"`
	Properties map[string]schemaProperty `json:"properties"`
	Required   []string                  `json:"required"`
}

type schemaProperty struct {
	Type string `json:"type"`
}

// ValidateArgs checks decoded arguments against a tool's parameter
// schema: every required property must be present, and every provided
// property must have the declared type. The handler is never invoked
// when validation fails.
func ValidateArgs(parameters json.RawMessage, args Args) error {
	if len(parameters) == 0 {
		return nil
	}
	var s schema
	if err := json.Unmarshal(parameters, &s); err != nil {
		return fmt.Errorf("invalid parameter schema: %w", err)
	}

	for _, name := range s.Required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}

	for name, value := range args {
		prop, declared := s.Properties[name]
		if !declared {
			// tolerated: models occasionally invent extra keys
			continue
		}
		if err := checkType(name, prop.Type, value); err != nil {
			return err
		}
	}
	return nil
}

func checkType(name, want string, value interface{}) error {
	switch want {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("argument %q must be a string", name)
		}
	case "integer":
		f, ok := value.(float64)
		if !ok || f != math.Trunc(f) {
			return fmt.Errorf("argument %q must be an integer", name)
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("argument %q must be a number", name)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean", name)
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("argument %q must be an array", name)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("argument %q must be an object", name)
		}
	}
	return nil
}
