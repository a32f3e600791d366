package tool

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError reports why a set of arguments does not satisfy a schema.
type ValidationError struct {
	Parameter string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Parameter, e.Reason)
}

// CoerceArguments validates args against the schema and returns a copy with
// every value coerced to its declared type.
//
// Coercion table, per declared type:
//
//	string  — strings pass through; numeric and boolean scalars are rendered
//	          with their natural formatting
//	integer — int64 from any integer kind, from a float with no fractional
//	          part, or from a base-10 numeric string
//	number  — float64 from any numeric kind or numeric string
//	boolean — bool, or the strings "true"/"false"
//
// Unknown arguments are dropped; a missing required parameter or a value
// that cannot be coerced yields a ValidationError.
func CoerceArguments(args map[string]any, schema ParameterSchema) (map[string]any, error) {
	coerced := make(map[string]any, len(schema.Properties))

	for name, prop := range schema.Properties {
		raw, ok := args[name]
		if !ok {
			if prop.Default != nil {
				coerced[name] = prop.Default
			}
			continue
		}
		value, err := coerceValue(raw, prop.Type)
		if err != nil {
			return nil, &ValidationError{Parameter: name, Reason: err.Error()}
		}
		coerced[name] = value
	}

	for _, required := range schema.Required {
		if _, ok := coerced[required]; !ok {
			return nil, &ValidationError{Parameter: required, Reason: "required parameter missing"}
		}
	}

	return coerced, nil
}

func coerceValue(raw any, declared string) (any, error) {
	switch declared {
	case "string", "":
		switch v := raw.(type) {
		case string:
			return v, nil
		case bool:
			return strconv.FormatBool(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case int:
			return strconv.Itoa(v), nil
		}
		return nil, fmt.Errorf("cannot use %T as string", raw)

	case "integer":
		switch v := raw.(type) {
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case float64:
			if v != float64(int64(v)) {
				return nil, fmt.Errorf("value %v has a fractional part", v)
			}
			return int64(v), nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as integer", v)
			}
			return n, nil
		}
		return nil, fmt.Errorf("cannot use %T as integer", raw)

	case "number":
		switch v := raw.(type) {
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case float64:
			return v, nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as number", v)
			}
			return f, nil
		}
		return nil, fmt.Errorf("cannot use %T as number", raw)

	case "boolean":
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true":
				return true, nil
			case "false":
				return false, nil
			}
			return nil, fmt.Errorf("cannot parse %q as boolean", v)
		}
		return nil, fmt.Errorf("cannot use %T as boolean", raw)
	}

	return nil, fmt.Errorf("unsupported declared type %q", declared)
}
