package tools

import (
	"fmt"
	"math"
)

// FieldError describes one validation problem on one argument.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationResult is either valid with a coerced copy of the declared
// arguments, or invalid with every accumulated field error. It is never
// persisted; callers consume it once.
type ValidationResult struct {
	Args   map[string]any
	Errors []FieldError
}

// Valid reports whether validation passed.
func (r ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// Validate checks raw arguments against the spec's declared fields.
//
// Missing required fields and kind mismatches are both reported, and all
// problems are accumulated so a caller can report every error in one pass.
// Fields not declared in the spec are ignored. The returned copy contains
// only declared fields; optional fields absent from raw stay absent.
func Validate(spec Spec, raw map[string]any) ValidationResult {
	result := ValidationResult{Args: make(map[string]any, len(spec.Args))}

	for _, arg := range spec.Args {
		val, present := raw[arg.Name]
		if !present {
			if arg.Required {
				result.Errors = append(result.Errors, FieldError{
					Field:  arg.Name,
					Reason: "required argument missing",
				})
			}
			continue
		}

		coerced, err := coerce(arg.Kind, val)
		if err != nil {
			result.Errors = append(result.Errors, FieldError{
				Field:  arg.Name,
				Reason: err.Error(),
			})
			continue
		}
		result.Args[arg.Name] = coerced
	}

	if !result.Valid() {
		result.Args = nil
	}
	return result
}

// coerce checks the runtime kind of val against the declared kind.
// JSON decoding yields float64 for every number, so an integral float64
// is accepted as an integer. No range or format checks are performed.
func coerce(kind Kind, val any) (any, error) {
	switch kind {
	case KindString:
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", val)
		}
		return s, nil

	case KindInteger:
		switch n := val.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("expected integer, got fractional number %v", n)
			}
			return int(n), nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", val)
		}

	case KindBoolean:
		b, ok := val.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", val)
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}
