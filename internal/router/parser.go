// Package router turns one model response into one dispatched action.
//
// The model is asked to pick a single action from the registry catalog and
// answer with strict JSON. The parser extracts that decision; the dispatcher
// validates it against the registry and runs the callable.
package router

import (
	"encoding/json"
	"fmt"

	"gapaudit/internal/jsonx"
)

// Decision is the model's structured choice: one action, its arguments, and
// a one-sentence justification. Produced once per query and never mutated
// after parsing.
type Decision struct {
	Action string         `json:"action"`
	Args   map[string]any `json:"args"`
	Reason string         `json:"reason"`
}

// ParseError reports that the raw model output did not contain exactly one
// well-formed decision object. Raw carries the full output for diagnostics.
type ParseError struct {
	Raw    string
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse model decision: %s", e.Detail)
}

// ParseDecision extracts the decision from raw model output.
//
// The output may surround the JSON object with prose or markdown fences, but
// it must contain exactly one top-level object; zero or several candidates
// fail. The object must carry an `action` string and an `args` object.
// `reason` is optional and defaults to empty. Parsing is pure: the same raw
// text always yields the same Decision or the same error.
//
// Whether the action exists in the registry is deliberately not checked here;
// that is the dispatcher's job.
func ParseDecision(raw string) (Decision, error) {
	candidates := jsonx.FindObjects(raw)
	switch len(candidates) {
	case 0:
		return Decision{}, &ParseError{Raw: raw, Detail: "no JSON object in model output"}
	case 1:
	default:
		return Decision{}, &ParseError{Raw: raw, Detail: fmt.Sprintf("%d JSON objects in model output, want exactly 1", len(candidates))}
	}

	var payload struct {
		Action *string        `json:"action"`
		Args   map[string]any `json:"args"`
		Reason string         `json:"reason"`
	}
	if err := json.Unmarshal([]byte(candidates[0]), &payload); err != nil {
		return Decision{}, &ParseError{Raw: raw, Detail: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if payload.Action == nil || *payload.Action == "" {
		return Decision{}, &ParseError{Raw: raw, Detail: "decision has no action field"}
	}
	if payload.Args == nil {
		return Decision{}, &ParseError{Raw: raw, Detail: "decision has no args object"}
	}

	return Decision{
		Action: *payload.Action,
		Args:   payload.Args,
		Reason: payload.Reason,
	}, nil
}
