// Package tools provides the action registry the decision agent dispatches to.
//
// Each action is a named, schema-described operation. The language model picks
// one action per query; the registry owns the schemas and the callables, and
// the router validates arguments before anything executes.
//
// Architecture:
//
//	Query → LLM decision → Registry.Lookup() → Validate() → Action.Execute()
package tools

import (
	"context"
)

// Kind is the runtime kind an argument value must have.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
)

// ArgSpec describes a single declared argument.
type ArgSpec struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"type"`
	Required bool   `json:"required"`
	// Example is shown to the model in the action catalog.
	Example string `json:"example,omitempty"`
}

// Spec describes an action: its unique name, what it does, and the
// ordered argument schema. Immutable once registered.
type Spec struct {
	Name        string
	Description string
	// Keywords hint the model at when the action applies.
	Keywords []string
	Args     []ArgSpec
}

// Arg returns the declared argument with the given name.
func (s Spec) Arg(name string) (ArgSpec, bool) {
	for _, a := range s.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ArgSpec{}, false
}

// ExecuteFunc is the signature for action execution.
// args contains only validated, declared fields.
type ExecuteFunc func(ctx context.Context, args map[string]any) (map[string]any, error)

// Action pairs a spec with its callable.
type Action struct {
	Spec    Spec
	Execute ExecuteFunc
}

// Validate checks if the action definition is valid.
func (a *Action) Validate() error {
	if a.Spec.Name == "" {
		return ErrActionNameEmpty
	}
	if a.Execute == nil {
		return ErrActionExecuteNil
	}
	return nil
}
