package core

import (
	"context"
	"fmt"

	"gapaudit/internal/tools"
)

// AskClarificationAction returns the no-argument fallback used when no other
// action fits the request.
func AskClarificationAction() *tools.Action {
	return &tools.Action{
		Spec: tools.Spec{
			Name:        tools.ClarificationAction,
			Description: "No action fits; ask the user to clarify.",
		},
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{
				"summary": "No available action fits the request. Ask the user to clarify or add a new action.",
				"next":    "Please clarify what you want me to do (e.g., read login logs, greet someone).",
			}, nil
		},
	}
}

// SayHelloAction returns a trivial greeting action.
func SayHelloAction() *tools.Action {
	return &tools.Action{
		Spec: tools.Spec{
			Name:        "say_hello",
			Description: "Say hello to a person.",
			Keywords:    []string{"hello", "hi", "greet", "greeting", "introduce", "name"},
			Args: []tools.ArgSpec{
				{Name: "name", Kind: tools.KindString, Required: true, Example: "Ada"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			name, _ := args["name"].(string)
			return map[string]any{
				"summary": fmt.Sprintf("Hello, %s!", name),
				"echo":    map[string]any{"name": name},
			}, nil
		},
	}
}
