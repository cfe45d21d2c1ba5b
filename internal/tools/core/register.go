package core

import (
	"gapaudit/internal/tools"
)

// RegisterAll registers all built-in actions with the given registry.
func RegisterAll(registry *tools.Registry) error {
	actions := []*tools.Action{
		MacLoginLogsAction(),
		SayHelloAction(),
		AskClarificationAction(),
	}

	for _, action := range actions {
		if err := registry.Register(action); err != nil {
			return err
		}
	}
	return nil
}

// NewDefaultRegistry builds the process-wide registry with every built-in
// action. The clarification fallback is always present.
func NewDefaultRegistry() *tools.Registry {
	registry := tools.NewRegistry()
	if err := RegisterAll(registry); err != nil {
		// Built-in specs are static; a failure here is a programming error.
		panic(err)
	}
	return registry
}
