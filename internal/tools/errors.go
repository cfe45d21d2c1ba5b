package tools

import "errors"

// Action registry errors.
var (
	// ErrActionNotFound is returned when an action is not registered.
	ErrActionNotFound = errors.New("action not found")

	// ErrActionNameEmpty is returned when an action has no name.
	ErrActionNameEmpty = errors.New("action name cannot be empty")

	// ErrActionExecuteNil is returned when an action has no execute function.
	ErrActionExecuteNil = errors.New("action execute function cannot be nil")

	// ErrActionAlreadyRegistered is returned when registering a duplicate.
	ErrActionAlreadyRegistered = errors.New("action already registered")

	// ErrCatalogMismatch is returned at startup when a registered action is
	// missing from the system prompt's action catalog. This is a configuration
	// bug and is fatal before any query runs.
	ErrCatalogMismatch = errors.New("action missing from prompt catalog")

	// ErrNoClarification is returned when the registry lacks the
	// clarification fallback entry every registry must carry.
	ErrNoClarification = errors.New("registry has no clarification action")
)
