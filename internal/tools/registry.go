package tools

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ClarificationAction is the designated no-argument fallback. Every registry
// must carry it so an unknown model decision can always be rerouted.
const ClarificationAction = "ask_clarification"

// Registry holds all available actions and provides lookup functionality.
// Registration happens once at startup; afterwards the registry is read-only.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]*Action
}

// NewRegistry creates a new empty action registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]*Action),
	}
}

// Register adds an action to the registry.
// Returns an error if an action with the same name already exists.
func (r *Registry) Register(action *Action) error {
	if err := action.Validate(); err != nil {
		return fmt.Errorf("invalid action: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[action.Spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrActionAlreadyRegistered, action.Spec.Name)
	}

	r.actions[action.Spec.Name] = action
	return nil
}

// MustRegister registers an action and panics on error.
// Use this for static registration at startup.
func (r *Registry) MustRegister(action *Action) {
	if err := r.Register(action); err != nil {
		panic(fmt.Sprintf("failed to register action %s: %v", action.Spec.Name, err))
	}
}

// Lookup returns an action by name.
func (r *Registry) Lookup(name string) (*Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[name]
	return a, ok
}

// Has returns true if an action with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns all registered action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered actions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// catalogEntry is the JSON shape the model sees for one action.
type catalogEntry struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	ArgsSchema  map[string]catalogArg `json:"args_schema"`
}

type catalogArg struct {
	Type     Kind   `json:"type"`
	Required bool   `json:"required"`
	Example  string `json:"example,omitempty"`
}

// Catalog renders the registered actions as the JSON catalog embedded in the
// system prompt. Entries are sorted by name so the prompt is stable.
func (r *Registry) Catalog() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]catalogEntry, 0, len(names))
	for _, name := range names {
		a := r.actions[name]
		schema := make(map[string]catalogArg, len(a.Spec.Args))
		for _, arg := range a.Spec.Args {
			schema[arg.Name] = catalogArg{
				Type:     arg.Kind,
				Required: arg.Required,
				Example:  arg.Example,
			}
		}
		entries = append(entries, catalogEntry{
			Name:        name,
			Description: a.Spec.Description,
			ArgsSchema:  schema,
		})
	}

	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		// Catalog entries are plain strings and maps; this cannot fail.
		panic(fmt.Sprintf("catalog marshal: %v", err))
	}
	return string(out)
}

// VerifyCatalog checks that every registered action name appears in the given
// system prompt. A mismatch means the prompt and the registry drifted apart,
// which is surfaced at startup rather than at call time.
func (r *Registry) VerifyCatalog(prompt string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name := range r.actions {
		if !strings.Contains(prompt, `"`+name+`"`) {
			return fmt.Errorf("%w: %s", ErrCatalogMismatch, name)
		}
	}
	if _, ok := r.actions[ClarificationAction]; !ok {
		return ErrNoClarification
	}
	return nil
}
