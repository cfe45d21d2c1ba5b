package router

import (
	"context"
	"fmt"

	"gapaudit/internal/tools"
)

// State is a dispatch state. Executed and every *Failed/Invalid state are
// terminal; there is no silent fallback except the explicit clarification
// reroute on an unknown action.
type State string

const (
	StateAwaitingDecision State = "awaiting_decision"
	StateParsed           State = "parsed"
	StateValidated        State = "validated"
	StateExecuted         State = "executed"

	StateParseFailed     State = "parse_failed"
	StateUnknownAction   State = "unknown_action"
	StateArgsInvalid     State = "args_invalid"
	StateExecutionFailed State = "execution_failed"
)

// Outcome is the terminal result of dispatching one decision.
type Outcome struct {
	State    State
	Decision Decision

	// Action is the action that was (or would be) executed. Differs from
	// Decision.Action when an unknown action was rerouted to clarification.
	Action string

	// Clarified is set when the decision named an unregistered action and
	// the dispatcher rerouted to the clarification fallback.
	Clarified bool

	// Args are the validated, coerced arguments.
	Args map[string]any

	// FieldErrors carries every accumulated validation error on ArgsInvalid.
	FieldErrors []tools.FieldError

	// Result is the action's payload after successful execution.
	Result map[string]any

	// DryRun marks an outcome where validation passed but the callable was
	// deliberately not invoked.
	DryRun bool

	// Err is set on the failure states.
	Err error
}

// OK reports whether the outcome is a success: an executed action, a dry-run
// report, or the clarification fallback.
func (o Outcome) OK() bool {
	switch o.State {
	case StateExecuted, StateValidated:
		return true
	default:
		return false
	}
}

// Dispatcher runs parsed decisions against a registry.
type Dispatcher struct {
	registry *tools.Registry
	dryRun   bool
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *tools.Registry, dryRun bool) *Dispatcher {
	return &Dispatcher{registry: registry, dryRun: dryRun}
}

// Dispatch walks the state machine for one raw model response:
//
//	AwaitingDecision → Parsed → Validated → Executed
//
// with the terminal failure states ParseFailed, UnknownAction, ArgsInvalid
// and ExecutionFailed. An unknown action reroutes to ask_clarification; only
// a registry without a clarification entry yields UnknownAction, which is a
// configuration bug.
func (d *Dispatcher) Dispatch(ctx context.Context, raw string) Outcome {
	decision, err := ParseDecision(raw)
	if err != nil {
		return Outcome{State: StateParseFailed, Err: err}
	}
	return d.DispatchDecision(ctx, decision)
}

// DispatchDecision dispatches an already-parsed decision.
func (d *Dispatcher) DispatchDecision(ctx context.Context, decision Decision) Outcome {
	out := Outcome{Decision: decision, Action: decision.Action}

	action, ok := d.registry.Lookup(decision.Action)
	if !ok {
		action, ok = d.registry.Lookup(tools.ClarificationAction)
		if !ok {
			out.State = StateUnknownAction
			out.Err = fmt.Errorf("%w for unknown action %q", tools.ErrNoClarification, decision.Action)
			return out
		}
		out.Action = tools.ClarificationAction
		out.Clarified = true
		// Clarification takes no arguments; the model's args are dropped.
		decision.Args = map[string]any{}
	}

	res := tools.Validate(action.Spec, decision.Args)
	if !res.Valid() {
		out.State = StateArgsInvalid
		out.FieldErrors = res.Errors
		out.Err = fmt.Errorf("argument validation failed for %q: %d error(s)", out.Action, len(res.Errors))
		return out
	}
	out.Args = res.Args

	if d.dryRun {
		out.State = StateValidated
		out.DryRun = true
		return out
	}

	result, err := execute(ctx, action, res.Args)
	if err != nil {
		out.State = StateExecutionFailed
		out.Err = fmt.Errorf("action %q failed: %w", out.Action, err)
		return out
	}
	out.State = StateExecuted
	out.Result = result
	return out
}

// execute invokes the callable, converting panics into errors so a misbehaving
// action cannot take down the process.
func execute(ctx context.Context, action *tools.Action, args map[string]any) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return action.Execute(ctx, args)
}
