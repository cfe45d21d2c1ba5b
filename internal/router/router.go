package router

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gapaudit/internal/llm"
	"gapaudit/internal/tools"
)

// Router ties the model gateway, parser and dispatcher together: one query,
// one model call, one dispatch. No state is shared across queries; the
// registry is read-only after startup.
type Router struct {
	client     llm.Client
	registry   *tools.Registry
	dispatcher *Dispatcher
	prompt     string
	timeout    time.Duration
	log        *zap.Logger
}

// Config configures a Router.
type Config struct {
	Client   llm.Client
	Registry *tools.Registry
	DryRun   bool
	Timeout  time.Duration
	Logger   *zap.Logger
}

// New builds a Router and verifies at startup that the system prompt's
// catalog covers every registered action. A mismatch is a configuration
// error and fails construction.
func New(cfg Config) (*Router, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("router requires an llm client")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("router requires an action registry")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = llm.DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	prompt := BuildSystemPrompt(cfg.Registry)
	if err := cfg.Registry.VerifyCatalog(prompt); err != nil {
		return nil, fmt.Errorf("catalog consistency check failed: %w", err)
	}

	return &Router{
		client:     cfg.Client,
		registry:   cfg.Registry,
		dispatcher: NewDispatcher(cfg.Registry, cfg.DryRun),
		prompt:     prompt,
		timeout:    cfg.Timeout,
		log:        cfg.Logger,
	}, nil
}

// Ask runs one query end to end: model call, parse, dispatch.
//
// The model call is the only blocking operation; it is bounded by the
// router's timeout and a timeout surfaces as llm.ErrTimeout with no Decision
// produced. Dispatch failures are reported in the Outcome, not as an error.
func (r *Router) Ask(ctx context.Context, query string) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.log.Debug("asking model", zap.Int("prompt_len", len(r.prompt)), zap.String("query", query))

	raw, err := r.client.CompleteWithSystem(ctx, r.prompt, BuildUserPrompt(query))
	if err != nil {
		return Outcome{State: StateAwaitingDecision, Err: err}, err
	}

	r.log.Debug("model responded", zap.Int("raw_len", len(raw)))

	out := r.dispatcher.Dispatch(ctx, raw)
	r.log.Debug("dispatched",
		zap.String("state", string(out.State)),
		zap.String("action", out.Action),
		zap.Bool("clarified", out.Clarified),
		zap.Bool("dry_run", out.DryRun))
	return out, nil
}

// SystemPrompt exposes the assembled prompt for --debug output.
func (r *Router) SystemPrompt() string { return r.prompt }
