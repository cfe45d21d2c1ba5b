// Package llm provides the model gateway: thin clients for language-model
// endpoints with a bounded per-call wait time.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// DefaultTimeout is the wall-clock ceiling for a single model call.
const DefaultTimeout = 120 * time.Second

// ErrTimeout marks a model call that exceeded its wall-clock ceiling.
// Distinguishable from other gateway failures via errors.Is.
var ErrTimeout = errors.New("model call timed out")

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// wrapTimeout maps deadline failures onto ErrTimeout so callers can branch
// on timeouts without inspecting transport errors.
func wrapTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// withCallTimeout applies the client's timeout when the context has no
// deadline of its own (centralized timeout handling).
func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
