package router

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gapaudit/internal/llm"
	"gapaudit/internal/tools"
	"gapaudit/internal/tools/core"
)

// fakeClient returns a canned response or blocks until the context expires.
type fakeClient struct {
	response string
	block    bool
	sawSys   string
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.sawSys = systemPrompt
	if f.block {
		<-ctx.Done()
		return "", llm.ErrTimeout
	}
	return f.response, nil
}

func newTestRouter(t *testing.T, client llm.Client, dryRun bool) *Router {
	t.Helper()
	r, err := New(Config{
		Client:   client,
		Registry: core.NewDefaultRegistry(),
		DryRun:   dryRun,
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func TestRouterEmbedsCatalogInPrompt(t *testing.T) {
	fake := &fakeClient{response: `{"action": "ask_clarification", "args": {}}`}
	r := newTestRouter(t, fake, false)

	if _, err := r.Ask(context.Background(), "do something"); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	for _, want := range []string{`"go_to_mac_login_logs"`, `"say_hello"`, `"ask_clarification"`} {
		if !strings.Contains(fake.sawSys, want) {
			t.Errorf("system prompt missing %s", want)
		}
	}
}

func TestRouterTimeoutProducesNoDecision(t *testing.T) {
	r, err := New(Config{
		Client:   &fakeClient{block: true},
		Registry: core.NewDefaultRegistry(),
		Timeout:  20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := r.Ask(context.Background(), "check logins")
	if !errors.Is(err, llm.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if out.State != StateAwaitingDecision {
		t.Errorf("state = %s; a timeout must not produce a decision", out.State)
	}
	if out.Decision.Action != "" {
		t.Errorf("decision produced despite timeout: %+v", out.Decision)
	}
}

func TestRouterDryRunEndToEnd(t *testing.T) {
	fake := &fakeClient{response: `{"action": "say_hello", "args": {"name": "Ada"}, "reason": "greeting"}`}
	r := newTestRouter(t, fake, true)

	out, err := r.Ask(context.Background(), "greet Ada")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !out.DryRun || out.State != StateValidated {
		t.Errorf("outcome = %+v, want validated dry-run", out)
	}
	if out.Args["name"] != "Ada" {
		t.Errorf("validated args = %v", out.Args)
	}
}

func TestNewRejectsMissingClarification(t *testing.T) {
	reg := tools.NewRegistry()
	reg.MustRegister(&tools.Action{
		Spec: tools.Spec{Name: "lonely"},
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return nil, nil
		},
	})

	_, err := New(Config{Client: &fakeClient{}, Registry: reg})
	if !errors.Is(err, tools.ErrNoClarification) {
		t.Fatalf("err = %v, want ErrNoClarification at startup", err)
	}
}
