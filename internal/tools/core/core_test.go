package core

import (
	"context"
	"strings"
	"testing"

	"gapaudit/internal/tools"
)

func TestNewDefaultRegistry(t *testing.T) {
	reg := NewDefaultRegistry()

	for _, name := range []string{"go_to_mac_login_logs", "say_hello", tools.ClarificationAction} {
		if !reg.Has(name) {
			t.Errorf("default registry missing %q", name)
		}
	}
	if err := reg.VerifyCatalog(reg.Catalog()); err != nil {
		t.Errorf("default registry catalog inconsistent: %v", err)
	}

	logs, _ := reg.Lookup("go_to_mac_login_logs")
	limit, ok := logs.Spec.Arg("limit")
	if !ok || limit.Kind != tools.KindInteger {
		t.Errorf("log action limit arg = %+v, want declared integer", limit)
	}
	if _, ok := logs.Spec.Arg("verbosity"); ok {
		t.Error("undeclared arg reported as declared")
	}
}

func TestBuildLogShowArgs(t *testing.T) {
	args := buildLogShowArgs("2025-09-01", "2025-09-08")
	joined := strings.Join(args, " ")

	for _, want := range []string{"--start 2025-09-01", "--end 2025-09-08 23:59:59", "--last 14d"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}

	joined = strings.Join(buildLogShowArgs("", ""), " ")
	if strings.Contains(joined, "--start") || strings.Contains(joined, "--end") {
		t.Errorf("empty window should omit --start/--end: %q", joined)
	}
}

func TestMacLoginLogsSummarizes(t *testing.T) {
	canned := strings.Join([]string{
		"Sep  1 10:00:01 host authd[101]: Failed password for admin",
		"Sep  1 10:00:02 host loginwindow[88]: Logged in user alice",
		"Sep  1 10:00:03 host kernel[0]: unrelated chatter",
		"Sep  1 10:00:04 host sshd[402]: authentication failure for root",
	}, "\n") + "\n"

	var gotArgs []string
	action := macLoginLogsAction(func(ctx context.Context, name string, args ...string) (string, error) {
		gotArgs = args
		return canned, nil
	})

	res, err := action.Execute(context.Background(), map[string]any{
		"since": "2025-09-01",
		"until": "2025-09-08",
		"limit": 10000,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(gotArgs) == 0 || gotArgs[0] != "show" {
		t.Errorf("expected `log show` invocation, got %v", gotArgs)
	}

	lines, _ := res["lines"].([]string)
	if len(lines) != 3 {
		t.Errorf("matched %d lines, want 3", len(lines))
	}
	counts, _ := res["counts"].(map[string]int)
	if counts["Failed password"] != 1 || counts["authentication failure"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
	summary, _ := res["summary"].(string)
	if !strings.Contains(summary, "Suspected failures: 2") {
		t.Errorf("summary %q missing failure count", summary)
	}
}

func TestMacLoginLogsLimit(t *testing.T) {
	canned := strings.Repeat("authd: Failed password\n", 50)
	action := macLoginLogsAction(func(ctx context.Context, name string, args ...string) (string, error) {
		return canned, nil
	})

	res, err := action.Execute(context.Background(), map[string]any{"limit": 10})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	lines, _ := res["lines"].([]string)
	if len(lines) != 10 {
		t.Errorf("limit not honored: got %d lines", len(lines))
	}
}

func TestSayHello(t *testing.T) {
	res, err := SayHelloAction().Execute(context.Background(), map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res["summary"] != "Hello, Ada!" {
		t.Errorf("summary = %v", res["summary"])
	}
}

func TestAskClarificationTakesNoArgs(t *testing.T) {
	action := AskClarificationAction()
	if len(action.Spec.Args) != 0 {
		t.Fatalf("clarification action declares %d args, want 0", len(action.Spec.Args))
	}
	res, err := action.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res["summary"] == "" {
		t.Error("clarification summary empty")
	}
}
