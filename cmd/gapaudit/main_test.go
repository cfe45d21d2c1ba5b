package main

import (
	"errors"
	"fmt"
	"testing"

	"gapaudit/internal/router"
	"gapaudit/internal/tools"
)

func TestPrintOutcomeExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		outcome  router.Outcome
		wantCode int // 0 means nil error expected
	}{
		{
			name:     "executed",
			outcome:  router.Outcome{State: router.StateExecuted, Result: map[string]any{"ok": true}},
			wantCode: 0,
		},
		{
			name: "dry run validated",
			outcome: router.Outcome{
				State:  router.StateValidated,
				Action: "go_to_mac_login_logs",
				Args:   map[string]any{"limit": 50},
				DryRun: true,
			},
			wantCode: 0,
		},
		{
			name: "clarified",
			outcome: router.Outcome{
				State:     router.StateExecuted,
				Clarified: true,
				Result:    map[string]any{"summary": "please rephrase"},
			},
			wantCode: 0,
		},
		{
			name: "args invalid",
			outcome: router.Outcome{
				State:  router.StateArgsInvalid,
				Action: "say_hello",
				FieldErrors: []tools.FieldError{
					{Field: "name", Reason: "missing required argument"},
				},
			},
			wantCode: 1,
		},
		{
			name:     "parse failed",
			outcome:  router.Outcome{State: router.StateParseFailed, Err: fmt.Errorf("no json")},
			wantCode: 1,
		},
		{
			name:     "execution failed",
			outcome:  router.Outcome{State: router.StateExecutionFailed, Err: fmt.Errorf("boom")},
			wantCode: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := printOutcome(tt.outcome)
			if tt.wantCode == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ee *exitError
			if !errors.As(err, &ee) {
				t.Fatalf("expected exitError, got %v", err)
			}
			if ee.code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", ee.code, tt.wantCode)
			}
		})
	}
}
