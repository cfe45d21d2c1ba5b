package router

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDecisionWithPreamble(t *testing.T) {
	raw := `Here you go: {"action": "go_to_mac_login_logs", "args": {"since": "2025-09-01", "until": "2025-09-08", "limit": 10000}, "reason": "time window mentioned"}`

	got, err := ParseDecision(raw)
	if err != nil {
		t.Fatalf("ParseDecision failed: %v", err)
	}

	want := Decision{
		Action: "go_to_mac_login_logs",
		Args: map[string]any{
			"since": "2025-09-01",
			"until": "2025-09-08",
			"limit": float64(10000),
		},
		Reason: "time window mentioned",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decision mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDecisionReasonOptional(t *testing.T) {
	got, err := ParseDecision(`{"action": "unknown_action", "args": {}}`)
	if err != nil {
		t.Fatalf("ParseDecision failed: %v", err)
	}
	if got.Action != "unknown_action" || got.Reason != "" {
		t.Errorf("got %+v", got)
	}
	if got.Args == nil {
		t.Error("empty args object should parse to empty map, not nil")
	}
}

func TestParseDecisionMarkdownFenced(t *testing.T) {
	raw := "```json\n{\"action\": \"say_hello\", \"args\": {\"name\": \"Ada\"}}\n```"
	got, err := ParseDecision(raw)
	if err != nil {
		t.Fatalf("ParseDecision failed: %v", err)
	}
	if got.Action != "say_hello" {
		t.Errorf("action = %q", got.Action)
	}
}

func TestParseDecisionFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no_json", "I am not sure what you mean."},
		{"two_objects", `{"action": "a", "args": {}}{"action": "b", "args": {}}`},
		{"invalid_json", `{"action": "a", "args": {,}}`},
		{"missing_action", `{"args": {}}`},
		{"empty_action", `{"action": "", "args": {}}`},
		{"missing_args", `{"action": "say_hello"}`},
		{"truncated", `{"action": "say_hello", "args": {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDecision(tt.raw)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if pe.Raw != tt.raw {
				t.Errorf("ParseError.Raw does not carry the original text")
			}
		})
	}
}

func TestParseDecisionIdempotent(t *testing.T) {
	raw := `{"action": "say_hello", "args": {"name": "Ada"}, "reason": "greeting"}`

	first, err1 := ParseDecision(raw)
	second, err2 := ParseDecision(raw)
	if err1 != nil || err2 != nil {
		t.Fatalf("errors: %v / %v", err1, err2)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated parse differs:\n%s", diff)
	}

	bad := "not json at all"
	_, e1 := ParseDecision(bad)
	_, e2 := ParseDecision(bad)
	if e1.Error() != e2.Error() {
		t.Errorf("repeated parse errors differ: %v / %v", e1, e2)
	}
}
