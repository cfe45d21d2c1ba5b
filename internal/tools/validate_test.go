package tools

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var logsSpec = Spec{
	Name: "go_to_mac_login_logs",
	Args: []ArgSpec{
		{Name: "since", Kind: KindString},
		{Name: "until", Kind: KindString},
		{Name: "limit", Kind: KindInteger},
		{Name: "verbose", Kind: KindBoolean},
	},
}

func TestValidateCoercesDeclaredFields(t *testing.T) {
	// JSON-decoded args: numbers arrive as float64.
	raw := map[string]any{
		"since":   "2025-09-01",
		"limit":   float64(10000),
		"verbose": true,
		"extra":   "ignored",
	}

	res := Validate(logsSpec, raw)
	if !res.Valid() {
		t.Fatalf("Validate returned errors: %v", res.Errors)
	}

	want := map[string]any{
		"since":   "2025-09-01",
		"limit":   10000,
		"verbose": true,
	}
	if diff := cmp.Diff(want, res.Args); diff != "" {
		t.Errorf("coerced args mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	spec := Spec{
		Name: "say_hello",
		Args: []ArgSpec{
			{Name: "name", Kind: KindString, Required: true},
			{Name: "title", Kind: KindString, Required: true},
			{Name: "times", Kind: KindInteger},
		},
	}

	res := Validate(spec, map[string]any{"times": "three"})
	if res.Valid() {
		t.Fatal("Validate passed with missing required fields")
	}
	if len(res.Errors) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(res.Errors), res.Errors)
	}
	if res.Args != nil {
		t.Error("invalid result should carry no args")
	}

	fields := map[string]bool{}
	for _, fe := range res.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{"name", "title", "times"} {
		if !fields[want] {
			t.Errorf("no error naming field %q: %v", want, res.Errors)
		}
	}
}

func TestValidateKindMismatch(t *testing.T) {
	tests := []struct {
		name   string
		raw    map[string]any
		wantOK bool
	}{
		{"integral_float", map[string]any{"limit": float64(5000)}, true},
		{"fractional_float", map[string]any{"limit": 50.5}, false},
		{"int", map[string]any{"limit": 5000}, true},
		{"string_for_int", map[string]any{"limit": "5000"}, false},
		{"bool_for_string", map[string]any{"since": true}, false},
		{"int_for_bool", map[string]any{"verbose": 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(logsSpec, tt.raw)
			if res.Valid() != tt.wantOK {
				t.Errorf("Valid() = %v, want %v (errors: %v)", res.Valid(), tt.wantOK, res.Errors)
			}
		})
	}
}

func TestValidateOptionalAbsent(t *testing.T) {
	res := Validate(logsSpec, map[string]any{})
	if !res.Valid() {
		t.Fatalf("empty args for all-optional spec should pass: %v", res.Errors)
	}
	if len(res.Args) != 0 {
		t.Errorf("absent optional fields should stay absent, got %v", res.Args)
	}
}
