package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func testAction(name string) *Action {
	return &Action{
		Spec: Spec{
			Name:        name,
			Description: "A test action",
		},
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{"ok": true}, nil
		},
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if reg.Count() != 0 {
		t.Errorf("new registry should be empty, got %d actions", reg.Count())
	}
}

func TestRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(testAction("inspect_logs")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, ok := reg.Lookup("inspect_logs")
	if !ok {
		t.Fatal("Lookup returned false for registered action")
	}
	if got.Spec.Name != "inspect_logs" {
		t.Errorf("got name %q, want %q", got.Spec.Name, "inspect_logs")
	}
	if _, ok := reg.Lookup("nope"); ok {
		t.Error("Lookup returned true for unregistered action")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(testAction("dupe")); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	err := reg.Register(testAction("dupe"))
	if !errors.Is(err, ErrActionAlreadyRegistered) {
		t.Errorf("duplicate Register error = %v, want ErrActionAlreadyRegistered", err)
	}
}

func TestRegisterInvalid(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(&Action{Spec: Spec{Name: ""}})
	if !errors.Is(err, ErrActionNameEmpty) {
		t.Errorf("empty name error = %v, want ErrActionNameEmpty", err)
	}

	err = reg.Register(&Action{Spec: Spec{Name: "no_func"}})
	if !errors.Is(err, ErrActionExecuteNil) {
		t.Errorf("nil func error = %v, want ErrActionExecuteNil", err)
	}
}

func TestNames(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testAction("zeta"))
	reg.MustRegister(testAction("alpha"))

	names := reg.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("Names() = %v, want sorted [alpha zeta]", names)
	}
}

func TestCatalogContainsSchemas(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&Action{
		Spec: Spec{
			Name:        "go_to_mac_login_logs",
			Description: "Inspect macOS login/auth logs and summarize findings.",
			Args: []ArgSpec{
				{Name: "since", Kind: KindString, Example: "2025-09-01"},
				{Name: "limit", Kind: KindInteger, Example: "5000"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return nil, nil
		},
	})

	catalog := reg.Catalog()
	for _, want := range []string{`"go_to_mac_login_logs"`, `"since"`, `"limit"`, `"integer"`} {
		if !strings.Contains(catalog, want) {
			t.Errorf("catalog missing %s:\n%s", want, catalog)
		}
	}
}

func TestVerifyCatalog(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testAction(ClarificationAction))
	reg.MustRegister(testAction("inspect_logs"))

	prompt := "ACTIONS:\n" + reg.Catalog()
	if err := reg.VerifyCatalog(prompt); err != nil {
		t.Errorf("VerifyCatalog on full prompt failed: %v", err)
	}

	err := reg.VerifyCatalog(`only "inspect_logs" here`)
	if !errors.Is(err, ErrCatalogMismatch) {
		t.Errorf("VerifyCatalog error = %v, want ErrCatalogMismatch", err)
	}
}

func TestVerifyCatalogRequiresClarification(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testAction("inspect_logs"))

	err := reg.VerifyCatalog(reg.Catalog())
	if !errors.Is(err, ErrNoClarification) {
		t.Errorf("VerifyCatalog error = %v, want ErrNoClarification", err)
	}
}
