package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gapaudit/internal/config"
	"gapaudit/internal/llm"
	"gapaudit/internal/router"
	"gapaudit/internal/tools/core"
)

var (
	askQuery  string
	askDryRun bool
)

// askCmd routes one natural language request to a registered action.
var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Route a natural language request to a registered action",
	Long: `Sends the query to the model with the action catalog, parses the decision,
validates its arguments, and executes the chosen action.

Exit codes:
  0  action executed (or the request was routed to clarification)
  1  the decision could not be parsed, validated, or executed
  2  the model call failed or timed out

Example:
  gapaudit ask -q "show me failed logins since last Tuesday"`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "Natural language request (required)")
	askCmd.Flags().BoolVar(&askDryRun, "dry-run", false, "Validate the decision without executing the action")
	_ = askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if modelName != "" {
		cfg.LLM.Model = modelName
	}

	// Without a config file the provider comes straight from the environment.
	var client llm.Client
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath
	}
	if _, statErr := os.Stat(cfgPath); os.IsNotExist(statErr) {
		client, err = llm.NewClientFromEnv(cfg.LLM.Model, cfg.LLMTimeout())
	} else {
		client, err = llm.NewClient(cfg.ProviderConfig())
	}
	if err != nil {
		return err
	}

	rt, err := router.New(router.Config{
		Client:   client,
		Registry: core.NewDefaultRegistry(),
		DryRun:   askDryRun,
		Timeout:  cfg.LLMTimeout(),
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if debug {
		fmt.Fprintln(os.Stderr, rt.SystemPrompt())
	}

	out, err := rt.Ask(cmd.Context(), askQuery)
	if err != nil {
		if errors.Is(err, llm.ErrTimeout) {
			return &exitError{code: 2, msg: "model call timed out"}
		}
		return &exitError{code: 2, msg: fmt.Sprintf("model call failed: %v", err)}
	}

	return printOutcome(out)
}

func printOutcome(out router.Outcome) error {
	switch out.State {
	case router.StateExecuted:
		if out.Clarified {
			fmt.Printf("Unknown action %q, asked for clarification:\n", out.Decision.Action)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out.Result); err != nil {
			return err
		}
		return nil

	case router.StateValidated:
		fmt.Printf("Dry run: would execute %s with args:\n", out.Action)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out.Args)

	case router.StateArgsInvalid:
		var msg string
		for _, fe := range out.FieldErrors {
			msg += fmt.Sprintf("  %s: %s\n", fe.Field, fe.Reason)
		}
		return &exitError{code: 1, msg: fmt.Sprintf("invalid arguments for %s:\n%s", out.Action, msg)}

	default:
		return &exitError{code: 1, msg: fmt.Sprintf("%s: %v", out.State, out.Err)}
	}
}
