package core

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"gapaudit/internal/tools"
)

// authPredicate targets common macOS auth components: loginwindow, authd,
// opendirectoryd, securityd, apsd and the Authorization subsystem.
const authPredicate = `(process == "loginwindow") || (process == "authd") || (process == "opendirectoryd") || (process == "securityd") || (process == "apsd") || (subsystem == "com.apple.Authorization")`

// keyphrases scanned for in the log output. Order matters only for the
// summary counts; matching is case-insensitive.
var keyphrases = []string{
	"Failed password", "authentication failure", "Invalid user", "LAError",
	"accepted", "success", "unlock", "login", "Logged in", "pam", "Denied",
	"policy", "AppleIDAuth", "authd",
}

const defaultLineLimit = 5000

// runner executes the log command and returns its stdout.
// Swapped out in tests.
type runner func(ctx context.Context, name string, args ...string) (string, error)

func execRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("log command failed: %s", msg)
	}
	return stdout.String(), nil
}

// MacLoginLogsAction returns the action that pulls macOS unified-log entries
// related to login/auth and summarizes them.
func MacLoginLogsAction() *tools.Action {
	return macLoginLogsAction(execRunner)
}

func macLoginLogsAction(run runner) *tools.Action {
	return &tools.Action{
		Spec: tools.Spec{
			Name:        "go_to_mac_login_logs",
			Description: "Inspect macOS login/auth logs and summarize findings.",
			Keywords:    []string{"login", "log", "auth", "authentication", "failed password", "mac", "ssh"},
			Args: []tools.ArgSpec{
				{Name: "since", Kind: tools.KindString, Example: "2025-09-01"},
				{Name: "until", Kind: tools.KindString, Example: "2025-09-17"},
				{Name: "limit", Kind: tools.KindInteger, Example: "5000"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			since, _ := args["since"].(string)
			until, _ := args["until"].(string)
			limit, ok := args["limit"].(int)
			if !ok || limit <= 0 {
				limit = defaultLineLimit
			}

			cmdArgs := buildLogShowArgs(since, until)
			out, err := run(ctx, "log", cmdArgs...)
			if err != nil {
				return nil, err
			}

			lines, counts := filterAuthLines(out, limit)

			suspicious := counts["Failed password"] + counts["authentication failure"] +
				counts["Invalid user"] + counts["Denied"]
			successes := counts["accepted"] + counts["success"] + counts["Logged in"]

			total := strings.Count(out, "\n")
			scanned := total
			if limit < scanned {
				scanned = limit
			}
			summary := fmt.Sprintf(
				"Scanned ~%d lines; matched %d auth-related lines. Suspected failures: %d. Successful logins: %d.",
				scanned, len(lines), suspicious, successes,
			)

			return map[string]any{
				"summary": summary,
				"counts":  counts,
				"lines":   lines,
			}, nil
		},
	}
}

// buildLogShowArgs assembles arguments for `log show`. since/until accept
// YYYY-MM-DD; until is extended to end of day so the last day is included.
// A safety --last window stays in place; log picks the earliest of start/last.
func buildLogShowArgs(since, until string) []string {
	args := []string{"show", "--style", "syslog", "--predicate", authPredicate}
	if since != "" {
		args = append(args, "--start", since)
	}
	if until != "" {
		args = append(args, "--end", until+" 23:59:59")
	}
	return append(args, "--info", "--debug", "--last", "14d")
}

// filterAuthLines keeps lines matching any keyphrase, up to limit, and counts
// per-keyphrase hits.
func filterAuthLines(out string, limit int) ([]string, map[string]int) {
	counts := make(map[string]int, len(keyphrases))
	for _, k := range keyphrases {
		counts[k] = 0
	}

	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if len(lines) >= limit {
			break
		}
		low := strings.ToLower(line)
		matched := false
		for _, k := range keyphrases {
			if strings.Contains(low, strings.ToLower(k)) {
				counts[k]++
				matched = true
			}
		}
		if matched {
			lines = append(lines, line)
		}
	}
	return lines, counts
}
