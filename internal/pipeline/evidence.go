package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// maxPromptRows caps how many log rows reach the model context.
const maxPromptRows = 500

// noLogsMarker is what the analysis node sees when no logs were loaded.
const noLogsMarker = "NO_LOGS_FOUND"

// planEvidence decides what evidence the threat calls for. Windows logon
// threats (or an explicit 4625 mention) want the Windows event CSVs.
func (p *Pipeline) planEvidence(_ context.Context, s *State) error {
	glob := s.LogGlob
	if glob == "" {
		glob = "logs/*.csv"
	}
	s.Plan = EvidencePlan{
		NeedWindowsLogs: strings.Contains(strings.ToLower(s.Threat), "windows") ||
			strings.Contains(s.Threat, "4625"),
		LogGlob: glob,
	}
	return nil
}

// loadLogs reads every CSV matching the plan's glob and flattens the rows to
// "col=value" text for the model. A file that fails to parse is recorded and
// skipped, not fatal.
func (p *Pipeline) loadLogs(_ context.Context, s *State) error {
	paths, err := filepath.Glob(s.Plan.LogGlob)
	if err != nil {
		return fmt.Errorf("bad log glob %q: %w", s.Plan.LogGlob, err)
	}

	var lines []string
	for _, path := range paths {
		rows, err := readCSVRows(path)
		if err != nil {
			s.LogErrors = append(s.LogErrors, fmt.Sprintf("%s: %v", path, err))
			p.log.Warn("failed to read log file", zap.String("path", path), zap.Error(err))
			continue
		}
		lines = append(lines, rows...)
	}

	if len(lines) == 0 {
		s.LogsText = noLogsMarker
		s.LogRows = 0
		return nil
	}
	if len(lines) > maxPromptRows {
		lines = lines[:maxPromptRows]
	}
	s.LogsText = strings.Join(lines, "\n")
	s.LogRows = len(lines)
	return nil
}

func readCSVRows(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	rows := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		parts := make([]string, 0, len(header)+1)
		for i, col := range header {
			val := ""
			if i < len(rec) {
				val = rec[i]
			}
			parts = append(parts, col+"="+val)
		}
		parts = append(parts, "source_file="+path)
		rows = append(rows, strings.Join(parts, "; "))
	}
	return rows, nil
}

// analyzeEvidence has the model summarize indicators in the loaded logs.
func (p *Pipeline) analyzeEvidence(ctx context.Context, s *State) error {
	logs := s.LogsText
	if logs == "" {
		logs = noLogsMarker
	}
	prompt := fmt.Sprintf(`You are a cyber analyst. Summarize indicators from the Windows/OpenSSH logs.
Focus on:
- Event IDs (e.g., 4625), timestamps, source IPs, target accounts
- Count of failures per IP/account, any lockouts, and brute-force indicators
- Support the summary with specific rows/fields you see

Logs (truncated to %d rows):
%s
`, maxPromptRows, logs)

	summary, err := p.client.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("evidence analysis failed: %w", err)
	}
	s.EvidenceSummary = summary
	return nil
}
