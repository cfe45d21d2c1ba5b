package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// finalizeReport stitches the audit into one markdown report with the line
// citations kept visible.
func (p *Pipeline) finalizeReport(ctx context.Context, s *State) error {
	citations := renderCitationsBlock(s)

	prompt := fmt.Sprintf(`Create a post-incident review report (markdown):

1) Threat (one short paragraph)
2) Evidence Highlights (bullet list with concrete indicators)
3) Policies Consulted (list)
4) Gaps Identified (clear bullets; keep it short)
5) Gap to Evidence Linkage (compact bullets; note which gaps are unverified)
6) Actionable Recommendations (prioritized: quick wins then longer-term)
7) Policy Line Citations (per-gap, show which line numbers were relied on for the comparison)

Use the provided content faithfully.
Do not invent citations.

Threat:
%s

Evidence Summary:
%s

Policies Consulted:
%s

Gaps:
%s

Gap to Evidence Linkage:
%s

Policy Line Citations (pre-rendered):
%s
`,
		s.Threat,
		s.EvidenceSummary,
		strings.Join(s.SelectedPolicies, "\n"),
		s.GapsText,
		s.LinksText,
		citations,
	)

	report, err := p.client.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}
	s.FinalReport = report
	return nil
}

// renderCitationsBlock builds the per-gap citation listing, merging quotes
// by line number within each policy.
func renderCitationsBlock(s *State) string {
	if len(s.Gaps) == 0 {
		return "No line citations were generated."
	}
	var b strings.Builder
	for _, g := range s.Gaps {
		fmt.Fprintf(&b, "- **%s**\n", g.Title)
		fmt.Fprintf(&b, "  - %s:\n%s\n", s.Baseline, indentBlock(renderRefLines(g.Refs.Baseline), 4))
		fmt.Fprintf(&b, "  - %s:\n%s\n", s.Target, indentBlock(renderRefLines(g.Refs.Target), 4))
	}
	return b.String()
}

func renderRefLines(refs []Ref) string {
	merged := make(map[int][]string)
	for _, r := range refs {
		for _, ln := range r.Lines {
			merged[ln] = append(merged[ln], r.Quote)
		}
	}
	if len(merged) == 0 {
		return "none"
	}
	nums := make([]int, 0, len(merged))
	for ln := range merged {
		nums = append(nums, ln)
	}
	sort.Ints(nums)

	var lines []string
	for _, ln := range nums {
		quotes := merged[ln]
		sort.Strings(quotes)
		lines = append(lines, fmt.Sprintf("Line %d: %s", ln, strings.Join(quotes, "; ")))
	}
	return strings.Join(lines, "\n")
}

func indentBlock(text string, spaces int) string {
	pad := strings.Repeat(" ", spaces)
	split := strings.Split(text, "\n")
	for i, l := range split {
		split[i] = pad + l
	}
	return strings.Join(split, "\n")
}

// Export writes the final report to outPath with a generated header carrying
// the run ID and comparison pair. The parent directory is created as needed.
func (s *State) Export(outPath string) (string, error) {
	if s.FinalReport == "" {
		return "", fmt.Errorf("no report to export")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}

	header := fmt.Sprintf(
		"# Policy Gap Analysis: Evidence-Verified Report\n\n"+
			"Generated: %s | Run ID: %s\n\nBaseline: %s | Target: %s\n\n---\n\n",
		time.Now().Format("2006-01-02 15:04:05"), s.RunID, s.Baseline, s.Target,
	)
	if err := os.WriteFile(outPath, []byte(header+s.FinalReport+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return outPath, nil
}
