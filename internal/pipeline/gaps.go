package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gapaudit/internal/index"
	"gapaudit/internal/jsonx"
)

// snippetCharCap bounds how much of one snippet enters the compare prompt.
const snippetCharCap = 1200

// fuzzyCutoff is the minimum per-line similarity for a quote to count as
// located when exact containment fails.
const fuzzyCutoff = 0.80

const maxFuzzyCandidates = 3

type snippetRef struct {
	Source    string `json:"source"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
	Text      string `json:"text"`
}

type rawRef struct {
	Quote string `json:"quote"`
}

type rawGap struct {
	Gap          string   `json:"gap"`
	Why          string   `json:"why"`
	Remediation  string   `json:"remediation"`
	BaselineRefs []rawRef `json:"baseline_refs"`
	TargetRefs   []rawRef `json:"target_refs"`
}

// comparePolicies has the model compare baseline against target using only
// the retrieved snippets, then anchors every quoted citation to line numbers
// in the full policy text.
func (p *Pipeline) comparePolicies(ctx context.Context, s *State) error {
	baseline, target, err := pickComparisonPair(s)
	if err != nil {
		return err
	}
	s.Baseline = baseline
	s.Target = target

	payload := struct {
		BaselineSnippets []snippetRef `json:"baseline_snippets"`
		TargetSnippets   []snippetRef `json:"target_snippets"`
	}{
		BaselineSnippets: toSnippetRefs(s.Snippets[baseline]),
		TargetSnippets:   toSnippetRefs(s.Snippets[target]),
	}
	ctxJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	prompt := fmt.Sprintf(`You are an auditor. Compare Baseline (Policy A) vs Target (Policy B). Use ONLY the provided snippets; do not invent citations.
Return a JSON array of gaps. Each gap:
{"gap": "<short title>", "why": "<1-2 sentence risk rationale>", "remediation": "<specific fix>",
 "baseline_refs": [{"quote": "<verbatim short quote from a baseline snippet>"}],
 "target_refs": [{"quote": "<verbatim short quote from a target snippet, or empty if the control is missing>"}]}
Copy each quote verbatim from the snippet text you used.

SNIPPETS JSON:
%s

Baseline control summary:
%s

Target control summary:
%s

Return JSON only.`, ctxJSON, s.ControlSummaries[baseline], s.ControlSummaries[target])

	raw, err := p.client.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("policy comparison failed: %w", err)
	}

	arr, ok := jsonx.FirstArray(raw)
	if !ok {
		return fmt.Errorf("comparison output contains no JSON array: %q", truncate(raw, 200))
	}
	var rawGaps []rawGap
	if err := json.Unmarshal([]byte(arr), &rawGaps); err != nil {
		return fmt.Errorf("comparison JSON did not decode: %w", err)
	}
	if len(rawGaps) == 0 {
		return fmt.Errorf("comparison produced no gaps")
	}

	baseLines := numberLines(s.PolicyTexts[baseline])
	targetLines := numberLines(s.PolicyTexts[target])

	s.Gaps = s.Gaps[:0]
	for _, rg := range rawGaps {
		s.Gaps = append(s.Gaps, Gap{
			Title:       rg.Gap,
			Why:         rg.Why,
			Remediation: rg.Remediation,
			Refs: GapRefs{
				Baseline: anchorRefs(rg.BaselineRefs, baseLines),
				Target:   anchorRefs(rg.TargetRefs, targetLines),
			},
		})
	}
	s.GapsText = renderGaps(s.Gaps, baseline, target)
	return nil
}

// pickComparisonPair returns the baseline and target documents. Explicit
// Baseline/Target settings win when both point at selected policies;
// otherwise the first two selected policies are compared in order.
func pickComparisonPair(s *State) (string, string, error) {
	selected := make(map[string]bool, len(s.SelectedPolicies))
	for _, p := range s.SelectedPolicies {
		selected[p] = true
	}
	if s.Baseline != "" && s.Target != "" && selected[s.Baseline] && selected[s.Target] {
		return s.Baseline, s.Target, nil
	}
	if len(s.SelectedPolicies) < 2 {
		return "", "", fmt.Errorf("need at least two policies to compare, have %d", len(s.SelectedPolicies))
	}
	return s.SelectedPolicies[0], s.SelectedPolicies[1], nil
}

func toSnippetRefs(snips []index.Scored) []snippetRef {
	out := make([]snippetRef, 0, len(snips))
	for _, sn := range snips {
		if sn.Content == "" {
			continue
		}
		out = append(out, snippetRef{
			Source:    sn.Source,
			LineStart: sn.LineStart,
			LineEnd:   sn.LineEnd,
			Text:      truncate(sn.Content, snippetCharCap),
		})
	}
	return out
}

func anchorRefs(refs []rawRef, lines []numberedLine) []Ref {
	out := make([]Ref, 0, len(refs))
	for _, r := range refs {
		quote := strings.TrimSpace(r.Quote)
		if quote == "" {
			continue
		}
		out = append(out, Ref{
			Quote: quote,
			Lines: findBestLineNumbers(lines, quote),
		})
	}
	return out
}

func renderGaps(gaps []Gap, baseline, target string) string {
	var b strings.Builder
	for _, g := range gaps {
		fmt.Fprintf(&b, "- **%s**: %s\n", g.Title, g.Why)
		fmt.Fprintf(&b, "  - Remediation: %s\n", g.Remediation)
		fmt.Fprintf(&b, "  - %s lines: %s\n", baseline, renderLines(g.Refs.Baseline))
		fmt.Fprintf(&b, "  - %s lines: %s\n", target, renderLines(g.Refs.Target))
	}
	return b.String()
}

func renderLines(refs []Ref) string {
	var parts []string
	for _, r := range refs {
		for _, ln := range r.Lines {
			parts = append(parts, fmt.Sprintf("%d", ln))
		}
	}
	if len(parts) == 0 {
		return "n/a"
	}
	return strings.Join(parts, ", ")
}

type numberedLine struct {
	Num  int
	Text string
}

// numberLines splits text into 1-based numbered lines. Empty lines count
// towards numbering.
func numberLines(text string) []numberedLine {
	split := strings.Split(text, "\n")
	out := make([]numberedLine, len(split))
	for i, l := range split {
		out[i] = numberedLine{Num: i + 1, Text: l}
	}
	return out
}

// findBestLineNumbers locates a quote in the numbered text. Exact normalized
// containment wins; otherwise the closest lines by bigram similarity above
// the cutoff are reported.
func findBestLineNumbers(lines []numberedLine, quote string) []int {
	if quote == "" {
		return nil
	}
	norm := normalizeSpace(quote)

	var hits []int
	for _, l := range lines {
		if strings.Contains(normalizeSpace(l.Text), norm) {
			hits = append(hits, l.Num)
		}
	}
	if len(hits) > 0 {
		return hits
	}

	type scored struct {
		num   int
		score float64
	}
	var candidates []scored
	for _, l := range lines {
		sc := bigramSimilarity(norm, normalizeSpace(l.Text))
		if sc >= fuzzyCutoff {
			candidates = append(candidates, scored{l.Num, sc})
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	// Keep the few best.
	for i := 0; i < len(candidates) && i < maxFuzzyCandidates; i++ {
		best := i
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].score > candidates[best].score {
				best = j
			}
		}
		candidates[i], candidates[best] = candidates[best], candidates[i]
		hits = append(hits, candidates[i].num)
	}
	return hits
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// bigramSimilarity is the Sorensen-Dice coefficient over character bigrams.
func bigramSimilarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}

	grams := make(map[string]int)
	for i := 0; i+2 <= len(a); i++ {
		grams[a[i:i+2]]++
	}
	var overlap int
	for i := 0; i+2 <= len(b); i++ {
		g := b[i : i+2]
		if grams[g] > 0 {
			grams[g]--
			overlap++
		}
	}
	return 2 * float64(overlap) / float64(len(a)-1+len(b)-1)
}

// validateVsEvidence asks the model to tie each gap to concrete log
// indicators. Gaps the model cannot support are marked unverified.
func (p *Pipeline) validateVsEvidence(ctx context.Context, s *State) error {
	gapsJSON, err := json.Marshal(s.Gaps)
	if err != nil {
		return err
	}

	prompt := fmt.Sprintf(`You are a cyber incident investigator.
Given the structured gaps (JSON) and the evidence summary, return a JSON array.
For each gap, include:
- gap
- evidence_linkage: 1-2 sentences citing concrete indicators (event IDs, timestamps, IPs, accounts); empty string if the evidence does not support the gap
- likely_impact: short phrase
- confidence: low/medium/high

Return ONLY valid JSON (no prose).

Structured Gaps JSON:
%s

Evidence Summary:
%s
`, gapsJSON, s.EvidenceSummary)

	raw, err := p.client.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("evidence validation failed: %w", err)
	}

	arr, ok := jsonx.FirstArray(raw)
	if !ok {
		return fmt.Errorf("validation output contains no JSON array: %q", truncate(raw, 200))
	}
	var links []EvidenceLink
	if err := json.Unmarshal([]byte(arr), &links); err != nil {
		return fmt.Errorf("validation JSON did not decode: %w", err)
	}

	for i := range links {
		conf := strings.ToLower(strings.TrimSpace(links[i].Confidence))
		links[i].Verified = strings.TrimSpace(links[i].Linkage) != "" && conf != "low" && conf != ""
	}
	s.Links = links
	s.LinksText = renderLinks(links)
	return nil
}

func renderLinks(links []EvidenceLink) string {
	var b strings.Builder
	for _, l := range links {
		status := "verified"
		if !l.Verified {
			status = "unverified"
		}
		fmt.Fprintf(&b, "- **%s** (%s): %s | Impact: %s | Confidence: %s\n",
			l.Gap, status, l.Linkage, l.Impact, l.Confidence)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
