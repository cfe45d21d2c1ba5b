package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gapaudit/internal/index"
	"gapaudit/internal/jsonx"
)

// controlsQuery is the retrieval focus used against every selected policy.
const controlsQuery = "As an IT auditor, list controls relevant to user accounts, authentication, " +
	"password policy, lockout thresholds, monitoring and alerting, SSH and RDP hardening, " +
	"and brute-force mitigation."

// fallbackKeywords drive keyword retrieval when semantic search comes back
// empty for a policy.
var fallbackKeywords = []string{
	"password", "lockout", "failed attempt", "account",
	"SSH", "RDP", "review", "monitor",
}

const snippetTopK = 10

// buildPolicyIndexes chunks and embeds every policy file into its own vector
// index. Already indexed policies are left alone so callers can supply
// prebuilt indexes. Missing files are skipped. Indexing runs one goroutine
// per policy.
func (p *Pipeline) buildPolicyIndexes(ctx context.Context, s *State) error {
	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for _, path := range s.PolicyPaths {
		if _, ok := s.Indexes[path]; ok {
			continue
		}

		path := path
		g.Go(func() error {
			raw, err := os.ReadFile(path)
			if err != nil {
				p.log.Warn("policy file not readable", zap.String("path", path), zap.Error(err))
				return nil
			}
			text := string(raw)

			idx, err := index.Open(":memory:", path, p.engine)
			if err != nil {
				return fmt.Errorf("index for %s: %w", path, err)
			}
			chunks := index.LineWindows(path, text, p.windowChars, p.overlapLines)
			if err := idx.Add(ctx, chunks); err != nil {
				idx.Close()
				return fmt.Errorf("indexing %s: %w", path, err)
			}

			mu.Lock()
			s.PolicyTexts[path] = text
			s.Indexes[path] = idx
			mu.Unlock()
			p.log.Debug("policy indexed",
				zap.String("source", idx.Source()), zap.Int("chunks", len(chunks)))
			return nil
		})
	}
	return g.Wait()
}

// selectPolicies decides which policies to audit. A manual selection of at
// least two paths is trusted as-is. Otherwise the model picks up to
// MaxPolicyChoices paths; if its answer does not parse, the first
// MaxPolicyChoices candidates are used.
func (p *Pipeline) selectPolicies(ctx context.Context, s *State) error {
	maxK := s.MaxPolicyChoices
	if maxK < 1 {
		maxK = 2
	}

	if len(s.SelectedPolicies) >= 2 {
		return nil
	}

	candidates := make([]string, 0, len(s.PolicyTexts))
	for path := range s.PolicyTexts {
		candidates = append(candidates, path)
	}
	sort.Strings(candidates)
	if len(candidates) == 0 {
		return fmt.Errorf("no policy documents were loaded")
	}

	if len(candidates) <= maxK {
		s.SelectedPolicies = candidates
		return nil
	}

	prompt := fmt.Sprintf(`Given this threat and evidence, pick up to %d most relevant policy documents (by file path) to review first.
Return as a JSON array of strings (file paths), no commentary.

Threat:
%s

Evidence summary:
%s

Candidate policy files:
%s
`, maxK, s.Threat, s.EvidenceSummary, strings.Join(candidates, "\n"))

	raw, err := p.client.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("policy selection failed: %w", err)
	}

	chosen := parseSelection(raw, candidates)
	if len(chosen) == 0 {
		chosen = candidates
	}
	if len(chosen) > maxK {
		chosen = chosen[:maxK]
	}
	s.SelectedPolicies = chosen
	return nil
}

// parseSelection extracts a JSON string array from model output and keeps
// only entries that name known candidates.
func parseSelection(raw string, candidates []string) []string {
	arr, ok := jsonx.FirstArray(raw)
	if !ok {
		return nil
	}
	var paths []string
	if err := json.Unmarshal([]byte(arr), &paths); err != nil {
		return nil
	}

	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c] = true
	}
	var out []string
	for _, p := range paths {
		if known[p] {
			out = append(out, p)
		}
	}
	return out
}

// readPolicies retrieves the account and authentication controls from each
// selected policy: a semantic search for the controls query, a keyword sweep
// when that comes back empty, then a model summary over the snippets found.
func (p *Pipeline) readPolicies(ctx context.Context, s *State) error {
	for _, path := range s.SelectedPolicies {
		idx, ok := s.Indexes[path]
		if !ok {
			continue
		}

		snips, err := idx.Search(ctx, controlsQuery, snippetTopK)
		if err != nil {
			p.log.Warn("semantic retrieval failed",
				zap.String("path", path), zap.Error(err))
		}
		if len(snips) == 0 {
			for _, kw := range fallbackKeywords {
				more, err := idx.SearchKeyword(ctx, kw, snippetTopK)
				if err != nil {
					continue
				}
				snips = append(snips, more...)
			}
			snips = dedupeSnippets(snips)
		}
		if len(snips) == 0 {
			continue
		}
		s.Snippets[path] = snips

		summary, err := p.summarizeControls(ctx, path, snips)
		if err != nil {
			return err
		}
		s.ControlSummaries[path] = summary
	}

	if len(s.Snippets) == 0 {
		return fmt.Errorf("no policy content retrieved for any selected policy")
	}
	return nil
}

func (p *Pipeline) summarizeControls(ctx context.Context, path string, snips []index.Scored) (string, error) {
	var b strings.Builder
	for _, sn := range snips {
		fmt.Fprintf(&b, "[lines %d-%d]\n%s\n\n", sn.LineStart, sn.LineEnd, sn.Content)
	}
	prompt := fmt.Sprintf(`%s

Policy document: %s
Excerpts:
%s`, controlsQuery, path, b.String())

	summary, err := p.client.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("control summary for %s: %w", path, err)
	}
	return summary, nil
}

// dedupeSnippets drops duplicate (source, line range) entries, keeping the
// first occurrence.
func dedupeSnippets(snips []index.Scored) []index.Scored {
	type key struct {
		source     string
		start, end int
	}
	seen := make(map[key]bool, len(snips))
	var out []index.Scored
	for _, sn := range snips {
		k := key{sn.Source, sn.LineStart, sn.LineEnd}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, sn)
	}
	return out
}
