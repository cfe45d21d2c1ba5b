// Package pipeline runs the policy gap audit: load log evidence, index policy
// documents, retrieve the relevant controls, compare baseline against target,
// validate the gaps against the evidence, and assemble a cited report.
package pipeline

import (
	"github.com/google/uuid"

	"gapaudit/internal/index"
)

// EvidencePlan records what evidence the threat calls for.
type EvidencePlan struct {
	NeedWindowsLogs bool
	LogGlob         string
}

// Ref cites a policy passage a gap relies on. Lines are 1-based numbers in
// the source document; an empty slice means the quote could not be located.
type Ref struct {
	Quote string `json:"quote"`
	Lines []int  `json:"lines"`
}

// GapRefs splits citations by which policy they point into.
type GapRefs struct {
	Baseline []Ref `json:"baseline"`
	Target   []Ref `json:"target"`
}

// Gap is one control present in the baseline policy but weak or absent in
// the target.
type Gap struct {
	Title       string  `json:"gap"`
	Why         string  `json:"why"`
	Remediation string  `json:"remediation"`
	Refs        GapRefs `json:"refs"`
}

// EvidenceLink ties a gap back to concrete log indicators. Verified is false
// when the model could not point at supporting evidence.
type EvidenceLink struct {
	Gap        string `json:"gap"`
	Linkage    string `json:"evidence_linkage"`
	Impact     string `json:"likely_impact"`
	Confidence string `json:"confidence"`
	Verified   bool   `json:"-"`
}

// State carries the audit through the node sequence. Each node reads what
// earlier nodes wrote and fills in its own fields.
type State struct {
	RunID string

	// Inputs.
	Threat           string
	LogGlob          string
	PolicyPaths      []string
	SelectedPolicies []string
	MaxPolicyChoices int
	Baseline         string
	Target           string

	// Evidence.
	Plan            EvidencePlan
	LogsText        string
	LogRows         int
	LogErrors       []string
	EvidenceSummary string

	// Policies.
	PolicyTexts      map[string]string
	Indexes          map[string]*index.Index
	ControlSummaries map[string]string
	Snippets         map[string][]index.Scored

	// Analysis.
	Gaps        []Gap
	GapsText    string
	Links       []EvidenceLink
	LinksText   string
	FinalReport string
}

// NewState seeds a run with its inputs and a fresh run ID.
func NewState(threat, logGlob string, policyPaths []string) *State {
	return &State{
		RunID:            uuid.New().String(),
		Threat:           threat,
		LogGlob:          logGlob,
		PolicyPaths:      policyPaths,
		MaxPolicyChoices: 2,
		PolicyTexts:      make(map[string]string),
		Indexes:          make(map[string]*index.Index),
		ControlSummaries: make(map[string]string),
		Snippets:         make(map[string][]index.Scored),
	}
}

// Close releases the per-policy indexes.
func (s *State) Close() {
	for _, idx := range s.Indexes {
		idx.Close()
	}
}
