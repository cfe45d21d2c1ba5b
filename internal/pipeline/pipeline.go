package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gapaudit/internal/embedding"
	"gapaudit/internal/index"
	"gapaudit/internal/llm"
)

// Node is one step of the audit. Nodes run in order; a node error aborts
// the run.
type Node struct {
	Name string
	Run  func(ctx context.Context, s *State) error
}

// Pipeline wires the model client and embedding engine through the fixed
// node sequence.
type Pipeline struct {
	client llm.Client
	engine embedding.Engine
	log    *zap.Logger

	windowChars  int
	overlapLines int
}

// New builds a Pipeline. A nil logger disables logging.
func New(client llm.Client, engine embedding.Engine, log *zap.Logger) (*Pipeline, error) {
	if client == nil {
		return nil, fmt.Errorf("pipeline requires a model client")
	}
	if engine == nil {
		return nil, fmt.Errorf("pipeline requires an embedding engine")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		client:       client,
		engine:       engine,
		log:          log,
		windowChars:  index.DefaultWindowChars,
		overlapLines: index.DefaultOverlapLines,
	}, nil
}

// Nodes returns the audit sequence in execution order.
func (p *Pipeline) Nodes() []Node {
	return []Node{
		{Name: "plan_evidence", Run: p.planEvidence},
		{Name: "load_logs", Run: p.loadLogs},
		{Name: "analyze_evidence", Run: p.analyzeEvidence},
		{Name: "build_policy_indexes", Run: p.buildPolicyIndexes},
		{Name: "select_policies", Run: p.selectPolicies},
		{Name: "read_policies", Run: p.readPolicies},
		{Name: "compare_policies", Run: p.comparePolicies},
		{Name: "validate_vs_evidence", Run: p.validateVsEvidence},
		{Name: "finalize_report", Run: p.finalizeReport},
	}
}

// Invoke runs every node against the state, stopping at the first failure.
func (p *Pipeline) Invoke(ctx context.Context, s *State) error {
	for _, n := range p.Nodes() {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.log.Debug("node start", zap.String("node", n.Name), zap.String("run_id", s.RunID))
		if err := n.Run(ctx, s); err != nil {
			p.log.Error("node failed", zap.String("node", n.Name), zap.Error(err))
			return fmt.Errorf("%s: %w", n.Name, err)
		}
		p.log.Debug("node done", zap.String("node", n.Name))
	}
	return nil
}
