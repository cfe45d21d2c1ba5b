package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gapaudit/internal/config"
	"gapaudit/internal/embedding"
	"gapaudit/internal/llm"
	"gapaudit/internal/pipeline"
)

var (
	reportThreat   string
	reportLogs     string
	reportPolicies []string
	reportBaseline string
	reportTarget   string
	reportOut      string
	reportPretty   bool
	reportWatch    bool
)

// reportCmd runs the gap audit pipeline end to end.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run a policy gap audit and produce an evidence-verified report",
	Long: `Loads CSV log evidence, indexes the given policy documents, compares the
baseline policy against the target, validates each gap against the evidence,
and writes a markdown report with per-gap policy line citations.

Example:
  gapaudit report \
    --threat "Repeated failed logons via OpenSSH (Event ID 4625)" \
    --logs "logs/*.csv" \
    --policy policy/cis_account_controls.txt \
    --policy policy/user_account_policy.txt`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportThreat, "threat", "", "Threat description driving the audit (required)")
	reportCmd.Flags().StringVar(&reportLogs, "logs", "", "Glob for CSV log evidence (default from config)")
	reportCmd.Flags().StringArrayVar(&reportPolicies, "policy", nil, "Policy text file (repeatable, at least two)")
	reportCmd.Flags().StringVar(&reportBaseline, "baseline", "", "Baseline policy path (default: first selected)")
	reportCmd.Flags().StringVar(&reportTarget, "target", "", "Target policy path (default: second selected)")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "Report output path (default from config)")
	reportCmd.Flags().BoolVar(&reportPretty, "pretty", false, "Render the report to the terminal")
	reportCmd.Flags().BoolVar(&reportWatch, "watch", false, "Re-run the audit when log files change")
	_ = reportCmd.MarkFlagRequired("threat")
	_ = reportCmd.MarkFlagRequired("policy")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if modelName != "" {
		cfg.LLM.Model = modelName
	}
	if reportLogs == "" {
		reportLogs = cfg.Report.LogGlob
	}
	if reportOut == "" {
		reportOut = cfg.Report.OutputPath
	}
	if len(reportPolicies) < 2 {
		return fmt.Errorf("need at least two --policy files, got %d", len(reportPolicies))
	}

	client, err := llm.NewClient(cfg.ProviderConfig())
	if err != nil {
		return err
	}
	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		return err
	}

	p, err := pipeline.New(client, engine, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func() error {
		s := pipeline.NewState(reportThreat, reportLogs, reportPolicies)
		defer s.Close()
		s.MaxPolicyChoices = cfg.Report.MaxPolicyChoices
		s.Baseline = reportBaseline
		s.Target = reportTarget
		if reportBaseline != "" && reportTarget != "" {
			s.SelectedPolicies = []string{reportBaseline, reportTarget}
		}

		if err := p.Invoke(ctx, s); err != nil {
			return err
		}
		path, err := s.Export(reportOut)
		if err != nil {
			return err
		}
		logger.Info("report written",
			zap.String("path", path), zap.String("run_id", s.RunID))

		if reportPretty {
			return renderPretty(s.FinalReport)
		}
		fmt.Println(path)
		return nil
	}

	if err := runOnce(); err != nil {
		return err
	}
	if !reportWatch {
		return nil
	}

	w, err := pipeline.NewWatcher(reportLogs, func() {
		logger.Info("log change detected, re-running audit")
		if err := runOnce(); err != nil {
			logger.Error("audit re-run failed", zap.Error(err))
		}
	}, logger)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintln(os.Stderr, "Watching for log changes. Ctrl-C to stop.")
	<-ctx.Done()
	return nil
}

func renderPretty(markdown string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(markdown)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
