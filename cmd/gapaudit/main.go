package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gapaudit/internal/config"
	"gapaudit/internal/logging"
)

var (
	// Global flags
	debug      bool
	configPath string
	modelName  string

	// Logger
	logger *zap.Logger
)

// exitError carries a process exit code through cobra's error path.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gapaudit",
	Short: "gapaudit - policy gap auditing with evidence-verified citations",
	Long: `gapaudit routes natural language requests to registered actions and runs
policy gap audits: it loads log evidence, retrieves the relevant controls
from policy documents, compares a baseline against a target policy, and
produces a report whose findings cite exact policy line numbers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.File, debug)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: gapaudit.yaml)")
	rootCmd.PersistentFlags().StringVarP(&modelName, "model", "m", "", "Model name override")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
