// Package cli provides the command-line interface for pdfask.
package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pdfask/internal/backend"
	"pdfask/internal/config"
	"pdfask/internal/logging"
	"pdfask/internal/tui"
	"pdfask/internal/workflow"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	cfgPath string
	baseURL string
	verbose bool

	cfg    *config.AppConfig
	log    *zap.Logger
	client *backend.Client
)

// rootCmd runs the interactive wizard when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "pdfask",
	Short: "Upload a PDF and ask questions about it",
	Long: `pdfask uploads a PDF to a document ingest service and lets you ask
natural-language questions about it, showing the answer and the most
relevant text fragments.

Without a subcommand it starts an interactive two-step wizard:
upload a document, then ask questions.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	Args:              cobra.NoArgs,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: runTUI,
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if baseURL != "" {
		cfg.Backend.BaseURL = baseURL
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	log, err = logging.New(cfg.Log, logsToConsole(cmd))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	client = backend.NewClient(backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		IngestPath: cfg.Backend.IngestPath,
		QueryPath:  cfg.Backend.QueryPath,
		HealthPath: cfg.Backend.HealthPath,
		StatsPath:  cfg.Backend.StatsPath,
		Timeout:    cfg.Backend.Timeout(),
	}, log)
	log.Debug("configured", zap.String("command", cmd.Name()), zap.String("base_url", client.BaseURL()))
	return nil
}

// logsToConsole is false for the bare root command: the wizard owns the
// terminal, so it only logs to file.
func logsToConsole(cmd *cobra.Command) bool { return cmd.HasParent() }

func runTUI(cmd *cobra.Command, args []string) error {
	session := workflow.NewSession(client, client, log)
	m := tui.New(session, client)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config (default ./config.yaml or ~/.config/pdfask/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "backend base URL, overrides config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(stubCmd)
}
