package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fin-agents/internal/app"
	"fin-agents/internal/config"
	"fin-agents/internal/logger"
	"fin-agents/internal/secrets"
)

var (
	apiKey   string
	model    string
	provider string
	verbose  bool

	// deps is populated by PersistentPreRunE; tests assign it directly.
	deps app.Deps
)

var rootCmd = &cobra.Command{
	Use:   "finctl",
	Short: "Balance-sheet ratios and AI commentary from the command line",
	Long: `finctl reads a two-period statement (label, prior period, current period)
from an XLSX or CSV file, computes growth and asset-structure ratios and the
current ratio, and can ask the configured model for a written assessment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupDeps(cmd.ErrOrStderr())
	},
}

var ratiosCmd = &cobra.Command{
	Use:   "ratios FILE",
	Short: "Print the augmented table and the current ratio",
	Args:  cobra.ExactArgs(1),
	RunE:  runRatios,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Print the ratios followed by the model's commentary",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the financial assistant",
	Long: `Starts an interactive conversation. Context is kept for the lifetime of
the command. Type /quit or send EOF to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key (overrides the configured secret)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Model name (default: LLM_MODEL)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider: gemini or openai (default: LLM_PROVIDER)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(ratiosCmd, analyzeCmd, chatCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func setupDeps(logOut io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	if provider != "" {
		cfg.LLMProvider = provider
	}
	if model != "" {
		cfg.LLMModel = model
	}
	level := "warn"
	if verbose {
		level = "debug"
	}

	var store secrets.Store
	if apiKey != "" {
		store = secrets.Static{cfg.SecretName: apiKey}
	}
	d, err := app.BuildWith(cfg, logger.NewWithWriter(logOut, level, logger.FormatText), store)
	if err != nil {
		return err
	}
	deps = d
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
