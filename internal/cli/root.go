package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alecf/tally/internal/llm"
	"github.com/alecf/tally/internal/output"
	"github.com/alecf/tally/internal/pricing"
	"github.com/alecf/tally/internal/spinner"
)

var (
	cfgFile  string
	verbose  bool
	quiet    bool
	noLedger bool
)

func Execute(version, commit, date string) error {
	rootCmd := &cobra.Command{
		Use:   "tally [flags] <question>",
		Short: "Ask an LLM and account for every token",
		Long: `tally sends a question to an OpenAI or xAI model, streams the answer and
reports token usage, cost and latency for the call.

Example:
  tally -m grok-3-mini how do I reverse a slice in Go`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:          cobra.MinimumNArgs(1),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/tally/config.toml)")
	rootCmd.PersistentFlags().StringP("model", "m", "", "model to query (default from config)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress messages")
	rootCmd.PersistentFlags().BoolVar(&noLedger, "no-ledger", false, "do not record usage for this run")

	// Query flags
	rootCmd.Flags().Float64("temperature", llm.DefaultTemperature, "sampling temperature (ignored by models that reject it)")
	rootCmd.Flags().Int("max-tokens", 0, "output token limit (0 for the model's default)")
	rootCmd.Flags().String("history", "", "JSON file of prior messages [{\"role\":...,\"content\":...}]")
	rootCmd.Flags().BoolP("json", "j", false, "JSON output with metadata")
	rootCmd.Flags().Bool("chunks", false, "include streamed chunks in JSON output")
	rootCmd.Flags().BoolP("tokens", "t", false, "show token usage and costs")
	rootCmd.Flags().Duration("replay-delay", 15*time.Millisecond, "pause between replayed chunks (0 prints at once)")

	// Management commands
	rootCmd.AddCommand(setupCmd())
	rootCmd.AddCommand(setModelCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(testConfigCmd())
	rootCmd.AddCommand(usageStatsCmd())
	rootCmd.AddCommand(clearUsageCmd())
	rootCmd.AddCommand(serveCmd())

	// Bind flags to viper
	viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("no-ledger", rootCmd.PersistentFlags().Lookup("no-ledger"))

	// Environment variable support
	viper.SetEnvPrefix("TALLY")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	req, err := requestFromFlags(cmd, args)
	if err != nil {
		return err
	}

	jsonFlag, _ := cmd.Flags().GetBool("json")
	chunksFlag, _ := cmd.Flags().GetBool("chunks")
	tokensFlag, _ := cmd.Flags().GetBool("tokens")
	replayDelay, _ := cmd.Flags().GetDuration("replay-delay")

	engine := newEngine(cfg, logger)

	model := req.Model
	if model == "" {
		model = engine.DefaultModel()
	}

	spin := spinner.New(fmt.Sprintf("Asking %s...", model))
	if !quiet && !jsonFlag {
		spin.Start()
	}

	result, err := engine.Query(cmd.Context(), req)
	spin.Stop()
	if err != nil {
		logger.Error("query failed", "kind", llm.KindOf(err), "model", model, "error", err)
		return fmt.Errorf("could not complete the request: %w", err)
	}

	var ledgerID string
	if ledgerEnabled() {
		entry, err := newLedger(cfg, logger).Record(result.Provider, "cli", result.Usage)
		if err != nil {
			logger.Warn("failed to record usage", "error", err)
		} else {
			ledgerID = entry.ID
		}
	}

	if jsonFlag {
		jsonOutput, err := output.FormatJSON(result, chunksFlag, ledgerID)
		if err != nil {
			return err
		}
		fmt.Println(jsonOutput)
		return nil
	}

	if err := output.Replay(cmd.Context(), os.Stdout, result.Chunks, replayDelay); err != nil {
		return err
	}
	fmt.Println()

	if tokensFlag {
		reg := engine.Registry()
		fmt.Println()
		fmt.Println(pricing.FormatTokenUsage(result.Usage, reg.PricingURL(result.Provider), llm.CatalogUpdated))
	}

	return nil
}

// requestFromFlags builds the stream request from the question and query flags
func requestFromFlags(cmd *cobra.Command, args []string) (llm.StreamRequest, error) {
	req := llm.StreamRequest{
		Query: strings.Join(args, " "),
		Model: viper.GetString("model"),
	}

	if cmd.Flags().Changed("temperature") {
		t, _ := cmd.Flags().GetFloat64("temperature")
		req.Temperature = &t
	}

	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	if maxTokens < 0 {
		return req, fmt.Errorf("--max-tokens must not be negative")
	}
	req.MaxOutputTokens = maxTokens

	if path, _ := cmd.Flags().GetString("history"); path != "" {
		history, err := loadHistory(path)
		if err != nil {
			return req, err
		}
		req.PriorMessages = history
	}

	return req, nil
}
