package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecf/tally/internal/config"
	"github.com/alecf/tally/internal/ledger"
	"github.com/alecf/tally/internal/llm"
	"github.com/alecf/tally/internal/pricing"
	"github.com/alecf/tally/internal/server"
	"github.com/alecf/tally/internal/spinner"
	"github.com/alecf/tally/internal/telemetry"
)

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List supported models with pricing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			models := llm.DefaultRegistry().Models()

			if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
				data, err := json.MarshalIndent(models, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Models (prices per 1M tokens, as of %s):\n\n", llm.CatalogUpdated.Format("2006-01-02"))
			for _, m := range models {
				marker := " "
				if m.ID == cfg.DefaultModel {
					marker = "*"
				}

				details := "no capability data"
				if c := m.Capabilities; c != nil {
					temp := "temperature"
					if !c.SupportsTemperature {
						temp = "no temperature"
					}
					details = fmt.Sprintf("%s, %s", temp, c.TokenLimitParam)
					if c.ContextWindow > 0 {
						details += fmt.Sprintf(", %s ctx", pricing.FormatNumber(int64(c.ContextWindow)))
					}
				}

				fmt.Printf("%s %-26s %-7s in $%6.2f  out $%6.2f  (%s)\n",
					marker, m.ID, m.Provider, m.Pricing.InputPerMillion, m.Pricing.OutputPerMillion, details)
			}

			fmt.Println("\n* = default model")
			return nil
		},
	}
	cmd.Flags().BoolP("json", "j", false, "JSON output")
	return cmd
}

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare --models a,b <question>",
		Short: "Ask several models the same question concurrently",
		Long: `Send one question to several models at once and compare answers, tokens and cost.

Example:
  tally compare --models gpt-4o-mini,grok-3-mini what is a goroutine`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			models, _ := cmd.Flags().GetStringSlice("models")
			if len(models) < 2 {
				return fmt.Errorf("compare needs at least two models")
			}

			req, err := requestFromFlags(cmd, args)
			if err != nil {
				return err
			}

			engine := newEngine(cfg, logger)

			spin := spinner.New(fmt.Sprintf("Asking %d models...", len(models)))
			if !quiet {
				spin.Start()
			}
			results := engine.Compare(cmd.Context(), req, models)
			spin.Stop()

			var l *ledger.Ledger
			if ledgerEnabled() {
				l = newLedger(cfg, logger)
			}

			failed := 0
			for _, c := range results {
				fmt.Printf("=== %s\n", c.Model)
				if c.Err != nil {
					failed++
					logger.Error("query failed", "kind", llm.KindOf(c.Err), "model", c.Model, "error", c.Err)
					fmt.Printf("could not complete the request (%s)\n\n", llm.KindOf(c.Err))
					continue
				}

				if l != nil {
					if _, err := l.Record(c.Result.Provider, "cli", c.Result.Usage); err != nil {
						logger.Warn("failed to record usage", "error", err)
					}
				}

				u := c.Result.Usage
				fmt.Println(c.Result.Content)
				fmt.Printf("\n[%s in / %s out tokens, $%.6f, %d ms]\n\n",
					pricing.FormatNumber(u.InputTokens), pricing.FormatNumber(u.OutputTokens), u.TotalCost, u.LatencyMs)
			}

			if failed == len(results) {
				return fmt.Errorf("all %d queries failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("models", nil, "comma-separated models to compare")
	cmd.Flags().Float64("temperature", llm.DefaultTemperature, "sampling temperature (ignored by models that reject it)")
	cmd.Flags().Int("max-tokens", 0, "output token limit (0 for the model's default)")
	cmd.Flags().String("history", "", "JSON file of prior messages")
	return cmd
}

func testConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-config",
		Short: "Validate configuration and provider credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			reg := llm.DefaultRegistry()
			hasErrors := false

			fmt.Printf("Default model %s... ", cfg.DefaultModel)
			if _, err := reg.Lookup(cfg.DefaultModel); err != nil {
				fmt.Println("❌ not a known model")
				hasErrors = true
			} else {
				fmt.Println("✓")
			}

			for _, p := range llm.Providers {
				key, env := cfg.GetAPIKey(p)
				fmt.Printf("Provider %s (%s)... ", p, env)
				if key == "" {
					fmt.Printf("❌ Missing %s\n", env)
					hasErrors = true
					continue
				}
				fmt.Println("✓")
			}

			if hasErrors {
				return fmt.Errorf("some settings have configuration issues")
			}

			fmt.Println("\n✓ All providers configured correctly")
			return nil
		},
	}
}

func usageStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage-stats",
		Short: "Show recorded token usage and cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			l := newLedger(cfg, logger)
			stats, err := l.GetStats()
			if err != nil {
				return fmt.Errorf("failed to get usage stats: %w", err)
			}

			fmt.Printf("Usage Statistics:\n")
			fmt.Printf("  Queries:          %d\n", stats.TotalEntries)
			fmt.Printf("  Input tokens:     %s\n", pricing.FormatNumber(stats.TotalInputTokens))
			fmt.Printf("  Output tokens:    %s\n", pricing.FormatNumber(stats.TotalOutputTokens))
			fmt.Printf("  Total tokens:     %s\n", pricing.FormatNumber(stats.TotalTokens))
			fmt.Printf("  Total cost:       $%.6f\n", stats.TotalCost)

			if stats.OldestEntry != nil {
				fmt.Printf("  Oldest entry:     %s\n", stats.OldestEntry.Local().Format("2006-01-02 15:04:05"))
			}
			if stats.NewestEntry != nil {
				fmt.Printf("  Newest entry:     %s\n", stats.NewestEntry.Local().Format("2006-01-02 15:04:05"))
			}

			fmt.Printf("  Ledger directory: %s\n", l.Dir())
			fmt.Printf("  Max age:          %d days\n", cfg.LedgerDays)

			if len(stats.ByModel) > 0 {
				names := make([]string, 0, len(stats.ByModel))
				for name := range stats.ByModel {
					names = append(names, name)
				}
				sort.Strings(names)

				fmt.Printf("\nBy model:\n")
				for _, name := range names {
					t := stats.ByModel[name]
					fmt.Printf("  %-26s %4d queries  %10s tokens  $%.6f\n",
						truncate(name, 26), t.Queries, pricing.FormatNumber(t.TotalTokens), t.TotalCost)
				}
			}

			return nil
		},
	}
}

func clearUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-usage",
		Short: "Delete all recorded usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			removed, err := ledger.New(config.GetLedgerDir(), cfg.LedgerDays).Clear()
			if err != nil {
				return fmt.Errorf("failed to clear usage: %w", err)
			}

			fmt.Printf("Cleared %d usage entries\n", removed)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query engine over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			if exporter, _ := cmd.Flags().GetString("trace"); exporter != "" {
				cfg.Telemetry.Exporter = exporter
			}

			shutdownTracer, err := telemetry.InitTracer("tally", cmd.Root().Version, cfg.Telemetry)
			if err != nil {
				return fmt.Errorf("failed to init tracer: %w", err)
			}
			defer shutdownTracer()

			var l *ledger.Ledger
			if ledgerEnabled() {
				l = newLedger(cfg, logger)
			}

			handler := server.NewHandler(newEngine(cfg, logger), l, logger)

			// Responses are written only after the whole stream is read
			writeTimeout := time.Duration(0)
			if t := cfg.RequestTimeout(); t > 0 {
				writeTimeout = t + 30*time.Second
			}

			srv := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      server.NewRouter(handler),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: writeTimeout,
				IdleTimeout:  120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("tally listening", "addr", cfg.Server.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("forced shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config)")
	cmd.Flags().String("trace", "", "trace exporter: stdout or otlp")
	return cmd
}
