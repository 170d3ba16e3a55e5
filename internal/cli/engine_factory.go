package cli

import (
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/viper"

	"github.com/alecf/tally/internal/config"
	"github.com/alecf/tally/internal/ledger"
	"github.com/alecf/tally/internal/llm"
	"github.com/alecf/tally/internal/query"
)

// setup loads configuration, applying flag and environment overrides
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	if level := viper.GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, newLogger(cfg.LogLevel), nil
}

// newEngine builds the query engine and the client cache it owns
func newEngine(cfg *config.Config, logger *slog.Logger) *query.Engine {
	opts := []llm.CacheOption{
		llm.WithLogger(logger),
		llm.WithHTTPClient(newHTTPClient()),
	}
	for _, p := range llm.Providers {
		opts = append(opts, llm.WithBaseURL(p, cfg.BaseURL(p)))
	}

	clients := llm.NewClientCache(cfg.GetAPIKey, opts...)

	return query.New(llm.DefaultRegistry(), clients,
		query.WithDefaultModel(cfg.DefaultModel),
		query.WithTimeout(cfg.RequestTimeout()),
		query.WithLogger(logger),
	)
}

// newHTTPClient bounds connection setup only; the query timeout bounds the stream
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 4,
			ForceAttemptHTTP2:   true,
		},
	}
}

// ledgerEnabled reports whether usage should be recorded (--no-ledger, TALLY_NO_LEDGER)
func ledgerEnabled() bool {
	return !viper.GetBool("no-ledger")
}

// newLedger opens the usage ledger and prunes expired entries
func newLedger(cfg *config.Config, logger *slog.Logger) *ledger.Ledger {
	l := ledger.New(config.GetLedgerDir(), cfg.LedgerDays)
	if removed, err := l.CleanExpired(); err != nil {
		logger.Warn("failed to prune usage ledger", "error", err)
	} else if removed > 0 {
		logger.Debug("pruned usage ledger", "removed", removed)
	}
	return l
}

// newLogger creates a logger for CLI commands that writes to stderr
func newLogger(level string) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: parseLogLevel(level),
	}))
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
