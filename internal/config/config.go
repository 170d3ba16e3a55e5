package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/alecf/tally/internal/llm"
)

// Config represents the entire tally configuration
type Config struct {
	DefaultModel          string                    `toml:"default_model"`
	RequestTimeoutSeconds int                       `toml:"request_timeout_seconds" validate:"gte=0"`
	LedgerDays            int                       `toml:"ledger_days" validate:"gte=0"`
	LogLevel              string                    `toml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	Providers             map[string]ProviderConfig `toml:"providers,omitempty" validate:"dive"`
	Server                ServerConfig              `toml:"server"`
	Telemetry             TelemetryConfig           `toml:"telemetry"`
}

// ProviderConfig overrides how a provider is reached
type ProviderConfig struct {
	BaseURL   string `toml:"base_url,omitempty" validate:"omitempty,url"`
	APIKeyEnv string `toml:"api_key_env,omitempty"`
}

// ServerConfig configures `tally serve`
type ServerConfig struct {
	Addr string `toml:"addr" validate:"required"`
}

// TelemetryConfig selects the trace exporter; an empty exporter disables tracing
type TelemetryConfig struct {
	Exporter string `toml:"exporter,omitempty" validate:"omitempty,oneof=stdout otlp"`
	Endpoint string `toml:"endpoint,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		DefaultModel:          llm.DefaultModel,
		RequestTimeoutSeconds: 120,
		LedgerDays:            90,
		LogLevel:              "warn",
		Providers:             make(map[string]ProviderConfig),
		Server:                ServerConfig{Addr: "127.0.0.1:8080"},
		Telemetry:             TelemetryConfig{Endpoint: "localhost:4317"},
	}
}

// Load reads the configuration from path (or the default location) and .env
func Load(path string) (*Config, error) {
	// A missing .env is normal
	_ = godotenv.Load()

	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	if model := os.Getenv("TALLY_MODEL"); model != "" {
		cfg.DefaultModel = model
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads only the config file, without .env or environment overrides.
// Use it when the result will be saved back.
func LoadFile(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = GetConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	return cfg, nil
}

// Save writes the configuration to path (or the default location)
func Save(cfg *Config, path string) error {
	if path == "" {
		path = GetConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks field constraints and provider names
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for name := range c.Providers {
		if _, err := llm.ParseProvider(name); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}

// RequestTimeout returns the per-query timeout, zero meaning none
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// KeyEnvNames returns the environment variable per provider that holds its API key
func (c *Config) KeyEnvNames() map[llm.Provider]string {
	names := make(map[llm.Provider]string, len(llm.Providers))
	for _, p := range llm.Providers {
		names[p] = p.DefaultKeyEnv()
		if pc, ok := c.Providers[string(p)]; ok && pc.APIKeyEnv != "" {
			names[p] = pc.APIKeyEnv
		}
	}
	return names
}

// BaseURL returns the configured endpoint override for a provider, if any
func (c *Config) BaseURL(p llm.Provider) string {
	return c.Providers[string(p)].BaseURL
}

// GetAPIKey returns the API key for the given provider and the variable it came from
func (c *Config) GetAPIKey(p llm.Provider) (string, string) {
	return llm.EnvCredentials(c.KeyEnvNames())(p)
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if path := os.Getenv("TALLY_CONFIG"); path != "" {
		return path
	}

	configPath, err := xdg.ConfigFile("tally/config.toml")
	if err != nil {
		// Fallback to home directory
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "tally", "config.toml")
	}
	return configPath
}

// GetLedgerDir returns the usage ledger directory path
func GetLedgerDir() string {
	if dir := os.Getenv("TALLY_LEDGER_DIR"); dir != "" {
		return dir
	}
	if xdg.DataHome != "" {
		return filepath.Join(xdg.DataHome, "tally", "usage")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "tally", "usage")
}
