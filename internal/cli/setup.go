package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alecf/tally/internal/config"
	"github.com/alecf/tally/internal/llm"
)

// setupOptions are the settings written by `tally setup`; unset fields keep the file's value
type setupOptions struct {
	Model          string
	TimeoutSeconds *int
	BaseURLs       map[string]string // provider -> endpoint
	KeyEnvs        map[string]string // provider -> API key variable
}

// applySetup merges the options into cfg, rejecting unknown models and providers
func applySetup(cfg *config.Config, reg *llm.Registry, opts setupOptions) error {
	if opts.Model != "" {
		if _, err := reg.Lookup(opts.Model); err != nil {
			return err
		}
		cfg.DefaultModel = opts.Model
	}

	if opts.TimeoutSeconds != nil {
		cfg.RequestTimeoutSeconds = *opts.TimeoutSeconds
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]config.ProviderConfig)
	}
	for name, url := range opts.BaseURLs {
		p, err := llm.ParseProvider(name)
		if err != nil {
			return err
		}
		pc := cfg.Providers[string(p)]
		pc.BaseURL = url
		cfg.Providers[string(p)] = pc
	}
	for name, env := range opts.KeyEnvs {
		p, err := llm.ParseProvider(name)
		if err != nil {
			return err
		}
		pc := cfg.Providers[string(p)]
		pc.APIKeyEnv = env
		cfg.Providers[string(p)] = pc
	}

	return cfg.Validate()
}

// writeSetup applies the options to the config file at path and saves it
func writeSetup(path string, opts setupOptions) (*config.Config, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := applySetup(cfg, llm.DefaultRegistry(), opts); err != nil {
		return nil, err
	}

	if err := config.Save(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return cfg, nil
}

// promptModel asks for a default model; an empty answer keeps the current one
func promptModel(in io.Reader, out io.Writer) string {
	fmt.Fprint(out, "Default model (enter keeps the current one, `tally models` lists them): ")
	var model string
	fmt.Fscanln(in, &model)
	return model
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.GetConfigPath()
}

func setupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Write default model, timeout and provider settings",
		Long: `Write settings to the config file, keeping anything not given.

Without --model on a terminal, asks for the default model.

Example:
  tally setup --model grok-3-mini --timeout 60 \
    --base-url xai=https://proxy.internal/v1 --key-env openai=WORK_OPENAI_KEY`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts setupOptions

			if cmd.Flags().Changed("model") {
				opts.Model, _ = cmd.Flags().GetString("model")
			} else if term.IsTerminal(int(os.Stdin.Fd())) {
				opts.Model = promptModel(cmd.InOrStdin(), cmd.OutOrStdout())
			}

			if cmd.Flags().Changed("timeout") {
				timeout, _ := cmd.Flags().GetInt("timeout")
				opts.TimeoutSeconds = &timeout
			}
			opts.BaseURLs, _ = cmd.Flags().GetStringToString("base-url")
			opts.KeyEnvs, _ = cmd.Flags().GetStringToString("key-env")

			path := configPath()
			cfg, err := writeSetup(path, opts)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Configuration saved to %s\n", path)
			fmt.Printf("  %-14s %s\n", "Default model:", cfg.DefaultModel)
			fmt.Printf("  %-14s %ds\n", "Timeout:", cfg.RequestTimeoutSeconds)
			for _, p := range llm.Providers {
				baseURL := cfg.BaseURL(p)
				if baseURL == "" {
					baseURL = p.DefaultBaseURL()
				}
				fmt.Printf("  %-14s %s (key from %s)\n", string(p)+":", baseURL, cfg.KeyEnvNames()[p])
			}
			fmt.Printf("\nCheck credentials with: tally test-config\n")
			return nil
		},
	}
	cmd.Flags().Int("timeout", 0, "request timeout in seconds (0 for none)")
	cmd.Flags().StringToString("base-url", nil, "provider endpoint overrides, e.g. xai=https://...")
	cmd.Flags().StringToString("key-env", nil, "provider API key variables, e.g. openai=MY_KEY")
	return cmd
}

func setModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-model <model>",
		Short: "Set the default model",
		Long: `Set the model used when a query names none.

Example:
  tally set-model gpt-4.1-mini`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := writeSetup(configPath(), setupOptions{Model: args[0]})
			if err != nil {
				return err
			}

			m, _ := llm.DefaultRegistry().Lookup(cfg.DefaultModel)
			fmt.Printf("✓ Default model set to: %s\n", m.ID)
			fmt.Printf("  Provider: %s\n", m.Provider)
			fmt.Printf("  Pricing:  $%.2f in / $%.2f out per 1M tokens\n", m.Pricing.InputPerMillion, m.Pricing.OutputPerMillion)
			return nil
		},
	}
}
