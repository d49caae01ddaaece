package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/securo/internal/llm"
	"github.com/ppiankov/securo/internal/logging"
	"github.com/ppiankov/securo/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Securo configuration",
	Long: `Manage Securo configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (SECURO_*, e.g. SECURO_LLM_MODEL)
3. Config file (~/.securo/config.yaml)
4. Defaults

API keys are read from the environment only.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, config file, env vars and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		// Marshal config to YAML for display
		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, string(yamlData))
		_, _ = fmt.Fprintf(out, "# API key: %s\n", apiKeyStatus(cfg))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.securo/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			dir, err := securoDir()
			if err != nil {
				return fmt.Errorf("error finding home directory: %w", err)
			}
			configPath = filepath.Join(dir, "config.yaml")
		}

		if err := writeDefaultConfig(configPath); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "✓ Created default configuration: %s\n", configPath)
		_, _ = fmt.Fprintf(out, "\nTo view the configuration:\n")
		_, _ = fmt.Fprintf(out, "  securo config show\n")
		_, _ = fmt.Fprintf(out, "\nTo customize, edit the file with your preferred editor:\n")
		_, _ = fmt.Fprintf(out, "  $EDITOR %s\n\n", configPath)
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured model provider is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requireAPIKey(cfg); err != nil {
			return err
		}

		providerCfg := providerConfig(cfg, logging.New(os.Stderr, cfg.Output.Verbose))
		provider, err := llm.NewProvider(providerCfg)
		if err != nil {
			return fmt.Errorf("create LLM provider: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if !provider.IsAvailable(ctx) {
			return fmt.Errorf("%s is not reachable with the current configuration", provider.Name())
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is reachable (model %s)\n", provider.Name(), providerCfg.Model)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
}

// writeDefaultConfig writes the documented default file and refuses to overwrite
func writeDefaultConfig(configPath string) (err error) {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'securo config show' to view it, or delete it first to recreate", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	f, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	return writeDocumentedConfig(f, model.DefaultConfig())
}

func writeDocumentedConfig(w io.Writer, cfg *model.Config) (err error) {
	// Helper for writing with error checking
	printf := func(format string, a ...any) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, format, a...)
	}

	printf("# Securo Configuration File\n")
	printf("# See https://github.com/ppiankov/securo for full documentation\n")
	printf("#\n")
	printf("# Configuration hierarchy (highest to lowest priority):\n")
	printf("#   1. CLI flags\n")
	printf("#   2. Environment variables (SECURO_*, e.g. SECURO_LLM_PROVIDER)\n")
	printf("#   3. This config file\n")
	printf("#   4. Built-in defaults\n")
	printf("#\n")
	printf("# llm.provider:      gemini, openai, anthropic or ollama\n")
	printf("# llm.model:         empty uses the provider default (ollama needs one)\n")
	printf("# history.backend:   file, sqlite or memory (history.path defaults to ~/.securo)\n")
	printf("# enrich.enabled:    fetch page titles for URL and video inputs\n\n")

	yamlData, mErr := yaml.Marshal(cfg)
	if mErr != nil {
		return fmt.Errorf("error marshaling config: %w", mErr)
	}
	printf("%s", yamlData)

	printf("\n# API Keys (environment only):\n")
	printf("#   export GEMINI_API_KEY=...\n")
	printf("#   export OPENAI_API_KEY=sk-...\n")
	printf("#   export ANTHROPIC_API_KEY=sk-ant-...\n")
	printf("#   export OLLAMA_BASE_URL=http://localhost:11434\n")
	return err
}

func apiKeyStatus(cfg *model.Config) string {
	names := llm.APIKeyEnv(cfg.LLM.Provider)
	switch {
	case len(names) == 0:
		return "not required"
	case cfg.LLM.APIKey != "":
		return "set"
	default:
		return "missing (set " + names[0] + ")"
	}
}
