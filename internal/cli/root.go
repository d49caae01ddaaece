package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/securo/internal/kv"
	"github.com/ppiankov/securo/internal/llm"
	"github.com/ppiankov/securo/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Version is overridden at build time with -ldflags "-X .../cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile         string
	verbose         bool
	jsonOut         bool
	analysisTimeout time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "securo",
	Short: "Securo - AI-assisted credibility and safety checks",
	Long: `Securo asks a large language model to judge how credible and how safe
a piece of content is: free text, a link, a video link, a document or an image.

Every answer is a structured report with a 0-100 credibility score, a threat
level (Safe, Questionable, Dangerous), a one-line summary, a detailed
explanation and media-literacy tips. The last five analyses are kept in history.

Securo is a second opinion, not a verdict.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Securo.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "securo %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.securo/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs on stderr)")
	flags.BoolVar(&jsonOut, "json", false, "print results as JSON")
	flags.DurationVar(&analysisTimeout, "timeout", 90*time.Second, "timeout for a single analysis")
	flags.String("provider", "", "LLM provider (gemini, openai, anthropic, ollama)")
	flags.String("model", "", "LLM model name")
	flags.String("history-backend", "", "history storage (file, sqlite, memory)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("output.json", flags.Lookup("json"))
	_ = viper.BindPFlag("llm.provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("llm.model", flags.Lookup("model"))
	_ = viper.BindPFlag("history.backend", flags.Lookup("history-backend"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig seeds viper with the defaults, then merges the config file and ENV variables
func initConfig() {
	defaults, err := yaml.Marshal(model.DefaultConfig())
	if err == nil {
		viper.SetConfigType("yaml")
		_ = viper.ReadConfig(bytes.NewReader(defaults))
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else if dir, err := securoDir(); err == nil {
		// Search for config in home directory
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
	} else {
		fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
	}

	// Read in environment variables that match SECURO_* (llm.model -> SECURO_LLM_MODEL)
	viper.SetEnvPrefix("SECURO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, merge it over the defaults
	if err := viper.MergeInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig returns the effective configuration: flags, env, file, defaults.
// API keys come from the environment only.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose
	cfg.Output.JSON = cfg.Output.JSON || jsonOut

	if cfg.History.Path == "" {
		dir, err := securoDir()
		if err != nil {
			return nil, fmt.Errorf("resolve history path: %w", err)
		}
		cfg.History.Path = defaultHistoryPath(dir, cfg.History.Backend)
	}

	applyEnv(cfg, os.Getenv)
	return cfg, nil
}

// applyEnv fills the provider API key and the Ollama endpoint from the environment
func applyEnv(cfg *model.Config, getenv func(string) string) {
	for _, name := range llm.APIKeyEnv(cfg.LLM.Provider) {
		if key := getenv(name); key != "" {
			cfg.LLM.APIKey = key
			break
		}
	}

	if strings.EqualFold(cfg.LLM.Provider, "ollama") {
		if baseURL := getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
}

// requireAPIKey fails early when the selected provider needs a key that is not set
func requireAPIKey(cfg *model.Config) error {
	names := llm.APIKeyEnv(cfg.LLM.Provider)
	if len(names) == 0 || cfg.LLM.APIKey != "" {
		return nil
	}
	return fmt.Errorf("%s environment variable not set (required for provider %q)", strings.Join(names, " or "), providerName(cfg))
}

func providerName(cfg *model.Config) string {
	if cfg.LLM.Provider == "" {
		return "gemini"
	}
	return cfg.LLM.Provider
}

func securoDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".securo"), nil
}

func defaultHistoryPath(dir, backend string) string {
	if backend == kv.BackendSQLite {
		return filepath.Join(dir, "history.db")
	}
	return filepath.Join(dir, "history")
}
