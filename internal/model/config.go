package model

import "time"

// Config is the complete Securo configuration.
// Defaults come from DefaultConfig and are overlaid by the config file, env and flags.
type Config struct {
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Enrich  EnrichConfig  `yaml:"enrich" mapstructure:"enrich"`
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
}

// LLMConfig selects and pins the external model
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // gemini, openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"` // empty selects the provider's default
	APIKey    string `yaml:"-" mapstructure:"-"` // env only
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"` // zero keeps the provider default
}

// HistoryConfig controls where analysis history is persisted
type HistoryConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // file, sqlite, memory
	Path    string `yaml:"path" mapstructure:"path"`       // directory (file) or database path (sqlite)
}

// EnrichConfig controls page metadata lookups for URL inputs
type EnrichConfig struct {
	Enabled       bool  `yaml:"enabled" mapstructure:"enabled"`
	MaxBodyBytes  int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool  `yaml:"respect_robots" mapstructure:"respect_robots"`
	AllowPrivate  bool  `yaml:"allow_private" mapstructure:"allow_private"` // CLI only; serve refuses it
}

// HTTPConfig holds outbound HTTP settings shared by enrichment fetches
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// ServerConfig holds settings for `securo serve`
type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// BatchConfig holds worker and rate limiting settings for batch analysis
type BatchConfig struct {
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	JSON    bool `yaml:"json" mapstructure:"json"`
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "", // each provider applies its own pinned default
		},
		History: HistoryConfig{
			Backend: "file",
			Path:    "", // resolved to ~/.securo/history by the CLI
		},
		Enrich: EnrichConfig{
			Enabled:       false,
			MaxBodyBytes:  512 * 1024,
			RespectRobots: true,
		},
		HTTP: HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "Securo/0.1 (+https://github.com/ppiankov/securo)",
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			AllowedOrigins: []string{"http://localhost:5173"},
			MaxUploadBytes: 16 * 1024 * 1024,
		},
		Batch: BatchConfig{
			Workers:           4,
			RequestsPerSecond: 1,
			BurstSize:         2,
		},
	}
}
