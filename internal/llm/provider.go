package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/securo/internal/logging"
)

// ErrIncomplete marks a response the provider cut short (token cap, unfinished stream)
var ErrIncomplete = errors.New("model response incomplete")

// Provider defines the interface for external model providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate sends one schema-constrained request and returns the raw JSON text
	Generate(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request is one analysis request for the model
type Request struct {
	// Persona names the analyst role the prompt frames (for logging)
	Persona Persona

	// Prompt is the instruction text
	Prompt string

	// Image is an optional inline image sent before the instruction text
	Image *ImagePart
}

// ImagePart is a raw image payload with its declared MIME type
type ImagePart struct {
	MIMEType string
	Data     []byte
}

// Base64 returns the payload in standard base64 encoding
func (p *ImagePart) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// DataURI returns the payload as a data: URI
func (p *ImagePart) DataURI() string {
	return "data:" + p.MIMEType + ";base64," + p.Base64()
}

// Persona is the role framing given to the model
type Persona string

const (
	PersonaSecurityAnalyst Persona = "security_analyst"
	PersonaMediaLiteracy   Persona = "media_literacy"
	PersonaFactChecker     Persona = "fact_checker"
	PersonaVisualAnalyst   Persona = "visual_analyst"
)

// Response contains the model's raw structured output
type Response struct {
	// Text is the JSON document produced under the response schema
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "gemini", "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific); empty selects DefaultModel(Provider)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, test servers)
	BaseURL string

	// Timeout for API requests; zero leaves deadlines to the caller's context
	Timeout time.Duration

	// MaxTokens caps response generation; zero leaves the provider default
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string

	// Logger receives availability failures; nil discards them
	Logger *log.Logger
}

func (c Config) model(fallback string) string {
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func (c Config) logger(prefix string) *log.Logger {
	return logging.OrDiscard(c.Logger).WithPrefix(prefix)
}

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 2048
}

// systemInstruction frames every request regardless of persona
const systemInstruction = "You assess the credibility and safety of user-supplied content. " +
	"Always answer with a single JSON object that matches the provided schema and nothing else."
