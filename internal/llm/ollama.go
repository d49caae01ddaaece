package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/securo/internal/util"
)

// OllamaProvider talks to a local Ollama server through /api/chat.
// The response schema goes in the format field, images ride on the user message.
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
	logger     *log.Logger
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   json.RawMessage     `json:"format,omitempty"`
	Options  ollamaOptions       `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // base64, no data URI prefix
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model      string            `json:"model"`
	Message    ollamaChatMessage `json:"message"`
	Done       bool              `json:"done"`
	DoneReason string            `json:"done_reason"`

	// Token counts, present once done
	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

// NewOllamaProvider creates a provider for baseURL, or localhost:11434 when empty
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: util.NewHTTPClient(config.Timeout, config.HTTPProxy, config.HTTPSProxy),
		config:     config,
		logger:     config.logger("ollama"),
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks that the Ollama server answers /api/tags
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		p.logger.Warn("availability check failed", "stage", "request creation", "err", err)
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("availability check failed", "url", p.baseURL, "err", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("availability check failed", "url", p.baseURL, "status", resp.StatusCode)
		return false
	}
	return true
}

// Generate sends one non-streaming chat turn constrained by the report schema
func (p *OllamaProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if p.config.Model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.2-vision, qwen2.5)")
	}

	schema := ResponseSchema()
	format, err := json.Marshal(&schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	user := ollamaChatMessage{Role: "user", Content: req.Prompt}
	if req.Image != nil {
		user.Images = []string{req.Image.Base64()}
	}

	chat, err := p.chat(ctx, ollamaChatRequest{
		Model: p.config.Model,
		Messages: []ollamaChatMessage{
			{Role: "system", Content: systemInstruction},
			user,
		},
		Format:  format,
		Options: ollamaOptions{NumPredict: p.config.maxTokens()},
	})
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}
	if !chat.Done {
		return nil, fmt.Errorf("%w: ollama stream not done", ErrIncomplete)
	}

	return &Response{
		Text:       strings.TrimSpace(chat.Message.Content),
		Model:      chat.Model,
		TokensUsed: chat.PromptEvalCount + chat.EvalCount,
	}, nil
}

func (p *OllamaProvider) chat(ctx context.Context, chatReq ollamaChatRequest) (*ollamaChatResponse, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var chat ollamaChatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &chat, nil
}
