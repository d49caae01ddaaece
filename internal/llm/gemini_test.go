package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/securo/internal/logging"
)

func geminiReply(text string) string {
	return geminiReplyWithReason(text, "STOP")
}

func geminiReplyWithReason(text, reason string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{
				"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
				"finishReason": reason,
			},
		},
		"usageMetadata": map[string]any{"totalTokenCount": 120},
		"modelVersion":  "gemini-2.5-flash",
	})
	return string(body)
}

func TestGeminiProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("Expected x-goog-api-key test-key, got %s", r.Header.Get("x-goog-api-key"))
		}

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Errorf("Expected JSON response MIME type, got %s", req.GenerationConfig.ResponseMIMEType)
		}
		if req.GenerationConfig.ResponseSchema["type"] != "OBJECT" {
			t.Errorf("Expected OBJECT schema, got %v", req.GenerationConfig.ResponseSchema["type"])
		}
		if req.GenerationConfig.MaxOutputTokens != 0 {
			t.Errorf("Expected no output cap by default, got %d", req.GenerationConfig.MaxOutputTokens)
		}
		if _, ok := req.GenerationConfig.ResponseSchema["additionalProperties"]; ok {
			t.Error("Gemini schema must not carry additionalProperties")
		}
		if req.SystemInstruction == nil || len(req.SystemInstruction.Parts) != 1 {
			t.Error("Expected a system instruction")
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 1 || req.Contents[0].Parts[0].Text != "Check this claim" {
			t.Errorf("Unexpected contents: %+v", req.Contents)
		}

		_, _ = w.Write([]byte(geminiReply(validReportJSON)))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Generate(context.Background(), Request{Persona: PersonaFactChecker, Prompt: "Check this claim"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if resp.Text != strings.TrimSpace(validReportJSON) {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.Model != "gemini-2.5-flash" || resp.TokensUsed != 120 {
		t.Errorf("Unexpected metadata: model=%s tokens=%d", resp.Model, resp.TokensUsed)
	}
}

func TestGeminiProvider_Generate_InlineImageFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 {
			t.Fatalf("Expected image and text parts, got %d", len(parts))
		}
		if parts[0].InlineData == nil || parts[0].InlineData.MIMEType != "image/webp" || parts[0].InlineData.Data != "AQID" {
			t.Errorf("Unexpected inline data: %+v", parts[0].InlineData)
		}
		if parts[1].Text == "" {
			t.Error("Expected instruction text after the image")
		}
		_, _ = w.Write([]byte(geminiReply(validReportJSON)))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	req := Request{
		Prompt: "Is this image authentic?",
		Image:  &ImagePart{MIMEType: "image/webp", Data: []byte{1, 2, 3}},
	}
	if _, err := provider.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
}

func TestGeminiProvider_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(Config{APIKey: "bad", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Generate(context.Background(), Request{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "INVALID_ARGUMENT") {
		t.Errorf("Expected status in error, got %v", err)
	}
}

func TestGeminiProvider_Generate_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Generate(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Fatal("Expected error for empty candidates")
	}
}

func TestGeminiProvider_Generate_MaxTokensFinish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.GenerationConfig.MaxOutputTokens != 512 {
			t.Errorf("Expected configured cap 512, got %d", req.GenerationConfig.MaxOutputTokens)
		}
		_, _ = w.Write([]byte(geminiReplyWithReason(`{"credibility_score": 4`, "MAX_TOKENS")))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(Config{APIKey: "test-key", BaseURL: server.URL, MaxTokens: 512})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Generate(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Expected ErrIncomplete, got %v", err)
	}
	if !strings.Contains(err.Error(), "MAX_TOKENS") {
		t.Errorf("Expected finish reason in error, got %v", err)
	}
}

func TestGeminiProvider_Generate_ConfiguredModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-pro:generateContent" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(geminiReply(validReportJSON)))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(Config{APIKey: "test-key", BaseURL: server.URL, Model: "gemini-2.5-pro"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if _, err := provider.Generate(context.Background(), Request{Prompt: "x"}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
}

func TestGeminiProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1beta/models" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var logs bytes.Buffer
	provider, err := NewGeminiProvider(Config{APIKey: "test-key", BaseURL: server.URL, Logger: logging.New(&logs, false)})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}
	if logs.Len() != 0 {
		t.Errorf("Expected no logs on success, got %q", logs.String())
	}

	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on error")
	}
	if !strings.Contains(logs.String(), "API check failed") || !strings.Contains(logs.String(), "403") {
		t.Errorf("Expected check failure in logs, got %q", logs.String())
	}
}
