package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/securo/internal/app"
	"github.com/ppiankov/securo/internal/classify"
	"github.com/ppiankov/securo/internal/kv"
	"github.com/ppiankov/securo/internal/llm"
	"github.com/ppiankov/securo/internal/model"
	"github.com/ppiankov/securo/internal/worker"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func sampleItem() model.HistoryItem {
	return model.HistoryItem{
		ID:        "0001718000000000-abc",
		UserInput: "https://example.com/login",
		InputType: model.InputTypeURL,
		Report: model.AnalysisReport{
			CredibilityScore:    12,
			ThreatLevel:         model.ThreatDangerous,
			AnalysisSummary:     "Phishing page imitating a bank.",
			DetailedExplanation: "The domain was registered last week.",
			EducationalTips:     []string{"Type bank URLs yourself.", "Check the certificate."},
		},
	}
}

func TestRenderItem_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := renderItem(&buf, sampleItem(), false); err != nil {
		t.Fatalf("renderItem failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Dangerous", "12/100", "Phishing page", "- Type bank URLs yourself.", "(URL)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderItem_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := renderItem(&buf, sampleItem(), true); err != nil {
		t.Fatalf("renderItem failed: %v", err)
	}

	var got model.HistoryItem
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Output is not JSON: %v", err)
	}
	if got.ID != "0001718000000000-abc" || got.Report.CredibilityScore != 12 {
		t.Errorf("Unexpected item: %+v", got)
	}
}

func TestRenderHistory(t *testing.T) {
	var empty bytes.Buffer
	if err := renderHistory(&empty, nil, false); err != nil {
		t.Fatalf("renderHistory failed: %v", err)
	}
	if !strings.Contains(empty.String(), "No history") {
		t.Errorf("Unexpected output: %q", empty.String())
	}

	var emptyJSON bytes.Buffer
	_ = renderHistory(&emptyJSON, nil, true)
	if strings.TrimSpace(emptyJSON.String()) != "[]" {
		t.Errorf("Expected empty JSON array, got %q", emptyJSON.String())
	}

	var buf bytes.Buffer
	_ = renderHistory(&buf, []model.HistoryItem{sampleItem()}, false)
	if !strings.Contains(buf.String(), "0001718000000000-abc") {
		t.Errorf("Expected id in output: %q", buf.String())
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"multi\nline   text", 40, "multi line text"},
		{"abcdefghijklmnop", 10, "abcdefg..."},
		{"data:image/png;base64,AAAABBBB", 10, "data:image/png;base64,..."},
	}

	for _, tt := range tests {
		if got := preview(tt.input, tt.n); got != tt.want {
			t.Errorf("preview(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"API_KEY":         "fallback",
		"OPENAI_API_KEY":  "sk-test",
		"OLLAMA_BASE_URL": "http://gpu-box:11434",
	}
	getenv := func(name string) string { return env[name] }

	tests := []struct {
		provider string
		wantKey  string
		wantBase string
	}{
		{"gemini", "fallback", ""},
		{"openai", "sk-test", ""},
		{"anthropic", "", ""},
		{"ollama", "", "http://gpu-box:11434"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := model.DefaultConfig()
			cfg.LLM.Provider = tt.provider
			applyEnv(cfg, getenv)

			if cfg.LLM.APIKey != tt.wantKey {
				t.Errorf("Expected key %q, got %q", tt.wantKey, cfg.LLM.APIKey)
			}
			if cfg.LLM.BaseURL != tt.wantBase {
				t.Errorf("Expected base URL %q, got %q", tt.wantBase, cfg.LLM.BaseURL)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg := model.DefaultConfig()
	err := requireAPIKey(cfg)
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("Expected missing GEMINI_API_KEY error, got %v", err)
	}

	cfg.LLM.APIKey = "key"
	if err := requireAPIKey(cfg); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	cfg = model.DefaultConfig()
	cfg.LLM.Provider = "ollama"
	if err := requireAPIKey(cfg); err != nil {
		t.Errorf("Ollama needs no key, got %v", err)
	}
}

func TestLoadConfig_ProviderSwitchUsesProviderModel(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SECURO_LLM_MODEL", "")
	t.Cleanup(viper.Reset)

	tests := []struct {
		provider string
		model    string
		want     string
	}{
		{"gemini", "", llm.DefaultGeminiModel},
		{"openai", "", llm.DefaultOpenAIModel},
		{"anthropic", "", llm.DefaultAnthropicModel},
		{"ollama", "", ""},
		{"openai", "gpt-4o", "gpt-4o"},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.model, func(t *testing.T) {
			viper.Reset()
			initConfig()
			viper.Set("llm.provider", tt.provider)
			if tt.model != "" {
				viper.Set("llm.model", tt.model)
			}

			cfg, err := loadConfig()
			if err != nil {
				t.Fatalf("loadConfig failed: %v", err)
			}
			if cfg.LLM.Provider != tt.provider {
				t.Fatalf("Expected provider %s, got %s", tt.provider, cfg.LLM.Provider)
			}

			got := providerConfig(cfg, nil)
			if got.Model != tt.want {
				t.Errorf("Expected model %q for %s, got %q", tt.want, tt.provider, got.Model)
			}
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "securo", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Written config is not valid YAML: %v", err)
	}
	if cfg.LLM.Provider != "gemini" || cfg.LLM.Model != "" {
		t.Errorf("Unexpected default LLM section: %+v", cfg.LLM)
	}
	if strings.Contains(string(data), "api_key") {
		t.Error("API key must never be written to the config file")
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("Expected error when the config file already exists")
	}
}

func TestAnalyzeHelpListsVideoHosts(t *testing.T) {
	for _, host := range classify.VideoHosts {
		if !strings.Contains(analyzeCmd.Long, host) {
			t.Errorf("analyze help does not mention video host %s", host)
		}
	}
	if strings.Contains(strings.ToLower(analyzeCmd.Long), "tiktok") {
		t.Error("analyze help names a platform that is not classified as video")
	}
}

func TestReadInputArgs(t *testing.T) {
	got, err := readInputArgs([]string{"is", "this", "true"}, nil)
	if err != nil || got != "is this true" {
		t.Errorf("Unexpected result %q, %v", got, err)
	}

	got, err = readInputArgs([]string{"-"}, strings.NewReader("from stdin\n"))
	if err != nil || got != "from stdin\n" {
		t.Errorf("Unexpected result %q, %v", got, err)
	}
}

type scriptedProvider struct {
	text string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return &llm.Response{Text: p.text}, nil
}

func (p *scriptedProvider) IsAvailable(ctx context.Context) bool { return true }

func TestCollectBatch_RecordsInInputOrder(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.History.Backend = kv.BackendMemory
	env, err := buildRuntime(cfg, &scriptedProvider{
		text: `{"credibility_score": 50, "threat_level": "Questionable", "analysis_summary": "s", "detailed_explanation": "d", "educational_tips": []}`,
	})
	if err != nil {
		t.Fatalf("buildRuntime failed: %v", err)
	}
	defer env.Close()

	report := model.AnalysisReport{CredibilityScore: 50, ThreatLevel: model.ThreatQuestionable}
	results := []*worker.AnalyzeResult{
		{Index: 0, Input: "first", InputType: model.InputTypePlainText, Report: &report},
		{Index: 1, Input: "second", Error: errors.New("boom")},
		{Index: 2, Input: "https://third.example", InputType: model.InputTypeURL, Report: &report},
	}

	entries, successes := collectBatch(env.service, results, true)
	if successes != 2 {
		t.Errorf("Expected 2 successes, got %d", successes)
	}
	if entries[1].Error == "" || entries[1].ID != "" {
		t.Errorf("Failed entry should carry an error and no id: %+v", entries[1])
	}

	history := env.service.History()
	if len(history) != 2 {
		t.Fatalf("Expected 2 recorded items, got %d", len(history))
	}
	// Newest first: the last input recorded ends up on top
	if history[0].UserInput != "https://third.example" || history[1].UserInput != "first" {
		t.Errorf("Unexpected order: %s, %s", history[0].UserInput, history[1].UserInput)
	}
}

func TestBrowseRuntime_ShowsRecordedItems(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.History.Backend = kv.BackendFile
	cfg.History.Path = t.TempDir()

	env, err := buildRuntime(cfg, &scriptedProvider{
		text: `{"credibility_score": 12, "threat_level": "Dangerous", "analysis_summary": "s", "detailed_explanation": "d", "educational_tips": ["t"]}`,
	})
	if err != nil {
		t.Fatalf("buildRuntime failed: %v", err)
	}
	recorded, err := env.service.SubmitText(context.Background(), "https://secure-login.example/verify")
	if err != nil {
		t.Fatalf("SubmitText failed: %v", err)
	}
	env.Close()

	browse, err := browseRuntime(cfg)
	if err != nil {
		t.Fatalf("browseRuntime failed: %v", err)
	}
	defer browse.Close()

	item, err := browse.service.SelectHistoryItem(recorded.ID)
	if err != nil {
		t.Fatalf("SelectHistoryItem failed: %v", err)
	}
	if item.UserInput != recorded.UserInput || item.Report.ThreatLevel != model.ThreatDangerous {
		t.Errorf("Unexpected item: %+v", item)
	}

	_, err = browse.service.SelectHistoryItem("missing")
	if err == nil {
		t.Fatal("Expected an error for an unknown id")
	}
	if got := browse.userError(err).Error(); got != app.UserMessage(app.ErrHistoryItemNotFound) {
		t.Errorf("Unexpected user message: %q", got)
	}
}
