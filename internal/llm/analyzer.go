package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/securo/internal/logging"
	"github.com/ppiankov/securo/internal/model"
)

// ErrAnalysisFailed is the single caller-facing failure of an analysis call
var ErrAnalysisFailed = errors.New("failed to obtain a valid analysis")

// FailureKind distinguishes analysis failures in logs
type FailureKind string

const (
	KindTransport FailureKind = "transport"
	KindMalformed FailureKind = "malformed"
)

// AnalysisError carries the internal cause of a failed analysis.
// Its message is always the generic one; the cause is for logs and errors.As.
type AnalysisError struct {
	Kind     FailureKind
	Provider string
	Err      error
}

func (e *AnalysisError) Error() string {
	return ErrAnalysisFailed.Error()
}

// Is matches ErrAnalysisFailed
func (e *AnalysisError) Is(target error) bool {
	return target == ErrAnalysisFailed
}

// Unwrap exposes the cause, e.g. a context deadline
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Analyzer sends requests to a provider and turns the answer into a typed report.
// Every call is independent: no retries, no caching, no internal timeout.
type Analyzer struct {
	provider Provider
	logger   *log.Logger
}

// NewAnalyzer creates an analyzer over provider. A nil logger discards output.
func NewAnalyzer(provider Provider, logger *log.Logger) *Analyzer {
	return &Analyzer{
		provider: provider,
		logger:   logging.OrDiscard(logger).WithPrefix("analyzer"),
	}
}

// Analyze performs one schema-constrained request
func (a *Analyzer) Analyze(ctx context.Context, req Request) (model.AnalysisReport, error) {
	a.logger.Debug("sending analysis request", "provider", a.provider.Name(), "persona", req.Persona, "image", req.Image != nil)

	resp, err := a.provider.Generate(ctx, req)
	if errors.Is(err, ErrIncomplete) {
		return model.AnalysisReport{}, a.fail(KindMalformed, err)
	}
	if err != nil {
		return model.AnalysisReport{}, a.fail(KindTransport, err)
	}

	report, err := a.ParseReport(resp.Text)
	if err != nil {
		return model.AnalysisReport{}, a.fail(KindMalformed, err)
	}

	a.logger.Debug("analysis complete", "provider", a.provider.Name(), "model", resp.Model,
		"tokens", resp.TokensUsed, "threat_level", report.ThreatLevel, "score", report.CredibilityScore)
	return report, nil
}

func (a *Analyzer) fail(kind FailureKind, cause error) error {
	a.logger.Error("analysis failed", "kind", kind, "provider", a.provider.Name(), "err", cause)
	return &AnalysisError{Kind: kind, Provider: a.provider.Name(), Err: cause}
}

// rawReport mirrors the response schema; nil pointers mark missing fields
type rawReport struct {
	CredibilityScore    *float64  `json:"credibility_score"`
	ThreatLevel         *string   `json:"threat_level"`
	AnalysisSummary     *string   `json:"analysis_summary"`
	DetailedExplanation *string   `json:"detailed_explanation"`
	EducationalTips     *[]string `json:"educational_tips"`
}

// ParseReport validates model output against the response schema.
// Unknown threat levels become Unknown; scores are rounded and clamped to [0,100].
func (a *Analyzer) ParseReport(text string) (model.AnalysisReport, error) {
	payload := unwrapCodeFence(text)
	if payload == "" {
		return model.AnalysisReport{}, fmt.Errorf("empty response")
	}

	var raw rawReport
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return model.AnalysisReport{}, fmt.Errorf("parse response: %w", err)
	}

	var missing []string
	if raw.CredibilityScore == nil {
		missing = append(missing, FieldCredibilityScore)
	}
	if raw.ThreatLevel == nil {
		missing = append(missing, FieldThreatLevel)
	}
	if raw.AnalysisSummary == nil {
		missing = append(missing, FieldAnalysisSummary)
	}
	if raw.DetailedExplanation == nil {
		missing = append(missing, FieldDetailedExplanation)
	}
	if raw.EducationalTips == nil {
		missing = append(missing, FieldEducationalTips)
	}
	if len(missing) > 0 {
		return model.AnalysisReport{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	level := model.ThreatLevel(*raw.ThreatLevel).Normalize()
	if string(level) != *raw.ThreatLevel {
		a.logger.Warn("coercing threat level", "got", *raw.ThreatLevel, "to", level)
	}

	return model.AnalysisReport{
		CredibilityScore:    a.score(*raw.CredibilityScore),
		ThreatLevel:         level,
		AnalysisSummary:     *raw.AnalysisSummary,
		DetailedExplanation: *raw.DetailedExplanation,
		EducationalTips:     *raw.EducationalTips,
	}, nil
}

// score clamps in float space; converting an out-of-range float to int is undefined
func (a *Analyzer) score(value float64) int {
	clamped := math.Max(model.MinCredibilityScore, math.Min(model.MaxCredibilityScore, value))
	if clamped != value {
		a.logger.Warn("clamping credibility score", "got", value, "to", clamped)
	}
	return int(math.Round(clamped))
}

// unwrapCodeFence strips a surrounding ``` or ```json fence
func unwrapCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		trimmed = trimmed[newline+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "json")
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
