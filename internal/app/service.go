// Package app sequences user actions into classification, prompting,
// analysis and history.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/securo/internal/classify"
	"github.com/ppiankov/securo/internal/extract"
	"github.com/ppiankov/securo/internal/fetch"
	"github.com/ppiankov/securo/internal/history"
	"github.com/ppiankov/securo/internal/llm"
	"github.com/ppiankov/securo/internal/logging"
	"github.com/ppiankov/securo/internal/model"
	"github.com/ppiankov/securo/internal/prompt"
)

var (
	ErrEmptyInput          = errors.New("input is empty")
	ErrHistoryItemNotFound = errors.New("history item not found")
	ErrNotReanalyzable     = errors.New("history item came from an upload and cannot be re-analyzed")
)

// PageFetcher looks up page metadata for URL inputs
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Page, error)
}

// Service is the orchestrator behind the CLI and the HTTP API
type Service struct {
	analyzer  *llm.Analyzer
	history   *history.Store
	extractor *extract.Extractor
	fetcher   PageFetcher
	logger    *log.Logger
}

// Option configures a Service
type Option func(*Service)

// WithFetcher enables page enrichment for URL and video inputs
func WithFetcher(fetcher PageFetcher) Option {
	return func(s *Service) {
		s.fetcher = fetcher
	}
}

// WithLogger sets the service logger
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logging.OrDiscard(logger) }
}

// NewService wires the analyzer and history store.
// A nil analyzer gives a service that can only browse history.
func NewService(analyzer *llm.Analyzer, store *history.Store, opts ...Option) *Service {
	s := &Service{
		analyzer:  analyzer,
		history:   store,
		extractor: extract.NewExtractor(),
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitText analyzes typed text, a URL or a video link and records it
func (s *Service) SubmitText(ctx context.Context, raw string) (model.HistoryItem, error) {
	return s.submitText(ctx, raw, "")
}

// SubmitFile extracts text from an uploaded document, analyzes it and
// records it under the document's label
func (s *Service) SubmitFile(ctx context.Context, name, mimeType string, data []byte) (model.HistoryItem, error) {
	doc, err := s.extractor.ExtractText(name, mimeType, data)
	if err != nil {
		s.logger.Warn("file extraction failed", "file", name, "err", err)
		return model.HistoryItem{}, err
	}
	s.logger.Debug("extracted document", "file", name, "type", doc.InputType, "chars", len(doc.Text))
	return s.submitText(ctx, doc.Text, doc.InputType)
}

// SubmitImage validates an image upload, analyzes it and records it with
// its data URI as the input
func (s *Service) SubmitImage(ctx context.Context, name, mimeType string, data []byte) (model.HistoryItem, error) {
	img, err := s.extractor.EncodeImage(name, mimeType, data)
	if err != nil {
		s.logger.Warn("image rejected", "file", name, "err", err)
		return model.HistoryItem{}, err
	}

	report, err := s.analyzer.Analyze(ctx, prompt.BuildImage(img))
	if err != nil {
		return model.HistoryItem{}, err
	}

	item := s.history.Record(img.DataURI(), model.InputTypeImage, report)
	s.logger.Info("image analyzed", "id", item.ID, "threat_level", report.ThreatLevel, "score", report.CredibilityScore)
	return item, nil
}

// SelectHistoryItem returns a past analysis by exact id
func (s *Service) SelectHistoryItem(id string) (model.HistoryItem, error) {
	item, found := s.history.Get(id)
	if !found {
		return model.HistoryItem{}, fmt.Errorf("%w: %s", ErrHistoryItemNotFound, id)
	}
	return item, nil
}

// Reanalyze submits a past text input again under its original label.
// Uploads are refused because their bytes are not kept.
func (s *Service) Reanalyze(ctx context.Context, id string) (model.HistoryItem, error) {
	item, err := s.SelectHistoryItem(id)
	if err != nil {
		return model.HistoryItem{}, err
	}
	if item.InputType.IsFileDerived() {
		return model.HistoryItem{}, fmt.Errorf("%w: %s (%s)", ErrNotReanalyzable, id, item.InputType)
	}
	return s.submitText(ctx, item.UserInput, item.InputType)
}

// History returns past analyses, newest first
func (s *Service) History() []model.HistoryItem {
	return s.history.Items()
}

// Evaluate analyzes raw text without recording it
func (s *Service) Evaluate(ctx context.Context, raw string) (model.AnalysisReport, model.InputType, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return model.AnalysisReport{}, model.InputTypePlainText, ErrEmptyInput
	}

	kind := classify.Classify(input)
	req, err := prompt.Build(input, kind, s.pageContext(ctx, input, kind))
	if err != nil {
		return model.AnalysisReport{}, kind.InputType(), err
	}

	report, err := s.analyzer.Analyze(ctx, req)
	return report, kind.InputType(), err
}

// Record adds an already evaluated result to history
func (s *Service) Record(input string, inputType model.InputType, report model.AnalysisReport) model.HistoryItem {
	return s.history.Record(strings.TrimSpace(input), inputType, report)
}

func (s *Service) submitText(ctx context.Context, raw string, label model.InputType) (model.HistoryItem, error) {
	report, inputType, err := s.Evaluate(ctx, raw)
	if err != nil {
		return model.HistoryItem{}, err
	}
	if label != "" {
		inputType = label
	}

	item := s.Record(raw, inputType, report)
	s.logger.Info("analysis recorded", "id", item.ID, "type", inputType, "threat_level", report.ThreatLevel, "score", report.CredibilityScore)
	return item, nil
}

// pageContext fetches page metadata for URL and video inputs. Failures are
// logged and the analysis continues without it.
func (s *Service) pageContext(ctx context.Context, input string, kind model.InputKind) *prompt.PageContext {
	if s.fetcher == nil || kind == model.KindPlainText {
		return nil
	}

	page, err := s.fetcher.Fetch(ctx, input)
	if err != nil {
		s.logger.Warn("page enrichment skipped", "url", input, "err", err)
		return nil
	}
	s.logger.Debug("page enrichment", "url", page.FinalURL, "title", page.Title)
	return &prompt.PageContext{Title: page.Title, Description: page.Description}
}
