package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/securo/internal/app"
	"github.com/ppiankov/securo/internal/fetch"
	"github.com/ppiankov/securo/internal/history"
	"github.com/ppiankov/securo/internal/kv"
	"github.com/ppiankov/securo/internal/llm"
	"github.com/ppiankov/securo/internal/logging"
	"github.com/ppiankov/securo/internal/model"
)

// runtimeEnv is everything a command needs to talk to the service
type runtimeEnv struct {
	cfg      *model.Config
	logger   *log.Logger
	provider llm.Provider
	service  *app.Service
	store    kv.Store
}

// Close releases the history backend
func (e *runtimeEnv) Close() {
	if err := kv.Close(e.store); err != nil {
		e.logger.Warn("close history store", "err", err)
	}
}

// newRuntime loads the configuration and wires provider, history and service
func newRuntime() (*runtimeEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return buildRuntime(cfg, nil)
}

// providerConfig resolves the model for the selected provider and injects the logger
func providerConfig(cfg *model.Config, logger *log.Logger) llm.Config {
	config := llm.ConfigFromModel(cfg.LLM, cfg.HTTP)
	if config.Model == "" {
		config.Model = llm.DefaultModel(config.Provider)
	}
	config.Logger = logger
	return config
}

// buildRuntime wires the service for cfg. A nil provider is created from cfg.
func buildRuntime(cfg *model.Config, provider llm.Provider) (*runtimeEnv, error) {
	logger := logging.New(os.Stderr, cfg.Output.Verbose)

	if provider == nil {
		if err := requireAPIKey(cfg); err != nil {
			return nil, err
		}
		p, err := llm.NewProvider(providerConfig(cfg, logger))
		if err != nil {
			return nil, fmt.Errorf("create LLM provider: %w", err)
		}
		provider = p
	}

	store, err := kv.Open(cfg.History.Backend, cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	logger.Debug("history backend", "backend", cfg.History.Backend, "path", cfg.History.Path)

	opts := []app.Option{app.WithLogger(logger)}
	if fetcher := fetch.FromConfig(cfg); fetcher != nil {
		opts = append(opts, app.WithFetcher(fetcher))
	}

	svc := app.NewService(
		llm.NewAnalyzer(provider, logger),
		history.Open(store, history.WithLogger(logger)),
		opts...,
	)

	return &runtimeEnv{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		service:  svc,
		store:    store,
	}, nil
}

// analysisContext bounds one analysis call with the --timeout flag
func analysisContext() (context.Context, context.CancelFunc) {
	if analysisTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), analysisTimeout)
}

// userError turns a service error into the message shown to the user.
// The underlying cause is logged at debug level.
func (e *runtimeEnv) userError(err error) error {
	e.logger.Debug("command failed", "err", err)
	return errors.New(app.UserMessage(err))
}
