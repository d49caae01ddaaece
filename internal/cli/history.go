package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/securo/internal/app"
	"github.com/ppiankov/securo/internal/history"
	"github.com/ppiankov/securo/internal/kv"
	"github.com/ppiankov/securo/internal/logging"
	"github.com/ppiankov/securo/internal/model"
	"github.com/spf13/cobra"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, show and re-analyze recent analyses",
	Long: `History keeps the last five analyses, newest first.

Example:
  securo history list
  securo history show 0001718000000000-6f1c...
  securo history reanalyze 0001718000000000-6f1c...`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent analyses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openHistory()
		if err != nil {
			return err
		}
		defer env.Close()

		return renderHistory(cmd.OutOrStdout(), env.service.History(), env.cfg.Output.JSON)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a past analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openHistory()
		if err != nil {
			return err
		}
		defer env.Close()

		item, err := env.service.SelectHistoryItem(args[0])
		if err != nil {
			return env.userError(err)
		}
		return renderItem(cmd.OutOrStdout(), item, env.cfg.Output.JSON)
	},
}

var historyReanalyzeCmd = &cobra.Command{
	Use:   "reanalyze <id>",
	Short: "Run a past text, URL or video link analysis again",
	Long: `Reanalyze submits the input of a past analysis again and records the new result.
Uploaded files and images cannot be re-analyzed because their content is not kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newRuntime()
		if err != nil {
			return err
		}
		defer env.Close()

		ctx, cancel := analysisContext()
		defer cancel()

		item, err := env.service.Reanalyze(ctx, args[0])
		if err != nil {
			return env.userError(err)
		}
		return renderItem(cmd.OutOrStdout(), item, env.cfg.Output.JSON)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyReanalyzeCmd)
}

// openHistory loads the configuration and opens a read-only service over
// the history store; browsing needs no model provider
func openHistory() (*runtimeEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return browseRuntime(cfg)
}

func browseRuntime(cfg *model.Config) (*runtimeEnv, error) {
	logger := logging.New(os.Stderr, cfg.Output.Verbose)

	store, err := kv.Open(cfg.History.Backend, cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	svc := app.NewService(nil,
		history.Open(store, history.WithLogger(logger)),
		app.WithLogger(logger),
	)
	return &runtimeEnv{cfg: cfg, logger: logger, service: svc, store: store}, nil
}
