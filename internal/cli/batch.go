package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ppiankov/securo/internal/app"
	"github.com/ppiankov/securo/internal/history"
	"github.com/ppiankov/securo/internal/model"
	"github.com/ppiankov/securo/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	batchTimeout time.Duration
	recordBatch  bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many inputs from a file in parallel",
	Long: `Batch analyzes one input per line (text, URL or video link):
- Blank lines and lines starting with # are skipped, duplicates removed
- Inputs are analyzed in parallel with a configurable worker count
- Model calls are throttled by batch.requests_per_second
- Results are printed in input order

Batch results are not recorded in history unless --record is given.

Example:
  securo batch inputs.txt
  securo batch inputs.txt --concurrency 8 --record
  cat inputs.txt | securo batch - --json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: batch.workers)")
	batchCmd.Flags().DurationVar(&batchTimeout, "batch-timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&recordBatch, "record", false, "record successful results in history, in input order")
}

// batchEntry is the JSON shape of one batch result
type batchEntry struct {
	Input     string                `json:"input"`
	InputType model.InputType       `json:"inputType,omitempty"`
	Report    *model.AnalysisReport `json:"report,omitempty"`
	ID        string                `json:"id,omitempty"`
	Error     string                `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	env, err := newRuntime()
	if err != nil {
		return err
	}
	defer env.Close()

	workers := concurrency
	if workers <= 0 {
		workers = env.cfg.Batch.Workers
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Securo Batch Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Rate limit:   %.2f req/s (burst %d)\n", env.cfg.Batch.RequestsPerSecond, env.cfg.Batch.BurstSize)
	fmt.Fprintf(os.Stderr, "  Provider:     %s\n", env.provider.Name())
	fmt.Fprintf(os.Stderr, "\n")

	limiter := worker.NewLimiter(env.cfg.Batch.RequestsPerSecond, env.cfg.Batch.BurstSize)
	processor := worker.NewBatchProcessor(env.service, workers, limiter, env.provider.Name())
	results, err := processor.ProcessFile(ctx, file, cmd.InOrStdin())
	if err != nil {
		return err
	}

	entries, successCount := collectBatch(env.service, results, recordBatch)

	if env.cfg.Output.JSON {
		if err := writeJSON(cmd.OutOrStdout(), entries); err != nil {
			return err
		}
	} else {
		printBatch(cmd.OutOrStdout(), entries)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d inputs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", len(results)-successCount)
	if recordBatch {
		fmt.Fprintf(os.Stderr, "  Recorded:  %d (history keeps the last %d)\n", successCount, history.Capacity)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// collectBatch converts results to entries. With record set, successes are
// recorded one by one in input order after the batch has finished.
func collectBatch(svc *app.Service, results []*worker.AnalyzeResult, record bool) ([]batchEntry, int) {
	entries := make([]batchEntry, 0, len(results))
	successCount := 0

	for _, result := range results {
		entry := batchEntry{Input: result.Input, InputType: result.InputType}
		if result.Error != nil {
			entry.Error = app.UserMessage(result.Error)
			entries = append(entries, entry)
			continue
		}

		successCount++
		entry.Report = result.Report
		if record {
			entry.ID = svc.Record(result.Input, result.InputType, *result.Report).ID
		}
		entries = append(entries, entry)
	}

	return entries, successCount
}

func printBatch(w io.Writer, entries []batchEntry) {
	for _, entry := range entries {
		if entry.Error != "" {
			_, _ = fmt.Fprintf(w, "✗ %s: %s\n", preview(entry.Input, 60), entry.Error)
			continue
		}
		_, _ = fmt.Fprintf(w, "✓ %-12s %3d/100  %s\n    %s\n",
			entry.Report.ThreatLevel, entry.Report.CredibilityScore, preview(entry.Input, 60), entry.Report.AnalysisSummary)
	}
}
