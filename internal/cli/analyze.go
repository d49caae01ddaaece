package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/securo/internal/classify"
	"github.com/spf13/cobra"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <text...>",
	Short: "Analyze text, a URL or a video link",
	Long: `Analyze classifies the input and asks the model for a credibility report:
- URLs are checked for phishing, malware and scam signals
- Video links (` + strings.Join(classify.VideoHosts, ", ") + `) are checked for misinformation
- Anything else is fact-checked as plain text

The result is recorded in history.

Example:
  securo analyze https://example.com/login
  securo analyze "Drinking bleach cures the flu"
  echo "some claim" | securo analyze -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	input, err := readInputArgs(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	env, err := newRuntime()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := analysisContext()
	defer cancel()

	if env.cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Analyzing with %s...\n", env.provider.Name())
	}

	item, err := env.service.SubmitText(ctx, input)
	if err != nil {
		return env.userError(err)
	}

	return renderItem(cmd.OutOrStdout(), item, env.cfg.Output.JSON)
}

// readInputArgs joins the arguments, or reads stdin for "-"
func readInputArgs(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}
