package cli

import (
	"path/filepath"

	"github.com/ppiankov/securo/internal/extract"
	"github.com/spf13/cobra"
)

var fileMIME string

// fileCmd represents the file command
var fileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Extract text from a document and fact-check it",
	Long: `File extracts the text of a .txt, .pdf or .docx document and fact-checks it.
The type comes from --mime when given, otherwise from the file extension.

Example:
  securo file article.pdf
  securo file notes --mime text/plain`,
	Args: cobra.ExactArgs(1),
	RunE: runFile,
}

func init() {
	rootCmd.AddCommand(fileCmd)
	fileCmd.Flags().StringVar(&fileMIME, "mime", "", "declared MIME type (overrides the extension)")
}

func runFile(cmd *cobra.Command, args []string) error {
	path := args[0]

	env, err := newRuntime()
	if err != nil {
		return err
	}
	defer env.Close()

	data, err := extract.ReadFile(path)
	if err != nil {
		return env.userError(err)
	}

	ctx, cancel := analysisContext()
	defer cancel()

	item, err := env.service.SubmitFile(ctx, filepath.Base(path), fileMIME, data)
	if err != nil {
		return env.userError(err)
	}

	return renderItem(cmd.OutOrStdout(), item, env.cfg.Output.JSON)
}
