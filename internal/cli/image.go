package cli

import (
	"path/filepath"

	"github.com/ppiankov/securo/internal/extract"
	"github.com/spf13/cobra"
)

var imageMIME string

// imageCmd represents the image command
var imageCmd = &cobra.Command{
	Use:   "image <path>",
	Short: "Check an image for manipulation, scams and misleading content",
	Long: `Image sends a picture (up to 4MB) to the model for visual analysis.
The MIME type is detected from the content unless --mime is given.

Example:
  securo image screenshot.png`,
	Args: cobra.ExactArgs(1),
	RunE: runImage,
}

func init() {
	rootCmd.AddCommand(imageCmd)
	imageCmd.Flags().StringVar(&imageMIME, "mime", "", "declared MIME type (default: detected)")
}

func runImage(cmd *cobra.Command, args []string) error {
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

	item, err := env.service.SubmitImage(ctx, filepath.Base(path), imageMIME, data)
	if err != nil {
		return env.userError(err)
	}

	return renderItem(cmd.OutOrStdout(), item, env.cfg.Output.JSON)
}
