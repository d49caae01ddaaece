package app

import (
	"errors"

	"github.com/ppiankov/securo/internal/extract"
	"github.com/ppiankov/securo/internal/llm"
)

// User-facing messages. Transport and malformed-response failures share one.
const (
	MsgEmptyInput      = "Input stream is empty. Please provide content to analyze."
	MsgOversizedImage  = "Image file size exceeds 4MB limit."
	MsgFileRead        = "Failed to read the file data stream. Check the file and retry."
	MsgAnalysisFailed  = "Analysis failed. The AI model could not be reached or returned an invalid answer. Retry transmission."
	MsgNotFound        = "History item not found."
	MsgNotReanalyzable = "This item came from an uploaded file. Upload the file again to re-analyze it."
	MsgUnexpected      = "Something went wrong. Please retry."
)

// UserMessage maps an error to a short human-readable message that
// never carries provider internals
func UserMessage(err error) string {
	var unsupported *extract.UnsupportedFileTypeError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return MsgEmptyInput
	case errors.As(err, &unsupported):
		return "Unsupported filetype: \"" + unsupported.Type + "\". Please use " + unsupported.Expected + "."
	case errors.Is(err, extract.ErrOversizedImage):
		return MsgOversizedImage
	case errors.Is(err, extract.ErrFileRead):
		return MsgFileRead
	case errors.Is(err, llm.ErrAnalysisFailed):
		return MsgAnalysisFailed
	case errors.Is(err, ErrHistoryItemNotFound):
		return MsgNotFound
	case errors.Is(err, ErrNotReanalyzable):
		return MsgNotReanalyzable
	default:
		return MsgUnexpected
	}
}
