// Package extract turns uploaded files into analyzable content: plain text for
// documents, an encoded payload for images.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ppiankov/securo/internal/model"
)

// Supported document MIME types
const (
	MIMEText = "text/plain"
	MIMEPDF  = "application/pdf"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// MaxImageBytes is the size ceiling for image uploads (4MB)
const MaxImageBytes = 4 * 1024 * 1024

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrOversizedImage      = errors.New("image file size exceeds 4MB limit")
	ErrFileRead            = errors.New("failed to read file")
)

// UnsupportedFileTypeError names the offending MIME type or extension
type UnsupportedFileTypeError struct {
	Type     string
	Expected string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q: please use %s", e.Type, e.Expected)
}

// Is lets callers match with errors.Is(err, ErrUnsupportedFileType)
func (e *UnsupportedFileTypeError) Is(target error) bool {
	return target == ErrUnsupportedFileType
}

// Document is the text extracted from an uploaded document
type Document struct {
	Name      string
	Text      string
	InputType model.InputType
}

// Extractor extracts text from documents and encodes images
type Extractor struct {
	maxImageBytes int64
}

// NewExtractor creates an extractor with the standard 4MB image ceiling
func NewExtractor() *Extractor {
	return &Extractor{maxImageBytes: MaxImageBytes}
}

// ExtractText extracts plain text from a .txt, .pdf or .docx upload.
// The declared MIME type wins; the file extension is the fallback.
func (e *Extractor) ExtractText(name, mimeType string, data []byte) (*Document, error) {
	ext := extension(name)
	mimeType = baseMIME(mimeType)
	if mimeType == "" && ext == "" && len(data) > 0 {
		mimeType = baseMIME(mimetype.Detect(data).String())
	}

	var (
		text string
		err  error
	)
	switch {
	case mimeType == MIMEText || ext == "txt":
		text = readText(data)
	case mimeType == MIMEPDF || ext == "pdf":
		text, err = readPDF(data)
	case mimeType == MIMEDocx || ext == "docx":
		text, err = readDocx(data)
	default:
		offending := mimeType
		if offending == "" {
			offending = ext
		}
		return nil, &UnsupportedFileTypeError{Type: offending, Expected: ".txt, .pdf, or .docx"}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileRead, name, err)
	}

	return &Document{
		Name:      name,
		Text:      text,
		InputType: documentInputType(ext),
	}, nil
}

// ReadFile reads a local file, wrapping failures in ErrFileRead
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileRead, err)
	}
	return data, nil
}

// documentInputType labels a document by its extension
func documentInputType(ext string) model.InputType {
	switch ext {
	case "pdf":
		return model.InputTypePDFFile
	case "docx":
		return model.InputTypeWordDocument
	case "txt":
		return model.InputTypeTextFile
	default:
		return model.InputTypeUploadedFile
	}
}

func extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// baseMIME strips parameters such as "; charset=utf-8"
func baseMIME(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func readText(data []byte) string {
	return strings.TrimPrefix(string(data), "\ufeff")
}
