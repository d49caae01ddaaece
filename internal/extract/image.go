package extract

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Image is an uploaded image ready to be sent alongside analysis instructions
type Image struct {
	Name     string
	MIMEType string
	Data     []byte // Raw decoded bytes
}

// DataURI returns the base64 data URI used as the history thumbnail source
func (i *Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// EncodeImage validates an image upload. The size ceiling is checked first so
// oversized uploads never reach the model.
func (e *Extractor) EncodeImage(name, mimeType string, data []byte) (*Image, error) {
	if int64(len(data)) > e.maxImageBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrOversizedImage, name, len(data))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrFileRead, name)
	}

	mimeType = baseMIME(mimeType)
	if mimeType == "" {
		mimeType = baseMIME(mimetype.Detect(data).String())
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, &UnsupportedFileTypeError{Type: mimeType, Expected: "an image file"}
	}

	return &Image{
		Name:     name,
		MIMEType: mimeType,
		Data:     data,
	}, nil
}
