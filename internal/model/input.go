package model

// InputKind is the semantic category of a raw text input
type InputKind int

const (
	KindPlainText InputKind = iota
	KindURL
	KindVideoLink
)

func (k InputKind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindVideoLink:
		return "video_link"
	default:
		return "plain_text"
	}
}

// InputType returns the human-readable label stored with history items
func (k InputKind) InputType() InputType {
	switch k {
	case KindURL:
		return InputTypeURL
	case KindVideoLink:
		return InputTypeVideoLink
	default:
		return InputTypePlainText
	}
}

// InputType is the human-readable label of where an analyzed input came from
type InputType string

const (
	InputTypePlainText    InputType = "Plain Text"
	InputTypeURL          InputType = "URL"
	InputTypeVideoLink    InputType = "Video Link"
	InputTypePDFFile      InputType = "PDF File"
	InputTypeWordDocument InputType = "Word Document"
	InputTypeTextFile     InputType = "Text File"
	InputTypeUploadedFile InputType = "Uploaded File"
	InputTypeImage        InputType = "Image Analysis"
)

// IsFileDerived reports whether the input came from an upload rather than typed text.
// Such inputs cannot be re-submitted because the original bytes are not kept.
func (t InputType) IsFileDerived() bool {
	switch t {
	case InputTypePDFFile, InputTypeWordDocument, InputTypeTextFile, InputTypeUploadedFile, InputTypeImage:
		return true
	default:
		return false
	}
}
