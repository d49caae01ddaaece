package model

// HistoryItem pairs an original input with its analysis result.
// Items are immutable once recorded.
type HistoryItem struct {
	ID        string         `json:"id"`        // Time-ordered unique identifier
	UserInput string         `json:"userInput"` // Raw input; for images the full data URI
	InputType InputType      `json:"inputType"` // Human-readable label
	Report    AnalysisReport `json:"report"`    // Embedded, never shared
}
