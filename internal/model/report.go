package model

import "fmt"

// AnalysisReport is the structured result of one credibility analysis.
// JSON field names match the response schema requested from the model.
type AnalysisReport struct {
	CredibilityScore    int         `json:"credibility_score"`    // 0-100, higher is more trustworthy
	ThreatLevel         ThreatLevel `json:"threat_level"`         // Safe, Questionable, Dangerous or Unknown
	AnalysisSummary     string      `json:"analysis_summary"`     // One sentence
	DetailedExplanation string      `json:"detailed_explanation"` // Free text
	EducationalTips     []string    `json:"educational_tips"`     // Ordered advisory strings
}

// ThreatLevel is the coarse safety bucket attached to a report
type ThreatLevel string

const (
	ThreatSafe         ThreatLevel = "Safe"
	ThreatQuestionable ThreatLevel = "Questionable"
	ThreatDangerous    ThreatLevel = "Dangerous"
	ThreatUnknown      ThreatLevel = "Unknown" // Local fallback, never requested from the model
)

// RequestableThreatLevels are the values the model is allowed to return
var RequestableThreatLevels = []ThreatLevel{ThreatSafe, ThreatQuestionable, ThreatDangerous}

// IsRequestable reports whether the level is one the model may return
func (t ThreatLevel) IsRequestable() bool {
	switch t {
	case ThreatSafe, ThreatQuestionable, ThreatDangerous:
		return true
	default:
		return false
	}
}

// Normalize coerces anything outside the requestable set to Unknown
func (t ThreatLevel) Normalize() ThreatLevel {
	if t.IsRequestable() {
		return t
	}
	return ThreatUnknown
}

// Score bounds
const (
	MinCredibilityScore = 0
	MaxCredibilityScore = 100
)

// String renders the report as a one-line description
func (r AnalysisReport) String() string {
	return fmt.Sprintf("%s (%d/100): %s", r.ThreatLevel, r.CredibilityScore, r.AnalysisSummary)
}
