package llm

import (
	"strings"

	"github.com/ppiankov/securo/internal/model"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// SchemaName identifies the response schema in provider requests
const SchemaName = "analysis_report"

// Required response fields
const (
	FieldCredibilityScore    = "credibility_score"
	FieldThreatLevel         = "threat_level"
	FieldAnalysisSummary     = "analysis_summary"
	FieldDetailedExplanation = "detailed_explanation"
	FieldEducationalTips     = "educational_tips"
)

// ResponseSchema returns the fixed structured-output schema shared by every
// analysis call. Unknown is a local fallback and is never offered to the model.
func ResponseSchema() jsonschema.Definition {
	levels := make([]string, 0, len(model.RequestableThreatLevels))
	for _, level := range model.RequestableThreatLevels {
		levels = append(levels, string(level))
	}

	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			FieldCredibilityScore: {
				Type:        jsonschema.Number,
				Description: "A score from 0-100 representing credibility or safety. For URLs, this reflects trust. For text, factual accuracy. For images, authenticity. 100 is most credible/safe/authentic.",
			},
			FieldThreatLevel: {
				Type:        jsonschema.String,
				Description: "The overall threat level. Must be one of: 'Safe', 'Questionable', 'Dangerous'.",
				Enum:        levels,
			},
			FieldAnalysisSummary: {
				Type:        jsonschema.String,
				Description: "A concise, one-sentence summary of the analysis, mentioning if the image seems AI-generated or if the text is misleading.",
			},
			FieldDetailedExplanation: {
				Type:        jsonschema.String,
				Description: "A detailed breakdown of the findings. For URLs, mention domain reputation, phishing indicators. For text, mention bias, manipulative language. For images, explain indicators of AI generation or why the content is misleading.",
			},
			FieldEducationalTips: {
				Type:        jsonschema.Array,
				Items:       &jsonschema.Definition{Type: jsonschema.String},
				Description: "A list of actionable tips for users to identify similar threats, misinformation, or fake images in the future.",
			},
		},
		Required: []string{
			FieldCredibilityScore,
			FieldThreatLevel,
			FieldAnalysisSummary,
			FieldDetailedExplanation,
			FieldEducationalTips,
		},
		AdditionalProperties: false,
	}
}

// geminiSchema converts a definition to Gemini's OpenAPI subset, which uses
// upper-case type names and has no additionalProperties.
func geminiSchema(def jsonschema.Definition) map[string]any {
	out := map[string]any{
		"type": strings.ToUpper(string(def.Type)),
	}
	if def.Description != "" {
		out["description"] = def.Description
	}
	if len(def.Enum) > 0 {
		out["enum"] = def.Enum
	}
	if len(def.Properties) > 0 {
		props := make(map[string]any, len(def.Properties))
		for name, prop := range def.Properties {
			props[name] = geminiSchema(prop)
		}
		out["properties"] = props
	}
	if len(def.Required) > 0 {
		out["required"] = def.Required
	}
	if def.Items != nil {
		out["items"] = geminiSchema(*def.Items)
	}
	return out
}
