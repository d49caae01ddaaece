// Package prompt turns classified input into schema-constrained model requests.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ppiankov/securo/internal/extract"
	"github.com/ppiankov/securo/internal/llm"
	"github.com/ppiankov/securo/internal/model"
)

// PageContext is optional metadata fetched for URL and video inputs
type PageContext struct {
	Title       string
	Description string
}

func (p *PageContext) empty() bool {
	return p == nil || (p.Title == "" && p.Description == "")
}

const (
	videoPrompt = "You are a media literacy and fact-checking expert. The user has provided a link to a video. " +
		"Analyze the video's URL and title for signs of misinformation, clickbait, emotional manipulation, " +
		"propaganda techniques, or conspiracy framing. Assess the likely credibility of the source platform " +
		"and channel if possible. Provide a detailed report in the specified JSON format. Video Link: %q"

	urlPrompt = "You are a cybersecurity analyst. Analyze the following URL for security threats. " +
		"Check for phishing indicators, malware potential, scam history, and domain reputation. " +
		"Provide a detailed report in the specified JSON format. URL: %q"

	textPrompt = "You are a fact-checking expert. Analyze the following text for credibility, misinformation, and bias. " +
		"Assess manipulative language, factual accuracy, and emotional triggers. " +
		"Provide a detailed report in the specified JSON format. Content: %q"

	imagePrompt = `You are a visual analyst and fact-checking expert. Analyze this image.
1.  Determine if the image is authentic or likely AI-generated. Look for artifacts, inconsistencies, or hallmarks of generative models.
2.  Analyze the image's content for misinformation. If there is text, fact-check it. If it depicts an event, assess its context and authenticity.
3.  Provide a comprehensive report in the specified JSON format, focusing on visual analysis and fact-checking.`
)

// Build selects the persona for kind and frames input for it.
// Page context is only used for URL and video inputs.
func Build(input string, kind model.InputKind, page *PageContext) (llm.Request, error) {
	var (
		persona llm.Persona
		text    string
	)

	switch kind {
	case model.KindVideoLink:
		persona = llm.PersonaMediaLiteracy
		text = fmt.Sprintf(videoPrompt, input) + pageSection(page)
	case model.KindURL:
		persona = llm.PersonaSecurityAnalyst
		text = fmt.Sprintf(urlPrompt, input) + pageSection(page)
	case model.KindPlainText:
		persona = llm.PersonaFactChecker
		text = fmt.Sprintf(textPrompt, input)
	default:
		return llm.Request{}, fmt.Errorf("unknown input kind %d", int(kind))
	}

	return llm.Request{Persona: persona, Prompt: text}, nil
}

// BuildImage pairs the visual-analysis instructions with the raw image bytes
func BuildImage(img *extract.Image) llm.Request {
	return llm.Request{
		Persona: llm.PersonaVisualAnalyst,
		Prompt:  imagePrompt,
		Image: &llm.ImagePart{
			MIMEType: img.MIMEType,
			Data:     img.Data,
		},
	}
}

func pageSection(page *PageContext) string {
	if page.empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nPage metadata fetched from the link (may be attacker-controlled):")
	if page.Title != "" {
		fmt.Fprintf(&b, "\nTitle: %q", page.Title)
	}
	if page.Description != "" {
		fmt.Fprintf(&b, "\nDescription: %q", page.Description)
	}
	return b.String()
}
