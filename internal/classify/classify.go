// Package classify decides the semantic category of raw text input.
package classify

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/securo/internal/model"
)

// VideoHosts is the allow-list of video platforms. Subdomains match too.
var VideoHosts = []string{
	"youtube.com",
	"youtu.be",
	"vimeo.com",
	"dailymotion.com",
	"twitch.tv",
}

var (
	schemePrefix = regexp.MustCompile(`^https?://`)
	dottedQuad   = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)
)

// Classify returns the category of raw. Video links take precedence over
// generic URLs; anything not recognized as a URL is plain text.
func Classify(raw string) model.InputKind {
	switch {
	case IsVideoURL(raw):
		return model.KindVideoLink
	case IsURL(raw):
		return model.KindURL
	default:
		return model.KindPlainText
	}
}

// IsURL reports whether raw looks like a web address
func IsURL(raw string) bool {
	_, ok := urlHost(raw)
	return ok
}

// IsVideoURL reports whether raw is a URL on one of the VideoHosts
func IsVideoURL(raw string) bool {
	host, ok := urlHost(raw)
	return ok && isVideoHost(host)
}

// urlHost returns the lowercased hostname when raw is URL-like.
// Inputs with inner whitespace only count when they carry an explicit http(s) scheme.
func urlHost(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)

	if strings.IndexFunc(trimmed, unicode.IsSpace) >= 0 {
		if !schemePrefix.MatchString(trimmed) {
			return "", false
		}
		// Still need a host for the video check
		host, _ := parseHost(trimmed)
		return host, true
	}

	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	host, ok := parseHost(candidate)
	if !ok {
		return "", false
	}
	if strings.Contains(host, ".") || host == "localhost" || dottedQuad.MatchString(host) {
		return host, true
	}
	return "", false
}

func parseHost(candidate string) (string, bool) {
	parsed, err := url.Parse(candidate)
	if err != nil || parsed.Scheme == "" {
		return "", false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", false
	}
	return host, true
}

func isVideoHost(host string) bool {
	for _, video := range VideoHosts {
		if host == video || strings.HasSuffix(host, "."+video) {
			return true
		}
	}
	return false
}
