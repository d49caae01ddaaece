package classify

import (
	"testing"

	"github.com/ppiankov/securo/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		input    string
		expected model.InputKind
		desc     string
	}{
		{"https://youtube.com/watch?v=x", model.KindVideoLink, "youtube with scheme"},
		{"https://www.youtube.com/watch?v=x", model.KindVideoLink, "youtube subdomain"},
		{"youtu.be/abc", model.KindVideoLink, "scheme-less short link"},
		{"https://m.twitch.tv/somechannel", model.KindVideoLink, "twitch mobile"},
		{"VIMEO.com/123", model.KindVideoLink, "host is case-insensitive"},
		{"https://dailymotion.com/video/x", model.KindVideoLink, "dailymotion"},
		{"https://example.com/video.mp4", model.KindURL, "video file on a non-video host"},
		{"https://notyoutube.com/watch", model.KindURL, "suffix without dot boundary"},
		{"https://youtube.com.evil.io/watch", model.KindURL, "video host as prefix only"},
		{"https://example.com", model.KindURL, "plain https"},
		{"example.com/path?q=1", model.KindURL, "scheme-less domain"},
		{"http://localhost:8080/admin", model.KindURL, "localhost"},
		{"localhost", model.KindURL, "bare localhost"},
		{"192.168.0.1", model.KindURL, "dotted quad"},
		{"ftp://files.example.org", model.KindURL, "other scheme"},
		{"  https://example.com  ", model.KindURL, "surrounding whitespace"},
		{"http://example.com is a site", model.KindURL, "whitespace with http prefix"},
		{"hello world", model.KindPlainText, "two words"},
		{"check example.com now", model.KindPlainText, "whitespace without scheme"},
		{"hello", model.KindPlainText, "single word without dot"},
		{"just-a-word", model.KindPlainText, "hyphenated word"},
		{"youtube video about cats", model.KindPlainText, "platform named in prose"},
		{"", model.KindPlainText, "empty"},
		{"   ", model.KindPlainText, "blank"},
		{"https://", model.KindPlainText, "scheme only"},
		{"://example.com", model.KindPlainText, "missing scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := Classify(tt.input)
			if got != tt.expected {
				t.Errorf("Classify(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClassify_WhitespaceWithoutSchemeIsPlainText(t *testing.T) {
	inputs := []string{
		"youtube.com/watch?v=x is great",
		"www.example.com\tfoo",
		"see https://example.com",
		"HTTPS://example.com and more",
		"line one\nline two.com",
	}

	for _, input := range inputs {
		if got := Classify(input); got != model.KindPlainText {
			t.Errorf("Classify(%q) = %v, want plain text", input, got)
		}
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("example.com") {
		t.Error("expected example.com to be a URL")
	}
	if IsURL("just-a-word") {
		t.Error("expected just-a-word not to be a URL")
	}
}

func TestIsVideoURL(t *testing.T) {
	if !IsVideoURL("https://dailymotion.com/video/x") {
		t.Error("expected dailymotion to be a video URL")
	}
	if IsVideoURL("https://example.com/video.mp4") {
		t.Error("expected example.com not to be a video URL")
	}
	if IsVideoURL("youtube video about cats") {
		t.Error("expected plain text not to be a video URL")
	}
}

func TestInputKind_InputType(t *testing.T) {
	cases := map[model.InputKind]model.InputType{
		model.KindPlainText: model.InputTypePlainText,
		model.KindURL:       model.InputTypeURL,
		model.KindVideoLink: model.InputTypeVideoLink,
	}
	for kind, want := range cases {
		if got := kind.InputType(); got != want {
			t.Errorf("%v.InputType() = %q, want %q", kind, got, want)
		}
	}
}
