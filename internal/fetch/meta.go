package fetch

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

type pageMeta struct {
	title         string
	ogTitle       string
	description   string
	ogDescription string
}

// parseMeta tokenizes until </head> or EOF, collecting the title and
// description tags. Open Graph values fill in when the plain tags are missing.
func parseMeta(r io.Reader) (pageMeta, error) {
	var meta pageMeta
	tokenizer := html.NewTokenizer(r)
	inTitle := false

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			err := tokenizer.Err()
			if errors.Is(err, io.EOF) {
				return meta.resolve(), nil
			}
			return meta.resolve(), err

		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "title":
				inTitle = meta.title == ""
			case "meta":
				meta.addMetaTag(token.Attr)
			case "body":
				return meta.resolve(), nil
			}

		case html.TextToken:
			if inTitle {
				meta.title += string(tokenizer.Text())
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "title":
				inTitle = false
			case "head":
				return meta.resolve(), nil
			}
		}
	}
}

func (m *pageMeta) addMetaTag(attrs []html.Attribute) {
	var key, content string
	for _, attr := range attrs {
		switch strings.ToLower(attr.Key) {
		case "name", "property":
			key = strings.ToLower(attr.Val)
		case "content":
			content = attr.Val
		}
	}

	switch key {
	case "description":
		if m.description == "" {
			m.description = content
		}
	case "og:title":
		if m.ogTitle == "" {
			m.ogTitle = content
		}
	case "og:description":
		if m.ogDescription == "" {
			m.ogDescription = content
		}
	}
}

func (m pageMeta) resolve() pageMeta {
	m.title = collapseSpace(m.title)
	if m.title == "" {
		m.title = collapseSpace(m.ogTitle)
	}
	m.description = collapseSpace(m.description)
	if m.description == "" {
		m.description = collapseSpace(m.ogDescription)
	}
	return m
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
