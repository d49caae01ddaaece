package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

// isWordML matches the transitional and strict wordprocessingml namespaces
func isWordML(space string) bool {
	return space == "http://schemas.openxmlformats.org/wordprocessingml/2006/main" ||
		space == "http://purl.oclc.org/ooxml/wordprocessingml/main"
}

// readDocx extracts the raw text of a Word document body.
// Paragraphs become lines. Tabs and breaks count only inside a run;
// w:tab under w:pPr/w:tabs is a tab-stop definition.
func readDocx(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	for _, f := range archive.File {
		if f.Name != docxBodyPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", docxBodyPart, err)
		}
		defer func() { _ = rc.Close() }()
		return docxText(rc)
	}

	return "", fmt.Errorf("docx has no %s", docxBodyPart)
}

func docxText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		buf    strings.Builder
		inText bool
		runs   int
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", docxBodyPart, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if !isWordML(el.Name.Space) {
				continue
			}
			switch el.Name.Local {
			case "r":
				runs++
			case "t":
				inText = runs > 0
			case "tab":
				if runs > 0 {
					buf.WriteByte('\t')
				}
			case "br", "cr":
				if runs > 0 {
					buf.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if !isWordML(el.Name.Space) {
				continue
			}
			switch el.Name.Local {
			case "r":
				runs--
			case "t":
				inText = false
			case "p":
				buf.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				buf.Write(el)
			}
		}
	}

	return strings.TrimRight(buf.String(), "\n"), nil
}
