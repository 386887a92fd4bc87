package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// bodyPlaceholder marks the insertion point inside the embedded template.
const bodyPlaceholder = "{{BODY}}"

//go:embed template.docx
var templateDocx []byte

// ConvertToDOCX converts an existing PDF into a DOCX file and returns its
// path. The PDF's plain text is extracted and written into a fresh document
// built from the embedded template; layout is not preserved.
func (g *Generator) ConvertToDOCX(pdfPath string) (string, error) {
	text, err := extractPDFText(pdfPath)
	if err != nil {
		return "", err
	}

	out, err := g.writeDocx(text)
	if err != nil {
		return "", err
	}

	g.logger.Debug("converted pdf to docx", "source", pdfPath, "path", out)
	return out, nil
}

// writeDocx builds a document from the embedded template with the given
// plain text as its body.
func (g *Generator) writeDocx(text string) (string, error) {
	tmpl, err := docx.ReadDocxFromMemory(bytes.NewReader(templateDocx), int64(len(templateDocx)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx template: %w", err)
	}
	defer tmpl.Close()

	doc := tmpl.Editable()
	doc.ReplaceRaw(bodyPlaceholder, textToRuns(text), -1)

	out := filepath.Join(g.dir, "mail-"+uuid.NewString()+".docx")
	if err := doc.WriteToFile(out); err != nil {
		return "", fmt.Errorf("failed to write docx: %w", err)
	}
	return out, nil
}

// extractPDFText pulls the plain text out of every page of a PDF.
func extractPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(map[string]*pdf.Font{})
		if err != nil {
			// Skip unreadable pages rather than failing the whole conversion
			continue
		}
		text.WriteString(content)
		text.WriteString("\n")
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("no text could be extracted from %s", path)
	}
	return text.String(), nil
}

// textToRuns turns plain text into WordprocessingML run content, escaping
// each line and joining them with explicit breaks.
func textToRuns(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	escaped := make([]string, 0, len(lines))
	for _, line := range lines {
		escaped = append(escaped, escapeXML(line))
	}
	return strings.Join(escaped, "</w:t><w:br/><w:t>")
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
