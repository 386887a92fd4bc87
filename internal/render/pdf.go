package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/google/uuid"
)

// Generator renders campaign attachments into a working directory.
type Generator struct {
	dir    string
	logger *slog.Logger
}

// NewGenerator creates a Generator writing into dir. The directory is
// created if missing.
func NewGenerator(dir string, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create render directory: %w", err)
	}
	return &Generator{dir: dir, logger: logger}, nil
}

// RenderPDF lays out an HTML body as a PDF file and returns its path. The
// filename carries a random suffix so concurrent attempts cannot collide.
func (g *Generator) RenderPDF(htmlBody string) (string, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return "", fmt.Errorf("failed to initialize pdf renderer: %w", err)
	}

	page := wkhtmltopdf.NewPageReader(strings.NewReader(htmlBody))
	page.DisableExternalLinks.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return "", fmt.Errorf("failed to render pdf: %w", err)
	}

	out := filepath.Join(g.dir, "mail-"+uuid.NewString()+".pdf")
	if err := pdfg.WriteFile(out); err != nil {
		return "", fmt.Errorf("failed to write pdf: %w", err)
	}

	g.logger.Debug("rendered pdf attachment", "path", out)
	return out, nil
}
