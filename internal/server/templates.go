package server

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/davefn/mailburst/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// indexData feeds the campaign form template.
type indexData struct {
	Authorized bool
	Flash      string
}

func (a *App) renderIndex(w http.ResponseWriter, data indexData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		a.logger.Error("failed to render template", logging.Err(err))
	}
}
