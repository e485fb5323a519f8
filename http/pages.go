package http

import (
	"bytes"
	"html/template"
	"net/http"
)

type pageSet struct {
	templates *template.Template
}

func mustParsePages() *pageSet {
	return &pageSet{
		templates: template.Must(template.New("pages").ParseFS(templateFS, "templates/*.html")),
	}
}

// render executes into a buffer first so a template failure never leaves
// a half-written page behind a 200.
func (p *pageSet) render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
