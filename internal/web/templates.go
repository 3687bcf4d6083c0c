package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages are the views rendered inside the layout.
var pages = []string{"signin", "signup", "list", "form"}

// page is what every template receives.
type page struct {
	Flashes []flash
	Data    any
}

func parseTemplates() (map[string]*template.Template, error) {
	layout, err := template.ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	out := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// render writes a page with the flashes from the previous response plus the
// ones queued during this request.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	p := page{Flashes: takeFlashes(w, r), Data: data}
	if ex := exchangeFrom(r.Context()); ex != nil {
		p.Flashes = append(p.Flashes, ex.pending...)
		ex.pending = nil
	}

	var buf bytes.Buffer
	if err := h.templates[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		h.logger.ErrorContext(r.Context(), "render page", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
