package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/cappsac/capps-site/internal/content"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names understood by Renderer.
const (
	pageHome      = "home"
	pageServices  = "services"
	pageAbout     = "about"
	pageReviews   = "reviews"
	pageBook      = "book"
	pageContact   = "contact"
	pageEmergency = "emergency"
	pageNotFound  = "not_found"
	pageError     = "error"
)

var pageNames = []string{
	pageHome, pageServices, pageAbout, pageReviews, pageBook,
	pageContact, pageEmergency, pageNotFound, pageError,
}

// Page is the data every template receives.
type Page struct {
	Title string
	Path  string
	Year  int
	Site  *content.Catalog
	Data  any
}

// Renderer holds one parsed template set per page, each sharing the layout
// and partials.
type Renderer struct {
	catalog *content.Catalog
	pages   map[string]*template.Template
	now     func() time.Time
}

// NewRenderer parses the embedded templates against catalog.
func NewRenderer(catalog *content.Catalog) (*Renderer, error) {
	funcs := template.FuncMap{
		// tel: is not on html/template's safe scheme list.
		"telHref":      func() template.URL { return template.URL(catalog.TelHref()) },
		"phoneDisplay": func() string { return catalog.Company.PhoneDisplay },
		"glyph":        func(i content.Icon) string { return i.Glyph() },
		"stars":        func(n int) []struct{} { return make([]struct{}, max(n, 0)) },
	}
	base, err := template.New("site").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse layout: %w", err)
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("web: clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("web: parse %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{catalog: catalog, pages: pages, now: time.Now}, nil
}

// Render executes page into a buffer and writes it with status. Nothing is
// written when execution fails.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name, title string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("web: unknown page %q", name)
	}
	page := Page{
		Title: title,
		Path:  req.URL.Path,
		Year:  r.now().Year(),
		Site:  r.catalog,
		Data:  data,
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("web: render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
