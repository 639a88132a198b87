// Package handler contains the HTTP handlers of the portal pages.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the incoming request (path params, query, form)
//  2. Call the stores in internal/service and the read models in internal/projection
//  3. Render a page, or redirect back with a message
//
// Handlers hold no state of their own. Every snapshot they show comes from
// the stores, which the server refreshes on login and on its schedule.
package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/sakif/ssc-portal/internal/auth"
	"github.com/sakif/ssc-portal/internal/model"
	"github.com/sakif/ssc-portal/internal/projection"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// mdRenderer turns member bios into HTML. Raw HTML in the source is escaped
// because WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(v any) template.HTML {
	md := fmt.Sprint(v)
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

var funcs = template.FuncMap{
	"formatDate": func(v any) string { return projection.FormatDate(fmt.Sprint(v)) },
	"longDate":   func(v any) string { return projection.FormatDateAs(fmt.Sprint(v), projection.LongDate, "N/A") },
	"dateInput":  func(v any) string { return projection.DateInputValue(fmt.Sprint(v)) },
	"markdown":   renderMarkdown,
	"add":        func(a, b int) int { return a + b },
	"newWeek":    func(i int) bool { return i > 0 && i%7 == 0 },
	"initial": func(v any) string {
		name := strings.TrimSpace(fmt.Sprint(v))
		if name == "" {
			return "?"
		}
		return strings.ToUpper(string([]rune(name)[0]))
	},
	"orDash": func(v any) string {
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			return s
		}
		return "-"
	},
}

// Page is what every template receives. Data holds the page-specific view.
type Page struct {
	Title  string
	Active string // nav item to highlight
	User   *model.User
	CSRF   template.HTML
	Error  string
	Notice string
	Path   string // current path, posted back as "next"
	Data   any
}

// Renderer holds one parsed template set per page. Each set is the layout
// plus the page file, so every page can fill the layout's "content" block.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses every embedded page once at startup.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template), logger: logger}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render executes page name into w with status. The user, the CSRF field and
// any flash message in the query string are filled in when the caller left
// them empty.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name string, page Page) {
	tmpl, ok := r.pages[name]
	if !ok {
		r.logger.Error("unknown template", slog.String("template", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if page.User == nil {
		page.User = auth.UserFromContext(req.Context())
	}
	if page.Error == "" {
		page.Error = req.URL.Query().Get("error")
	}
	if page.Notice == "" {
		page.Notice = req.URL.Query().Get("notice")
	}
	page.CSRF = csrf.TemplateField(req)
	page.Path = req.URL.Path

	// Render into a buffer so a template error never leaves half a page
	// behind a 200.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", page); err != nil {
		r.logger.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// NotFound renders the not-found page with msg.
func (r *Renderer) NotFound(w http.ResponseWriter, req *http.Request, active, msg string) {
	r.Render(w, req, http.StatusNotFound, "notfound", Page{Title: "Not found", Active: active, Error: msg})
}
