// Package web renders the server-side pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"packd/internal/apperr"
	"packd/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData contains common fields used across all page templates.
type PageData struct {
	Title    string
	Nav      string // active nav item: "dashboard", "categories", "trips"
	Username string
	Flashes  []Flash
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() *Renderer {
	return NewRendererFS(templateFS)
}

// NewRendererFS parses templates from the given FS. Each page is parsed on a
// clone of the layout so block names never collide between pages.
func NewRendererFS(fsys fs.FS) *Renderer {
	sub, err := fs.Sub(fsys, "templates")
	if err != nil {
		panic(err)
	}

	funcMap := template.FuncMap{
		"formatTime": formatTime,
		"selected":   selected,
		"itemRow":    itemRow,
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(sub, "layout.html"))

	pages := map[string]string{
		"login":           "login.html",
		"register":        "register.html",
		"dashboard":       "dashboard.html",
		"categories":      "categories.html",
		"category_detail": "category_detail.html",
		"trips":           "trips.html",
		"trip_create":     "trip_create.html",
		"trip_detail":     "trip_detail.html",
		"error":           "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(sub, file))
		templates[name] = t
	}

	return &Renderer{templates: templates}
}

// Render renders a named page template with HTTP 200.
func (r *Renderer) Render(w http.ResponseWriter, name string, data any) {
	r.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a named page template with the given status code.
func (r *Renderer) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		log.Printf("template %q not found", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("template execution error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// RenderError renders an error page for err. Internal details are logged, not shown.
func (r *Renderer) RenderError(w http.ResponseWriter, page PageData, err error) {
	aErr := apperr.From(err)
	message := aErr.Message
	if aErr.Code == apperr.CodeInternal {
		log.Printf("internal error: %v", err)
		message = "Something went wrong."
	}
	page.Title = fmt.Sprintf("Error %d", aErr.Status)
	r.RenderStatus(w, aErr.Status, "error", ErrorPageData{
		PageData:   page,
		StatusCode: aErr.Status,
		Message:    message,
	})
}

// SecurityHeaders adds security-related HTTP headers to page responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; form-action 'self' https:")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

// formatTime formats a timestamp as "2006-01-02 15:04" UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// selected reports whether id is in ids; used to pre-check category boxes.
func selected(id uuid.UUID, ids []uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ItemRow is the data for one trip item line on the trip page.
type ItemRow struct {
	TripID     uuid.UUID
	Item       models.TripItem
	Categories []models.Category
}

func itemRow(tripID uuid.UUID, item models.TripItem, categories []models.Category) ItemRow {
	return ItemRow{TripID: tripID, Item: item, Categories: categories}
}
