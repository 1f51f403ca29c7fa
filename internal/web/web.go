package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/saulo-duarte/engmcq-web/internal/auth"
	"github.com/saulo-duarte/engmcq-web/internal/config"
	util "github.com/saulo-duarte/engmcq-web/internal/utils"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

type User struct {
	ID        string
	Name      string
	Email     string
	AvatarURL string
}

// Page is the data every template receives.
type Page struct {
	Title string
	User  *User
	Path  string
	Data  any
}

type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"initial": func(name string) string {
		name = strings.TrimSpace(name)
		if name == "" {
			return "?"
		}
		return strings.ToUpper(string([]rune(name)[0]))
	},
	"deref": func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	},
	"timestamp": util.FormatTimestamp,
}

// NewRenderer parses each page together with the shared layout.
func NewRenderer() (*Renderer, error) {
	names, err := fs.Glob(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: map[string]*template.Template{}}
	for _, name := range names {
		base := strings.TrimSuffix(path.Base(name), ".html")
		if base == "layout" {
			continue
		}
		t, err := template.New(base).Funcs(funcs).ParseFS(templateFiles, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", base, err)
		}
		r.pages[base] = t
	}
	return r, nil
}

// HTML renders page inside the layout. The signed-in user, if any, is taken
// from the request context.
func (rd *Renderer) HTML(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	t, ok := rd.pages[page]
	if !ok {
		config.WithContext(r.Context()).Errorf("Unknown template %s", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	p := Page{Title: title, Path: r.URL.Path, Data: data}
	if s, err := auth.SessionFromContext(r.Context()); err == nil {
		p.User = &User{ID: s.UserID, Name: s.DisplayName, Email: s.Email, AvatarURL: s.AvatarURL}
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		config.WithContext(r.Context()).WithError(err).Errorf("Failed to render %s", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Static serves the embedded assets under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
