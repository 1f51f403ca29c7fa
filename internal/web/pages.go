package web

import "net/http"

type Pages struct {
	render *Renderer
}

func NewPages(r *Renderer) *Pages {
	return &Pages{render: r}
}

type loginData struct {
	CallbackURL string
	Error       string
}

// Login is the landing page for anonymous visitors.
func (p *Pages) Login(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p.render.HTML(w, r, http.StatusOK, "login", "Sign in", loginData{
		CallbackURL: q.Get("callbackUrl"),
		Error:       q.Get("error"),
	})
}

func (p *Pages) Home(w http.ResponseWriter, r *http.Request) {
	p.render.HTML(w, r, http.StatusOK, "home", "Home", nil)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
