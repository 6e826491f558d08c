// Package httpapi exposes the engine registry over HTTP.
//
// Routes:
//
//	GET    /engines                    list registered engines
//	POST   /engines                    register an engine {name, xml}
//	GET    /engines/{name}             stored metadata
//	DELETE /engines/{name}             remove an engine
//	GET    /engines/{name}/describe    normalized description document
//	GET    /engines/{name}/suggest?q=  proxy the suggestion endpoint
//	GET    /engines/{name}/search?q=   302 to the expanded results URL
//
// The handler is mountable:
//
//	r.Mount("/osdesc", httpapi.New(reg))
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/osdesc"
	"github.com/hazyhaar/osdesc/registry"
)

type api struct {
	reg *registry.Registry
}

// New builds the registry HTTP handler.
func New(reg *registry.Registry) http.Handler {
	a := &api{reg: reg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/engines", a.handleList)
	r.Post("/engines", a.handleRegister)
	r.Get("/engines/{name}", a.handleInfo)
	r.Delete("/engines/{name}", a.handleDelete)
	r.Get("/engines/{name}/describe", a.handleDescribe)
	r.Get("/engines/{name}/suggest", a.handleSuggest)
	r.Get("/engines/{name}/search", a.handleSearch)
	return r
}

func (a *api) handleList(w http.ResponseWriter, r *http.Request) {
	engines, err := a.reg.List(r.Context())
	if err != nil {
		handleErr(w, err)
		return
	}
	if engines == nil {
		engines = []registry.Engine{}
	}
	writeJSON(w, http.StatusOK, engines)
}

func (a *api) handleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 256*1024)

	var req struct {
		Name string `json:"name"`
		XML  string `json:"xml"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}

	e, err := a.reg.Put(r.Context(), req.Name, []byte(req.XML))
	if err != nil {
		handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (a *api) handleInfo(w http.ResponseWriter, r *http.Request) {
	e, err := a.reg.Info(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *api) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.reg.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		handleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleDescribe(w http.ResponseWriter, r *http.Request) {
	p, err := a.reg.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Description())
}

func (a *api) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		jsonErr(w, "missing q parameter", http.StatusBadRequest)
		return
	}

	s, err := a.reg.Suggest(r.Context(), chi.URLParam(r, "name"), osdesc.Values{"searchTerms": q})
	if err != nil {
		handleErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-suggestions+json")
	json.NewEncoder(w).Encode(s)
}

func (a *api) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		jsonErr(w, "missing q parameter", http.StatusBadRequest)
		return
	}

	u, err := a.reg.SearchURL(r.Context(), chi.URLParam(r, "name"), osdesc.Values{"searchTerms": q})
	if err != nil {
		handleErr(w, err)
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

// statusFor maps domain errors onto HTTP statuses: bad input is 400, a
// missing engine is 404, a capability the stored document does not
// declare is 409, and upstream failures are 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrInvalidName),
		errors.Is(err, osdesc.ErrParse),
		errors.Is(err, osdesc.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, osdesc.ErrNoSuggestions),
		errors.Is(err, osdesc.ErrNoSuchURL),
		errors.Is(err, osdesc.ErrUnsupportedMethod):
		return http.StatusConflict
	case errors.Is(err, osdesc.ErrRequest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func handleErr(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	jsonErr(w, msg, code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
