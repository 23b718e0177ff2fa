// Package api exposes the menu editor over HTTP/JSON and streams forest
// changes over a websocket.
package api

import (
	"net/http"

	"github.com/mchmarny/menued/pkg/editor"
	"github.com/mchmarny/menued/pkg/menu"
	"github.com/mchmarny/menued/pkg/server"
)

// API holds the handlers of one editing session.
type API struct {
	editor  *editor.Editor
	session *editor.Session
	hub     *Hub
}

// New creates the API over ed. The session is the single editing client's
// form mode and expansion state.
func New(ed *editor.Editor, session *editor.Session) *API {
	return &API{
		editor:  ed,
		session: session,
		hub:     NewHub(ed.Store()),
	}
}

// Close disconnects websocket watchers.
func (a *API) Close() {
	a.hub.Close()
}

// Handler returns a mux with every API route, for tests and embedding.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	for pattern, h := range a.routes() {
		mux.Handle(pattern, h)
	}
	return mux
}

// Options returns the routes as server options.
func (a *API) Options() []server.Option {
	routes := a.routes()
	opts := make([]server.Option, 0, len(routes))
	for pattern, h := range routes {
		opts = append(opts, server.WithHandler(pattern, h))
	}
	return opts
}

func (a *API) routes() map[string]http.Handler {
	return map[string]http.Handler{
		"GET /api/menu":         http.HandlerFunc(a.getMenu),
		"GET /api/menu/flat":    http.HandlerFunc(a.getFlat),
		"GET /api/menu/visible": http.HandlerFunc(a.getVisible),

		"POST /api/nodes":           http.HandlerFunc(a.addNode),
		"PUT /api/nodes/{id...}":    http.HandlerFunc(a.editNode),
		"DELETE /api/nodes/{id...}": http.HandlerFunc(a.deleteNode),
		"POST /api/move":            http.HandlerFunc(a.move),
		"POST /api/reset":           http.HandlerFunc(a.reset),

		"GET /api/session":                   http.HandlerFunc(a.getSession),
		"POST /api/session/edit/{id...}":     http.HandlerFunc(a.beginEdit),
		"POST /api/session/submit":           http.HandlerFunc(a.submit),
		"POST /api/session/cancel":           http.HandlerFunc(a.cancelEdit),
		"POST /api/session/expand/{id...}":   http.HandlerFunc(a.expand),
		"POST /api/session/collapse/{id...}": http.HandlerFunc(a.collapse),
		"POST /api/session/toggle/{id...}":   http.HandlerFunc(a.toggle),

		"GET /api/watch": a.hub,
	}
}

func (a *API) getMenu(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.editor.Store().Current())
}

func (a *API) getFlat(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.editor.Store().Current().Flatten())
}

// getVisible uses ?expanded=<id> parameters when present, the session
// expansion otherwise.
func (a *API) getVisible(w http.ResponseWriter, r *http.Request) {
	if ids, ok := r.URL.Query()["expanded"]; ok {
		writeJSON(w, http.StatusOK, a.editor.Store().Current().Visible(menu.NewExpansion(ids...)))
		return
	}
	writeJSON(w, http.StatusOK, a.session.Visible())
}

func (a *API) addNode(w http.ResponseWriter, r *http.Request) {
	var form menu.FormValues
	if err := decodeJSON(w, r, &form); err != nil {
		badRequest(w, err)
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := a.editor.Add(r.Context(), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (a *API) editNode(w http.ResponseWriter, r *http.Request) {
	var form menu.FormValues
	if err := decodeJSON(w, r, &form); err != nil {
		badRequest(w, err)
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := a.editor.Edit(r.Context(), r.PathValue("id"), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (a *API) deleteNode(w http.ResponseWriter, r *http.Request) {
	if err := a.editor.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) move(w http.ResponseWriter, r *http.Request) {
	var ev editor.DropEvent
	if err := decodeJSON(w, r, &ev); err != nil {
		badRequest(w, err)
		return
	}

	res, err := a.session.Move(r.Context(), ev)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) reset(w http.ResponseWriter, r *http.Request) {
	if err := a.editor.Reset(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.editor.Store().Current())
}

func (a *API) getSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.session.State())
}

func (a *API) beginEdit(w http.ResponseWriter, r *http.Request) {
	form, err := a.session.BeginEdit(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (a *API) submit(w http.ResponseWriter, r *http.Request) {
	var form menu.FormValues
	if err := decodeJSON(w, r, &form); err != nil {
		badRequest(w, err)
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := a.session.Submit(r.Context(), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (a *API) cancelEdit(w http.ResponseWriter, _ *http.Request) {
	a.session.CancelEdit()
	writeJSON(w, http.StatusOK, a.session.State())
}

func (a *API) expand(w http.ResponseWriter, r *http.Request) {
	if err := a.session.Expand(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.session.State())
}

func (a *API) collapse(w http.ResponseWriter, r *http.Request) {
	a.session.Collapse(r.PathValue("id"))
	writeJSON(w, http.StatusOK, a.session.State())
}

func (a *API) toggle(w http.ResponseWriter, r *http.Request) {
	if _, err := a.session.Toggle(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.session.State())
}
