// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/cyberkittens/kittens/internal/httperr"
)

const welcomePage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Cyber Kittens</title></head>
<body>
  <h1>Welcome to Cyber Kittens!</h1>
  <p>Cats are available at <a href="/kittens/1">/kittens/:id</a></p>
  <p>Create a new cat at <b><code>POST /kittens</code></b> and delete one at <b><code>DELETE /kittens/:id</code></b></p>
  <p>Log in via <b><code>POST /login</code></b></p>
</body>
</html>
`

// Handler serves the unauthenticated pages and fallbacks.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Welcome serves the static landing page.
// GET /
func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(welcomePage))
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	httperr.Write(w, httperr.NotFound(nil))
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httperr.Write(w, httperr.New(http.StatusMethodNotAllowed, nil))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
