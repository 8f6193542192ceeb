package httperr

import (
	"encoding/json"
	"net/http"
)

// body is the client-facing shape of a classified error.
type body struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// internalBody is the client-facing shape of an unexpected failure.
type internalBody struct {
	Error   string `json:"error"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Write sends e as a JSON response. Only the status text and code are exposed.
func Write(w http.ResponseWriter, e *Error) {
	writeJSON(w, e.Status, body{
		Error: http.StatusText(e.Status),
		Code:  e.Code,
	})
}

// WriteInternal sends a 500 response carrying the failure kind and message.
func WriteInternal(w http.ResponseWriter, name, message string) {
	writeJSON(w, http.StatusInternalServerError, internalBody{
		Error:   message,
		Name:    name,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
