package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cyberkittens/kittens/internal/auth"
	"github.com/cyberkittens/kittens/internal/httperr"
	"github.com/cyberkittens/kittens/internal/middleware"
)

// HandlerFunc is an http.HandlerFunc that reports failure by returning an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// namer lets an error choose the name reported in 500 responses.
type namer interface {
	Name() string
}

// ErrorResponder completes any request whose handler returned an error.
type ErrorResponder struct {
	logger *slog.Logger
}

// NewErrorResponder creates a new ErrorResponder.
func NewErrorResponder(logger *slog.Logger) *ErrorResponder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorResponder{logger: logger}
}

// Wrap adapts fn to http.HandlerFunc, handing any returned error to Respond.
func (e *ErrorResponder) Wrap(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			e.Respond(w, r, err)
		}
	}
}

// Respond writes err to the client.
// Classified *httperr.Error values keep their status; everything else is a 500
// carrying the error kind and message.
func (e *ErrorResponder) Respond(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *httperr.Error
	if errors.As(err, &httpErr) {
		httperr.Write(w, httpErr)
		return
	}

	if middleware.IsBodyTooLarge(err) {
		httperr.Write(w, httperr.New(http.StatusRequestEntityTooLarge, err))
		return
	}

	kind := errorKind(err)
	e.logger.Error("request failed",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("user_id", auth.UserIDFromContext(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)

	httperr.WriteInternal(w, kind, err.Error())
}

// errorKind names err for clients: a Name() method anywhere in the chain wins,
// otherwise the concrete type of the root cause. Anonymous stdlib error types
// report as "Error".
func errorKind(err error) string {
	var n namer
	if errors.As(err, &n) {
		return n.Name()
	}

	root := err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}

	name := fmt.Sprintf("%T", root)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}

	switch name {
	case "errorString", "wrapError", "wrapErrors", "joinError", "":
		return "Error"
	}
	return name
}
