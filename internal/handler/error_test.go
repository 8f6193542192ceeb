package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cyberkittens/kittens/internal/auth"
	"github.com/cyberkittens/kittens/internal/httperr"
	"github.com/cyberkittens/kittens/internal/model"
)

type namedError struct{}

func (namedError) Error() string { return "connection terminated" }
func (namedError) Name() string  { return "DatabaseError" }

type timeoutError struct{}

func (*timeoutError) Error() string { return "query timed out" }

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", errors.New("boom"), "Error"},
		{"wrapped plain", fmt.Errorf("load: %w", errors.New("boom")), "Error"},
		{"named", namedError{}, "DatabaseError"},
		{"wrapped named", fmt.Errorf("load: %w", namedError{}), "DatabaseError"},
		{"typed", &timeoutError{}, "timeoutError"},
		{"wrapped typed", fmt.Errorf("load: %w", &timeoutError{}), "timeoutError"},
		{"joined", errors.Join(errors.New("a"), errors.New("b")), "Error"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := errorKind(tt.err); got != tt.want {
				t.Errorf("errorKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorResponder_Classified(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unauthorized", httperr.Unauthorized(nil), http.StatusUnauthorized},
		{"not found", httperr.NotFound(errors.New("kitten 9")), http.StatusNotFound},
		{"bad request", httperr.BadRequest(errors.New("bad json")), http.StatusBadRequest},
		{"wrapped classified", fmt.Errorf("ctx: %w", httperr.NotFound(nil)), http.StatusNotFound},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var logs bytes.Buffer
			responder := NewErrorResponder(slog.New(slog.NewJSONHandler(&logs, nil)))

			rec := httptest.NewRecorder()
			responder.Respond(rec, httptest.NewRequest(http.MethodGet, "/kittens/9", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := rec.Body.String()
			if strings.Contains(body, "kitten 9") || strings.Contains(body, "bad json") {
				t.Errorf("cause leaked to client: %s", body)
			}
			if logs.Len() != 0 {
				t.Errorf("classified errors should not be logged at error level: %s", logs.String())
			}
		})
	}
}

func TestErrorResponder_Unexpected(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	responder := NewErrorResponder(slog.New(slog.NewJSONHandler(&logs, nil)))

	req := httptest.NewRequest(http.MethodPost, "/kittens", nil)
	req = req.WithContext(auth.ContextWithUser(req.Context(), &model.User{ID: "alice"}))
	rec := httptest.NewRecorder()
	responder.Respond(rec, req, namedError{})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]string{
		"error":   "connection terminated",
		"name":    "DatabaseError",
		"message": "connection terminated",
	}
	for k, v := range want {
		if body[k] != v {
			t.Errorf("%s = %q, want %q", k, body[k], v)
		}
	}
	if !strings.Contains(logs.String(), `"level":"ERROR"`) {
		t.Error("unexpected errors must be logged at error level")
	}
	if !strings.Contains(logs.String(), `"user_id":"alice"`) {
		t.Errorf("expected the caller's id in the error log, got %s", logs.String())
	}
}

func TestErrorResponder_Wrap(t *testing.T) {
	t.Parallel()

	responder := NewErrorResponder(slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("nil error leaves response alone", func(t *testing.T) {
		t.Parallel()
		h := responder.Wrap(func(w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodDelete, "/kittens/1", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})

	t.Run("error is responded", func(t *testing.T) {
		t.Parallel()
		h := responder.Wrap(func(w http.ResponseWriter, r *http.Request) error {
			return errors.New("store down")
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/kittens/1", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}
