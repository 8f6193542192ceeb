package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cyberkittens/kittens/internal/auth"
	"github.com/cyberkittens/kittens/internal/handler/dto"
	"github.com/cyberkittens/kittens/internal/httperr"
	"github.com/cyberkittens/kittens/internal/middleware"
	"github.com/cyberkittens/kittens/internal/service"
)

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
}

// LoginHandler handles POST /login.
type LoginHandler struct {
	svc    Authenticator
	logger *slog.Logger
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(svc Authenticator, logger *slog.Logger) *LoginHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginHandler{svc: svc, logger: logger}
}

// Login handles POST /login with a JSON or form-encoded email and password.
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var req dto.LoginRequest

	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return classifyDecodeError(err)
		}
		req.Email = r.PostForm.Get("email")
		req.Password = r.PostForm.Get("password")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return classifyDecodeError(err)
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Warn("authentication failed",
				slog.String("reason", "bad_login"),
				slog.String("ip", r.RemoteAddr),
				slog.String("request_id", middleware.GetRequestID(r.Context())),
			)
			return httperr.Unauthorized(err)
		}
		return err
	}

	h.logger.Info("login_succeeded",
		"user_id", result.User.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
	return nil
}
