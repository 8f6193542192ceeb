package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cyberkittens/kittens/internal/auth"
	"github.com/cyberkittens/kittens/internal/handler/dto"
	"github.com/cyberkittens/kittens/internal/httperr"
	"github.com/cyberkittens/kittens/internal/middleware"
	"github.com/cyberkittens/kittens/internal/model"
	"github.com/cyberkittens/kittens/internal/service"
)

var errNoUser = errors.New("no authenticated user in context")

// KittenService is the business logic behind the kitten endpoints.
type KittenService interface {
	CreateKitten(ctx context.Context, user *model.User, input service.CreateKittenInput) (*model.Kitten, error)
	GetKitten(ctx context.Context, user *model.User, id int64) (*model.Kitten, error)
	DeleteKitten(ctx context.Context, user *model.User, id int64) error
}

// KittenHandler handles HTTP requests for kitten operations.
// Every route expects middleware.Auth to have run.
type KittenHandler struct {
	svc    KittenService
	logger *slog.Logger
}

// NewKittenHandler creates a new KittenHandler.
func NewKittenHandler(svc KittenService, logger *slog.Logger) *KittenHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &KittenHandler{
		svc:    svc,
		logger: logger,
	}
}

// Get handles GET /kittens/{id}.
func (h *KittenHandler) Get(w http.ResponseWriter, r *http.Request) error {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		return httperr.Unauthorized(errNoUser)
	}

	id, err := kittenID(r)
	if err != nil {
		return err
	}

	kitten, err := h.svc.GetKitten(r.Context(), user, id)
	if err != nil {
		return mapServiceError(err)
	}

	writeJSON(w, http.StatusOK, dto.ToKittenResponse(kitten))
	return nil
}

// Create handles POST /kittens.
func (h *KittenHandler) Create(w http.ResponseWriter, r *http.Request) error {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		return httperr.Unauthorized(errNoUser)
	}

	req, err := decodeCreateKitten(r)
	if err != nil {
		return err
	}

	kitten, err := h.svc.CreateKitten(r.Context(), user, service.CreateKittenInput{
		Name:  req.Name,
		Age:   float64(req.Age),
		Color: req.Color,
	})
	if err != nil {
		return mapServiceError(err)
	}

	h.logger.Info("kitten_created",
		"kitten_id", kitten.ID,
		"owner_id", kitten.OwnerID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusCreated, dto.ToCreateKittenResponse(kitten))
	return nil
}

// Delete handles DELETE /kittens/{id}.
func (h *KittenHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		return httperr.Unauthorized(errNoUser)
	}

	id, err := kittenID(r)
	if err != nil {
		return err
	}

	if err := h.svc.DeleteKitten(r.Context(), user, id); err != nil {
		return mapServiceError(err)
	}

	h.logger.Info("kitten_deleted",
		"kitten_id", id,
		"user_id", auth.UserIDFromContext(r.Context()),
		"request_id", middleware.GetRequestID(r.Context()),
	)

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// kittenID parses the {id} URL parameter. Anything that is not a positive
// integer cannot name a kitten, so it is reported as not found.
func kittenID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, httperr.NotFound(fmt.Errorf("invalid kitten id %q", raw))
	}
	return id, nil
}

// decodeCreateKitten reads a JSON or form-encoded body.
// An empty body decodes to an empty request.
func decodeCreateKitten(r *http.Request) (*dto.CreateKittenRequest, error) {
	var req dto.CreateKittenRequest

	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return nil, classifyDecodeError(err)
		}
		age, err := dto.ParseAge(r.PostForm.Get("age"))
		if err != nil {
			return nil, httperr.BadRequest(err)
		}
		req.Name = r.PostForm.Get("name")
		req.Age = age
		req.Color = r.PostForm.Get("color")
		return &req, nil
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, classifyDecodeError(err)
	}
	return &req, nil
}

func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}

// classifyDecodeError keeps oversize bodies distinct from malformed ones.
func classifyDecodeError(err error) error {
	if middleware.IsBodyTooLarge(err) {
		return err
	}
	return httperr.BadRequest(err)
}

// mapServiceError converts service errors to classified HTTP errors.
// Unknown errors pass through to the ErrorResponder as 500s.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrKittenNotFound):
		return httperr.NotFound(err)
	case errors.Is(err, service.ErrNotOwner), errors.Is(err, service.ErrUnknownOwner):
		return httperr.Unauthorized(err)
	default:
		return err
	}
}
