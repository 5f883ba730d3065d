// Package handler exposes the user account endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"arcanalyse/internal/platform/metrics"
	"arcanalyse/internal/platform/middleware"
	"arcanalyse/internal/secrets"
	"arcanalyse/internal/transport/http/shared"
	"arcanalyse/internal/user/models"
	"arcanalyse/internal/user/store"
	"arcanalyse/pkg/platform/sentinel"

	dErrors "arcanalyse/pkg/domain-errors"
)

const (
	defaultLimit      = 50
	minPasswordLength = 8
)

// CreateRequest is the POST /users payload.
type CreateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Page is the paginated list envelope.
type Page struct {
	Items  []*models.User `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// Handler serves the /users endpoints.
type Handler struct {
	logger  *slog.Logger
	users   store.Store
	metrics *metrics.Metrics
}

func New(users store.Store, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{logger: logger, users: users, metrics: m}
}

func (h *Handler) Name() string { return "users" }

func (h *Handler) Register(r chi.Router) {
	r.Post("/users", h.handleCreate)
	r.Get("/users", h.handleList)
	r.Get("/users/{id}", h.handleGet)
}

// handleCreate registers a new user. The email is normalized to lowercase
// and the password hashed before anything reaches storage; a duplicate email
// (case-insensitive, among live rows) answers 409.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validateCreate(req); err != nil {
		shared.WriteError(w, err)
		return
	}

	actorID, err := actorFromHeader(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	hash, err := secrets.Hash(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password",
			"request_id", requestID, "error", err.Error())
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to create user"))
		return
	}

	u := &models.User{
		Email:        models.NormalizeEmail(req.Email),
		PasswordHash: hash,
		CreatedByID:  actorID,
		UpdatedByID:  actorID,
	}

	if err := h.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			shared.WriteError(w, dErrors.New(dErrors.CodeConflict, "email already exists"))
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user",
			"request_id", requestID, "error", err.Error())
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to create user"))
		return
	}

	h.metrics.IncrementUsersCreated()
	shared.WriteJSON(w, http.StatusCreated, u)
}

// handleList pages over live users, newest first by default.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset, err := pagination(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	desc := true
	switch r.URL.Query().Get("sort") {
	case "", "created_at.desc":
	case "created_at.asc":
		desc = false
	default:
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
			"sort must be created_at.asc or created_at.desc"))
		return
	}

	items, err := h.users.List(ctx, limit, offset, desc)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeBadRequest) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to list users",
			"request_id", middleware.GetRequestID(ctx), "error", err.Error())
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list users"))
		return
	}

	total, err := h.users.Count(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to count users",
			"request_id", middleware.GetRequestID(ctx), "error", err.Error())
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list users"))
		return
	}

	if items == nil {
		items = []*models.User{}
	}
	shared.WriteJSON(w, http.StatusOK, Page{Items: items, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "id must be a UUID"))
		return
	}

	u, err := h.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user",
			"request_id", middleware.GetRequestID(ctx), "error", err.Error())
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to get user"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, u)
}

func validateCreate(req CreateRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "email is not valid")
	}
	if len(req.Password) < minPasswordLength {
		return dErrors.New(dErrors.CodeBadRequest, "password must be at least 8 characters")
	}
	return nil
}

// actorFromHeader reads the optional X-Actor-Id audit header.
func actorFromHeader(r *http.Request) (*uuid.UUID, error) {
	raw := r.Header.Get("X-Actor-Id")
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "X-Actor-Id must be a UUID")
	}
	return &id, nil
}

func pagination(r *http.Request) (limit, offset int, err error) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer")
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, dErrors.New(dErrors.CodeBadRequest, "offset must be an integer")
		}
	}
	return limit, offset, nil
}
