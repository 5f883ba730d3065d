// Package handler exposes read-only list/get endpoints for every lookup
// table. Routes are generated from the lookup catalog; adding a table to the
// catalog is all it takes to publish it.
package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"arcanalyse/internal/entity"
	"arcanalyse/internal/lookup"
	"arcanalyse/internal/platform/middleware"
	"arcanalyse/internal/transport/http/shared"
	"arcanalyse/pkg/platform/sentinel"

	dErrors "arcanalyse/pkg/domain-errors"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// Handler serves the lookup tables.
type Handler struct {
	logger  *slog.Logger
	items   map[string]*entity.Repository[*lookup.Item]
	sources *entity.Repository[*lookup.Source]
	crToXP  *entity.Repository[*lookup.CRToXP]
}

func New(db *sql.DB, logger *slog.Logger) *Handler {
	items := make(map[string]*entity.Repository[*lookup.Item], len(lookup.Catalog))
	for _, def := range lookup.Catalog {
		items[def.Path] = entity.NewRepository(db, lookup.NewItem(def.Table), entity.WithMaxLimit(maxLimit))
	}
	return &Handler{
		logger:  logger,
		items:   items,
		sources: entity.NewRepository(db, func() *lookup.Source { return &lookup.Source{} }, entity.WithMaxLimit(maxLimit)),
		crToXP:  entity.NewRepository(db, func() *lookup.CRToXP { return &lookup.CRToXP{} }, entity.WithMaxLimit(maxLimit)),
	}
}

func (h *Handler) Name() string { return "lookups" }

func (h *Handler) Register(r chi.Router) {
	for _, def := range lookup.Catalog {
		repo := h.items[def.Path]
		r.Get("/"+def.Path, listRoute(h, repo))
		r.Get("/"+def.Path+"/{id}", getRoute(h, repo, parseIntID))
	}
	r.Get("/sources", listRoute(h, h.sources))
	r.Get("/sources/{id}", getRoute(h, h.sources, parseIntID))
	r.Get("/cr-to-xp", listRoute(h, h.crToXP))
	r.Get("/cr-to-xp/{cr}", getRoute(h, h.crToXP, parseCR))
}

// listRoute pages a lookup table. Lookups have no soft delete, so the
// repository filter set is empty and ordering falls back to the primary key.
func listRoute[E entity.Entity](h *Handler, repo *entity.Repository[E]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset, err := pagination(r)
		if err != nil {
			shared.WriteError(w, err)
			return
		}

		items, err := repo.List(r.Context(), limit, offset, "", false)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeBadRequest) {
				shared.WriteError(w, err)
				return
			}
			h.logger.ErrorContext(r.Context(), "failed to list lookup rows",
				"request_id", middleware.GetRequestID(r.Context()),
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list"))
			return
		}
		if items == nil {
			items = []E{}
		}
		shared.WriteJSON(w, http.StatusOK, items)
	}
}

func getRoute[E entity.Entity](h *Handler, repo *entity.Repository[E], parseID func(*http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			shared.WriteError(w, err)
			return
		}

		item, err := repo.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "not found"))
				return
			}
			h.logger.ErrorContext(r.Context(), "failed to get lookup row",
				"request_id", middleware.GetRequestID(r.Context()),
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to get"))
			return
		}
		shared.WriteJSON(w, http.StatusOK, item)
	}
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

func parseIntID(r *http.Request) (any, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "id must be an integer")
	}
	return id, nil
}

// parseCR validates the challenge rating path segment as a decimal before it
// reaches the database; the value itself stays a string for exact NUMERIC
// comparison.
func parseCR(r *http.Request) (any, error) {
	raw := chi.URLParam(r, "cr")
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "challenge rating must be numeric")
	}
	return raw, nil
}
