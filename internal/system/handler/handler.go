// Package handler exposes the system endpoints: liveness and build identity.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"arcanalyse/internal/platform/config"
	"arcanalyse/internal/transport/http/shared"
)

// Handler serves /health and /version.
type Handler struct {
	cfg config.Server
}

func New(cfg config.Server) *Handler {
	return &Handler{cfg: cfg}
}

func (h *Handler) Name() string { return "system" }

// RouteOrder places system endpoints first so they are never shadowed.
func (h *Handler) RouteOrder() int { return 0 }

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/version", h.handleVersion)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{
		"name":    config.AppName,
		"version": config.AppVersion,
		"env":     h.cfg.Environment,
	})
}
