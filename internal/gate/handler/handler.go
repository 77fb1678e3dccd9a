// Package handler exposes the admission gate over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nameha1/synergyhr/internal/gate/models"
	"github.com/nameha1/synergyhr/internal/gate/service"
	"github.com/nameha1/synergyhr/pkg/platform/httputil"
)

// Service defines the gate operations the handler delegates to.
type Service interface {
	Admit(ctx context.Context, r *http.Request) (string, error)
	Guard(ctx context.Context, r *http.Request) error
	GeoFence(ctx context.Context) (models.GeoFence, error)
}

// Handler handles the gate endpoints.
type Handler struct {
	svc         Service
	logger      *slog.Logger
	cors        func(http.Handler) http.Handler
	middlewares []func(http.Handler) http.Handler
}

// Option adjusts a Handler.
type Option func(*Handler)

// WithCORS sets the allowed browser origins for the gate routes.
func WithCORS(origins []string) Option {
	return func(h *Handler) { h.cors = CORS(origins) }
}

// WithMiddleware appends middleware applied to every gate route, after
// CORS so preflights are never throttled.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.middlewares = append(h.middlewares, mw...) }
}

// New creates a gate Handler.
func New(svc Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		svc:    svc,
		logger: logger,
		cors:   CORS(nil),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the gate routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	gate := chi.NewRouter()
	gate.Use(h.cors)
	gate.Use(h.middlewares...)
	gate.Get("/api/office-gate", h.handleOfficeGate)
	gate.Get("/api/office-gate/geofence", h.handleGeoFence)
	gate.Post("/api/attendance/checkin", h.handleCheckin)

	r.Mount("/", gate)
}

// handleOfficeGate runs the network check and, when it passes, mints a
// short-lived office pass for the caller.
func (h *Handler) handleOfficeGate(w http.ResponseWriter, r *http.Request) {
	token, err := h.svc.Admit(r.Context(), r)
	if err != nil {
		h.writeGateError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "pass": token})
}

// handleCheckin verifies the gate key and office pass, then re-checks
// the caller's network before admitting the check-in.
func (h *Handler) handleCheckin(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Guard(r.Context(), r); err != nil {
		h.writeGateError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleGeoFence(w http.ResponseWriter, r *http.Request) {
	fence, err := h.svc.GeoFence(r.Context())
	if err != nil {
		h.writeGateError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "geofence": fence})
}

// writeGateError maps gate errors to responses. The body never carries
// a deny reason; reasons live in the server logs and the audit trail.
func (h *Handler) writeGateError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusForbidden
	if errors.Is(err, service.ErrConfigMissing) {
		h.logger.ErrorContext(r.Context(), "gate misconfigured", "error", err, "path", r.URL.Path)
		status = http.StatusInternalServerError
	}
	httputil.WriteJSON(w, status, map[string]any{"ok": false})
}
