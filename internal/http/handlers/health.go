package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/depotmaster/internal/http/errors"
)

// Pinger es lo mínimo que /readyz necesita de una dependencia.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responde liveness y readiness. /healthz siempre contesta 200
// mientras el proceso viva; /readyz pregunta a las dependencias.
type HealthHandler struct {
	version string
	checks  map[string]Pinger
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version, checks: map[string]Pinger{}}
}

// AddCheck registra una dependencia para readiness. Ignora nils para que el
// wiring del main no tenga que ramificar por cada dependencia opcional.
func (h *HealthHandler) AddCheck(name string, p Pinger) {
	if p != nil {
		h.checks[name] = p
	}
}

func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
}

func (h *HealthHandler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": h.version})
}

func (h *HealthHandler) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{}
	ready := true
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			status[name] = err.Error()
			ready = false
			continue
		}
		status[name] = "ok"
	}
	if !ready {
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail("dependencias no disponibles"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "checks": status})
}
