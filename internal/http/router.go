// Package http arma el router y el servidor del servicio.
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/depotmaster/internal/http/errors"
	"github.com/dropDatabas3/depotmaster/internal/http/middlewares"
	"github.com/dropDatabas3/depotmaster/internal/metrics"
)

// Registrar es lo que cada handler implementa para colgarse del router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter construye el router con los middlewares globales y monta todos
// los handlers. El orden importa: request id primero para que recover y
// logging ya lo tengan disponible en contexto.
func NewRouter(met *metrics.Metrics, handlers ...Registrar) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithRecover())
	r.Use(middlewares.WithLogging(met))

	r.NotFound(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
