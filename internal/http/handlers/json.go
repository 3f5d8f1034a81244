// Package handlers implementa los endpoints HTTP del servicio. Cada handler
// expone Register(r chi.Router) y se monta desde el router central.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/depotmaster/internal/http/errors"
)

const (
	maxBodySize     = 64 * 1024 // 64KB para bodies JSON
	contentTypeJSON = "application/json; charset=utf-8"
)

// readJSON decodifica el body con límite de tamaño y campos estrictos:
// claims desconocidos se rechazan en el borde, no se arrastran.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return httperrors.ErrBodyTooLarge
		}
		return httperrors.ErrInvalidJSON
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
