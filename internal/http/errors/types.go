// Package errors define el catálogo de errores que el borde HTTP devuelve al
// cliente. Cada estado de cuenta rechazado lleva código propio para que el
// cliente enrute al usuario a la remediación correcta; los fallos de
// credencial, en cambio, se colapsan en uno solo.
package errors

import (
	"fmt"
	"net/http"
)

// AppError es el error estándar del borde HTTP.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa original, solo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetail devuelve una copia con detalle extra; nunca muta el catálogo.
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithCause devuelve una copia portando la causa original.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// FromError normaliza cualquier error a *AppError; lo desconocido es un 500
// genérico que no filtra detalle interno.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

// ---- 400 ----

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "La solicitud contiene sintaxis inválida o parámetros faltantes.",
		HTTPStatus: http.StatusBadRequest,
	}
	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "El cuerpo de la solicitud no es un JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}
	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Faltan campos requeridos en la solicitud.",
		HTTPStatus: http.StatusBadRequest,
	}
	ErrBodyTooLarge = &AppError{
		Code:       "BODY_TOO_LARGE",
		Message:    "El cuerpo de la solicitud excede el tamaño máximo permitido.",
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
)

// ---- 401 ----

var (
	// un solo código para login inexistente y password incorrecto: no se
	// regala qué logins existen
	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Usuario o contraseña inválidos.",
		HTTPStatus: http.StatusUnauthorized,
	}
	ErrUnauthenticated = &AppError{
		Code:       "UNAUTHENTICATED",
		Message:    "No autorizado. Se requiere un token válido.",
		HTTPStatus: http.StatusUnauthorized,
	}
	ErrCodeInvalid = &AppError{
		Code:       "CODE_INVALID",
		Message:    "El código de un solo uso es inválido o ya fue usado.",
		HTTPStatus: http.StatusUnauthorized,
	}
)

// ---- 403 / 423 (gate) ----

var (
	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "No tiene permisos para realizar esta acción.",
		HTTPStatus: http.StatusForbidden,
	}
	ErrAccountBlocked = &AppError{
		Code:       "ACCOUNT_BLOCKED",
		Message:    "La cuenta está bloqueada.",
		HTTPStatus: http.StatusLocked,
	}
	ErrPasswordResetRequired = &AppError{
		Code:       "PASSWORD_RESET_REQUIRED",
		Message:    "Debe cambiar su contraseña antes de continuar.",
		HTTPStatus: http.StatusForbidden,
	}
	ErrSecondFactorRequired = &AppError{
		Code:       "SECOND_FACTOR_REQUIRED",
		Message:    "Se requiere el segundo factor de autenticación.",
		HTTPStatus: http.StatusForbidden,
	}
	ErrSecondFactorNotEnrolled = &AppError{
		Code:       "SECOND_FACTOR_NOT_ENROLLED",
		Message:    "El segundo factor no está configurado para esta cuenta.",
		HTTPStatus: http.StatusBadRequest,
	}
)

// ---- 404 / 405 ----

var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "El recurso solicitado no fue encontrado.",
		HTTPStatus: http.StatusNotFound,
	}
	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "El método HTTP no está permitido para este recurso.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}
)

// ---- 409 ----

var (
	ErrConflict = &AppError{
		Code:       "CONFLICT",
		Message:    "La solicitud entra en conflicto con el estado actual.",
		HTTPStatus: http.StatusConflict,
	}
	ErrLoginTaken = &AppError{
		Code:       "LOGIN_TAKEN",
		Message:    "El nombre de usuario ya está en uso.",
		HTTPStatus: http.StatusConflict,
	}
	ErrEmailTaken = &AppError{
		Code:       "EMAIL_TAKEN",
		Message:    "El correo electrónico ya está registrado.",
		HTTPStatus: http.StatusConflict,
	}
	ErrGroupInUse = &AppError{
		Code:       "GROUP_IN_USE",
		Message:    "El grupo todavía tiene usuarios asignados.",
		HTTPStatus: http.StatusConflict,
	}
)

// ---- 429 ----

var ErrRateLimited = &AppError{
	Code:       "RATE_LIMIT_EXCEEDED",
	Message:    "Demasiados intentos. Intente más tarde.",
	HTTPStatus: http.StatusTooManyRequests,
}

// ---- 5xx ----

var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Ocurrió un error interno en el servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}
	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "El servicio no está disponible temporalmente.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
