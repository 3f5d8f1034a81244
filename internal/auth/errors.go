package auth

import "errors"

// Errores de dominio del flujo de autenticación. El borde HTTP colapsa
// not-found y wrong-secret en ErrBadCredentials para no filtrar qué logins
// existen; la distinción interna vive solo en logs y métricas.
var (
	ErrBadCredentials        = errors.New("auth: invalid login or password")
	ErrBlocked               = errors.New("auth: account blocked")
	ErrPasswordResetRequired = errors.New("auth: password reset required")
	ErrSecondFactorRequired  = errors.New("auth: second factor required")
	ErrCodeInvalid           = errors.New("auth: invalid one-time code")
	ErrNotEnrolled           = errors.New("auth: second factor not enrolled")
)
