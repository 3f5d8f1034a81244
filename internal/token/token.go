// Package token emite y verifica los tokens firmados de sesión.
//
// Un token es un JWT HS256 con claims fijas {iss, sub, iat, exp, jti}. No hay
// revocación: la validez es función exclusiva de la firma y la expiración, por
// eso el estado de la cuenta se reevalúa en cada request (ver middleware de
// auth), nunca se confía en el token solo.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// DefaultTTL es la vida por defecto de un token. Intencionalmente larga
// (30 días); es una perilla de política, configurable vía jwt.access_ttl.
const DefaultTTL = 720 * time.Hour

// Errores de verificación. Todos colapsan a "unauthenticated" en el borde HTTP.
var (
	ErrMalformed = errors.New("token: malformed")
	ErrSignature = errors.New("token: invalid signature")
	ErrExpired   = errors.New("token: expired")
)

// Claims es el conjunto fijo de claims que viaja en el token.
// Campos desconocidos del wire no se propagan: el parse rellena solo esto.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Nonce     string
}

// Issuer firma y verifica tokens con un secreto compartido (HS256).
// El secreto se lee de configuración al arranque y es de solo lectura después.
type Issuer struct {
	Iss    string
	Secret []byte
	TTL    time.Duration
}

func NewIssuer(iss string, secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token: empty signing secret")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{Iss: iss, Secret: secret, TTL: ttl}, nil
}

// Issue emite un token para subject con el TTL dado (0 = TTL configurado).
func (i *Issuer) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("token: empty subject")
	}
	if ttl <= 0 {
		ttl = i.TTL
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)

	claims := jwtv5.RegisteredClaims{
		Issuer:    i.Iss,
		Subject:   subject,
		IssuedAt:  jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify decodifica y valida un token. El orden importa: primero integridad de
// firma (tokens forjados o malformados se rechazan sin mirar el reloj), luego
// expiración.
func (i *Issuer) Verify(raw string) (Claims, error) {
	var rc jwtv5.RegisteredClaims
	_, err := jwtv5.ParseWithClaims(raw, &rc, func(t *jwtv5.Token) (any, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.Secret, nil
	}, jwtv5.WithIssuer(i.Iss), jwtv5.WithExpirationRequired())

	if err != nil {
		switch {
		case errors.Is(err, jwtv5.ErrTokenMalformed):
			return Claims{}, ErrMalformed
		case errors.Is(err, jwtv5.ErrTokenSignatureInvalid):
			return Claims{}, ErrSignature
		case errors.Is(err, jwtv5.ErrTokenExpired):
			return Claims{}, ErrExpired
		default:
			return Claims{}, ErrMalformed
		}
	}
	if rc.Subject == "" {
		return Claims{}, ErrMalformed
	}

	c := Claims{Subject: rc.Subject, Nonce: rc.ID}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, nil
}
