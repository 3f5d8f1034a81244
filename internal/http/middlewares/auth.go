package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/depotmaster/internal/auth"
	httperrors "github.com/dropDatabas3/depotmaster/internal/http/errors"
	"github.com/dropDatabas3/depotmaster/internal/metrics"
	"github.com/dropDatabas3/depotmaster/internal/observability/logger"
	"github.com/dropDatabas3/depotmaster/internal/store"
	"github.com/dropDatabas3/depotmaster/internal/store/core"
	"github.com/dropDatabas3/depotmaster/internal/token"
)

// AuthDeps son las dependencias del pipeline de autenticación por request.
type AuthDeps struct {
	Issuer  *token.Issuer
	Users   store.UserRepository
	TOTP    store.TOTPRepository
	Metrics *metrics.Metrics
}

// RequireAuth es el pipeline verify -> reload -> gate. El token solo prueba
// identidad; los flags de estado se releen del store en cada request, porque
// el token es de vida larga y un bloqueo tiene que pegar en el request
// siguiente, no al expirar.
//
// allowed agrega estados de gate tolerados además de Active: el endpoint de
// cambio de password tolera PasswordResetRequired y el de verificación MFA
// tolera PendingSecondFactor. Nada tolera Blocked.
func RequireAuth(deps AuthDeps, allowed ...auth.GateState) Middleware {
	allowSet := map[auth.GateState]struct{}{auth.GateActive: {}}
	for _, st := range allowed {
		if st == auth.GateBlocked {
			continue
		}
		allowSet[st] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				httperrors.WriteError(w, httperrors.ErrUnauthenticated)
				return
			}

			// malformado, forjado o vencido: todos "unauthenticated", sin
			// distinguir para afuera
			claims, err := deps.Issuer.Verify(raw)
			if err != nil {
				httperrors.WriteError(w, httperrors.ErrUnauthenticated)
				return
			}

			u, err := deps.Users.FindByID(r.Context(), claims.Subject)
			if err != nil {
				if err == core.ErrNotFound {
					httperrors.WriteError(w, httperrors.ErrUnauthenticated)
					return
				}
				httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
				return
			}

			secondFactorOK, err := secondFactorSatisfied(r, deps, u, claims)
			if err != nil {
				httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
				return
			}

			st := auth.EvaluateGate(u, secondFactorOK)
			if _, ok := allowSet[st]; !ok {
				refuse(w, deps, u, st)
				return
			}

			ctx := setUser(setClaims(r.Context(), claims), u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// secondFactorSatisfied decide si esta sesión ya presentó segundo factor.
// Un token emitido después de confirmar el secreto implica que el login pasó
// por la ceremonia completa; un token anterior a la confirmación quedó corto
// y fuerza re-login.
func secondFactorSatisfied(r *http.Request, deps AuthDeps, u *core.User, claims token.Claims) (bool, error) {
	if !u.TwoFactorEnabled {
		return true, nil
	}
	rec, err := deps.TOTP.Get(r.Context(), u.ID)
	if err != nil {
		return false, err
	}
	if rec == nil || rec.ConfirmedAt == nil {
		return false, nil
	}
	return !claims.IssuedAt.Before(*rec.ConfirmedAt), nil
}

func refuse(w http.ResponseWriter, deps AuthDeps, u *core.User, st auth.GateState) {
	if deps.Metrics != nil {
		deps.Metrics.GateRefusals.WithLabelValues(st.String()).Inc()
	}
	logger.Named("http").Info("request rechazado por gate",
		logger.UserID(u.ID), logger.String("state", st.String()))

	switch st {
	case auth.GateBlocked:
		httperrors.WriteError(w, httperrors.ErrAccountBlocked)
	case auth.GatePasswordResetRequired:
		httperrors.WriteError(w, httperrors.ErrPasswordResetRequired)
	case auth.GatePendingSecondFactor:
		httperrors.WriteError(w, httperrors.ErrSecondFactorRequired)
	default:
		httperrors.WriteError(w, httperrors.ErrForbidden)
	}
}

// RuleChecker es lo que RequireRule necesita de la policy de autorización.
type RuleChecker interface {
	Check(ctx context.Context, u *core.User, rule int) (bool, error)
}

// RequireRule corre después de RequireAuth y exige que el grupo del usuario
// otorgue la rule pedida.
func RequireRule(policy RuleChecker, rule int) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := GetUser(r.Context())
			if u == nil {
				httperrors.WriteError(w, httperrors.ErrUnauthenticated)
				return
			}
			ok, err := policy.Check(r.Context(), u, rule)
			if err != nil {
				httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
				return
			}
			if !ok {
				logger.Named("http").Info("rule denegada",
					logger.UserID(u.ID), logger.Rule(rule))
				httperrors.WriteError(w, httperrors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
