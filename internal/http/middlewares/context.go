package middlewares

import (
	"context"

	"github.com/dropDatabas3/depotmaster/internal/store/core"
	"github.com/dropDatabas3/depotmaster/internal/token"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyUser
	ctxKeyClaims
)

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, rid)
}

// GetRequestID devuelve el request id o vacío.
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

func setUser(ctx context.Context, u *core.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, u)
}

// GetUser devuelve el usuario autenticado del request, releído fresco del
// store por RequireAuth. nil si el request no pasó por RequireAuth.
func GetUser(ctx context.Context) *core.User {
	v, _ := ctx.Value(ctxKeyUser).(*core.User)
	return v
}

func setClaims(ctx context.Context, c token.Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, c)
}

func GetClaims(ctx context.Context) (token.Claims, bool) {
	v, ok := ctx.Value(ctxKeyClaims).(token.Claims)
	return v, ok
}
