package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/depotmaster/internal/security/password"
	"github.com/dropDatabas3/depotmaster/internal/security/totp"
	"github.com/dropDatabas3/depotmaster/internal/store"
	"github.com/dropDatabas3/depotmaster/internal/store/core"
	"github.com/dropDatabas3/depotmaster/internal/store/memory"
	"github.com/dropDatabas3/depotmaster/internal/token"
)

// parámetros livianos: acá se prueba el flujo, no la dureza del hash
var testHash = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	repos := memory.New().Repos()
	iss, err := token.NewIssuer("depotmaster-test", []byte("secreto-de-test"), time.Hour)
	require.NoError(t, err)
	svc, err := NewService(repos, iss, testHash, nil)
	require.NoError(t, err)
	return svc, repos
}

func register(t *testing.T, svc *Service, login, secret string) *core.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Login:  login,
		Secret: secret,
		Email:  login + "@example.com",
	})
	require.NoError(t, err)
	return u
}

func TestAuthenticateRoundtrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u := register(t, svc, "walter", "no-tan-secreto")

	res, err := svc.Authenticate(ctx, LoginInput{Login: "walter", Secret: "no-tan-secreto", SourceIP: "10.0.0.7"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, u.ID, res.User.ID)

	claims, err := svc.issuer.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
}

func TestAuthenticateCaseInsensitiveLogin(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "Walter", "secreto")

	_, err := svc.Authenticate(context.Background(), LoginInput{Login: "wALTER", Secret: "secreto"})
	assert.NoError(t, err)
}

func TestAuthenticateCollapsesFailures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "walter", "secreto")

	// login inexistente y password incorrecto devuelven el mismo error
	_, err := svc.Authenticate(ctx, LoginInput{Login: "nadie", Secret: "lo-que-sea"})
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Authenticate(ctx, LoginInput{Login: "walter", Secret: "incorrecto"})
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestAuthenticateGateRefusals(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()

	u := register(t, svc, "walter", "secreto")

	require.NoError(t, repos.Users.SetBlocked(ctx, u.ID, true))
	_, err := svc.Authenticate(ctx, LoginInput{Login: "walter", Secret: "secreto"})
	assert.ErrorIs(t, err, ErrBlocked)

	// bloqueo domina reset aun con ambos flags prendidos
	require.NoError(t, repos.Users.SetRequiresPasswordReset(ctx, u.ID, true))
	_, err = svc.Authenticate(ctx, LoginInput{Login: "walter", Secret: "secreto"})
	assert.ErrorIs(t, err, ErrBlocked)

	require.NoError(t, repos.Users.SetBlocked(ctx, u.ID, false))
	_, err = svc.Authenticate(ctx, LoginInput{Login: "walter", Secret: "secreto"})
	assert.ErrorIs(t, err, ErrPasswordResetRequired)
}

func TestRegisterDuplicateLogin(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()

	first := register(t, svc, "walter", "secreto")

	_, err := svc.Register(ctx, RegisterInput{Login: "WALTER", Secret: "otro", Email: "otro@example.com"})
	assert.ErrorIs(t, err, core.ErrLoginTaken)

	_, err = svc.Register(ctx, RegisterInput{Login: "walter2", Secret: "otro", Email: "walter@example.com"})
	assert.ErrorIs(t, err, core.ErrEmailTaken)

	// el registro original queda intacto
	got, err := repos.Users.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "walter", got.Login)
}

func TestAuthenticateAppendsAuthEvent(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "walter", "secreto")

	_, err := svc.Authenticate(ctx, LoginInput{Login: "walter", Secret: "secreto", SourceIP: "192.0.2.1"})
	require.NoError(t, err)

	evs, err := repos.AuthEvents.ListByUser(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "192.0.2.1", evs[0].SourceIP)

	// un login fallido no audita
	_, _ = svc.Authenticate(ctx, LoginInput{Login: "walter", Secret: "mal"})
	evs, _ = repos.AuthEvents.ListByUser(ctx, u.ID, 10)
	assert.Len(t, evs, 1)
}

func TestAuthenticateWithSecondFactor(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "walter", "secreto")

	tf := NewTwoFactor(repos, "depotmaster-test")
	enr, err := tf.Enroll(ctx, u.ID)
	require.NoError(t, err)

	secret, err := totp.DecodeSecret(enr.Secret)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, tf.VerifyCode(ctx, u.ID, totp.Code(secret, now)))

	got, err := repos.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.TwoFactorEnabled)

	// sin código: el gate pide segundo factor
	_, err = svc.Authenticate(ctx, LoginInput{Login: "walter", Secret: "secreto"})
	assert.ErrorIs(t, err, ErrSecondFactorRequired)

	// con el código del paso siguiente (el de la confirmación ya se consumió)
	next := now.Add(totp.Period * time.Second)
	svc.now = func() time.Time { return next }
	res, err := svc.Authenticate(ctx, LoginInput{Login: "walter", Secret: "secreto", Code: totp.Code(secret, next)})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	// replay del mismo código en el mismo paso: rechazado
	_, err = svc.Authenticate(ctx, LoginInput{Login: "walter", Secret: "secreto", Code: totp.Code(secret, next)})
	assert.ErrorIs(t, err, ErrCodeInvalid)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "walter", "viejo")

	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "incorrecto", "nuevo"), ErrBadCredentials)
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "viejo", "nuevo"))

	_, err := svc.Authenticate(ctx, LoginInput{Login: "walter", Secret: "viejo"})
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = svc.Authenticate(ctx, LoginInput{Login: "walter", Secret: "nuevo"})
	assert.NoError(t, err)
}

func TestChangePasswordClearsResetFlag(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "walter", "viejo")

	require.NoError(t, repos.Users.SetRequiresPasswordReset(ctx, u.ID, true))

	_, err := svc.Authenticate(ctx, LoginInput{Login: "walter", Secret: "viejo"})
	assert.ErrorIs(t, err, ErrPasswordResetRequired)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "viejo", "nuevo"))
	_, err = svc.Authenticate(ctx, LoginInput{Login: "walter", Secret: "nuevo"})
	assert.NoError(t, err)
}
