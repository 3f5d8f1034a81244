package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/depotmaster/internal/security/totp"
)

func TestEnrollProducesProvisioningMaterial(t *testing.T) {
	svc, repos := newTestService(t)
	u := register(t, svc, "walter", "secreto")

	tf := NewTwoFactor(repos, "depotmaster")
	enr, err := tf.Enroll(context.Background(), u.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, enr.Secret)
	assert.True(t, strings.HasPrefix(enr.URI, "otpauth://totp/"))
	assert.Contains(t, enr.URI, "walter")
	assert.Contains(t, enr.URI, "issuer=depotmaster")
	// PNG mágico
	require.True(t, len(enr.QRPNG) > 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, enr.QRPNG[:4])

	// enrolar no prende el flag todavía
	got, err := repos.Users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, got.TwoFactorEnabled)
}

func TestReenrollInvalidatesPreviousSecret(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "walter", "secreto")

	tf := NewTwoFactor(repos, "depotmaster")
	first, err := tf.Enroll(ctx, u.ID)
	require.NoError(t, err)
	second, err := tf.Enroll(ctx, u.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.Secret, second.Secret)

	now := time.Now()
	oldSecret, _ := totp.DecodeSecret(first.Secret)
	assert.ErrorIs(t, tf.VerifyCode(ctx, u.ID, totp.Code(oldSecret, now)), ErrCodeInvalid)

	newSecret, _ := totp.DecodeSecret(second.Secret)
	assert.NoError(t, tf.VerifyCode(ctx, u.ID, totp.Code(newSecret, now)))
}

func TestVerifyCodeNotEnrolled(t *testing.T) {
	svc, repos := newTestService(t)
	u := register(t, svc, "walter", "secreto")

	tf := NewTwoFactor(repos, "depotmaster")
	assert.ErrorIs(t, tf.VerifyCode(context.Background(), u.ID, "123456"), ErrNotEnrolled)
}

func TestDisableTwoFactor(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "walter", "secreto")

	tf := NewTwoFactor(repos, "depotmaster")
	enr, err := tf.Enroll(ctx, u.ID)
	require.NoError(t, err)

	secret, _ := totp.DecodeSecret(enr.Secret)
	require.NoError(t, tf.VerifyCode(ctx, u.ID, totp.Code(secret, time.Now())))

	// confirmado: deshabilitar sin código vigente se rechaza
	assert.ErrorIs(t, tf.Disable(ctx, u.ID, ""), ErrCodeInvalid)
	assert.ErrorIs(t, tf.Disable(ctx, u.ID, "000000"), ErrCodeInvalid)

	require.NoError(t, tf.Disable(ctx, u.ID, totp.Code(secret, time.Now().Add(30*time.Second))))

	got, err := repos.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.TwoFactorEnabled)
	assert.ErrorIs(t, tf.VerifyCode(ctx, u.ID, "123456"), ErrNotEnrolled)
}

func TestDisableUnconfirmedEnrollment(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "walter", "secreto")

	tf := NewTwoFactor(repos, "depotmaster")
	_, err := tf.Enroll(ctx, u.ID)
	require.NoError(t, err)

	// sin confirmar no hay nada que proteger: se descarta sin código
	require.NoError(t, tf.Disable(ctx, u.ID, ""))
	assert.ErrorIs(t, tf.Disable(ctx, u.ID, ""), ErrNotEnrolled)
}
