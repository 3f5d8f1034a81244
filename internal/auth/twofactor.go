package auth

import (
	"context"
	"time"

	"github.com/dropDatabas3/depotmaster/internal/observability/logger"
	"github.com/dropDatabas3/depotmaster/internal/security/qr"
	"github.com/dropDatabas3/depotmaster/internal/security/totp"
	"github.com/dropDatabas3/depotmaster/internal/store"
)

// TwoFactor maneja enrolamiento y verificación del segundo factor TOTP.
type TwoFactor struct {
	users  store.UserRepository
	totp   store.TOTPRepository
	issuer string // nombre que ve el usuario en su app autenticadora

	now func() time.Time
}

func NewTwoFactor(repos *store.Store, issuerName string) *TwoFactor {
	return &TwoFactor{
		users:  repos.Users,
		totp:   repos.TOTP,
		issuer: issuerName,
		now:    time.Now,
	}
}

// Enrollment es el material que el cliente necesita para configurar su app:
// el secreto en base32, la URI otpauth y la misma URI renderizada como QR.
type Enrollment struct {
	Secret string
	URI    string
	QRPNG  []byte
}

// Enroll genera un secreto fresco y lo persiste sin confirmar. Re-enrolar
// invalida el secreto anterior; nunca conviven dos secretos vivos. El flag
// two_factor_enabled recién se prende cuando VerifyCode confirma el primero.
func (t *TwoFactor) Enroll(ctx context.Context, userID string) (*Enrollment, error) {
	u, err := t.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, b32, err := totp.GenerateSecret()
	if err != nil {
		return nil, err
	}
	if err := t.totp.Upsert(ctx, userID, b32); err != nil {
		return nil, err
	}
	uri := totp.OTPAuthURL(t.issuer, u.Login, b32)
	png, err := qr.PNG(uri, qr.DefaultSize)
	if err != nil {
		return nil, err
	}
	logger.Named("auth").Info("segundo factor enrolado", logger.UserID(userID))
	return &Enrollment{Secret: b32, URI: uri, QRPNG: png}, nil
}

// VerifyCode valida un código contra el secreto del usuario. La primera
// verificación exitosa confirma el enrolamiento y prende two_factor_enabled.
// El contador consumido se persiste siempre: un código no se acepta dos veces.
func (t *TwoFactor) VerifyCode(ctx context.Context, userID, code string) error {
	rec, err := t.totp.Get(ctx, userID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotEnrolled
	}
	secret, err := totp.DecodeSecret(rec.Secret)
	if err != nil {
		return err
	}
	last := rec.LastCounter
	ok, counter := totp.Verify(secret, code, t.now(), 1, &last)
	if !ok {
		return ErrCodeInvalid
	}
	if err := t.totp.SetLastCounter(ctx, userID, counter); err != nil {
		return err
	}
	if rec.ConfirmedAt == nil {
		if err := t.totp.Confirm(ctx, userID, t.now().UTC()); err != nil {
			return err
		}
		if err := t.users.SetTwoFactorEnabled(ctx, userID, true); err != nil {
			return err
		}
		logger.Named("auth").Info("segundo factor confirmado", logger.UserID(userID))
	}
	return nil
}

// Disable borra el secreto y apaga el flag. Deshabilitar un segundo factor
// confirmado exige un código vigente: un atacante con solo la sesión no puede
// bajar el nivel de la cuenta. Un enrolamiento abandonado (sin confirmar) se
// descarta sin código. El próximo login vuelve a ser solo password.
func (t *TwoFactor) Disable(ctx context.Context, userID, code string) error {
	rec, err := t.totp.Get(ctx, userID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotEnrolled
	}
	if rec.ConfirmedAt != nil {
		secret, err := totp.DecodeSecret(rec.Secret)
		if err != nil {
			return err
		}
		last := rec.LastCounter
		if ok, _ := totp.Verify(secret, code, t.now(), 1, &last); !ok {
			return ErrCodeInvalid
		}
	}
	if err := t.totp.Delete(ctx, userID); err != nil {
		return err
	}
	if err := t.users.SetTwoFactorEnabled(ctx, userID, false); err != nil {
		return err
	}
	logger.Named("auth").Info("segundo factor deshabilitado", logger.UserID(userID))
	return nil
}
