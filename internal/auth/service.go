// Package auth implementa el núcleo de autenticación: credenciales, gate de
// cuenta, segundo factor y emisión de tokens.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/depotmaster/internal/metrics"
	"github.com/dropDatabas3/depotmaster/internal/observability/logger"
	"github.com/dropDatabas3/depotmaster/internal/security/password"
	"github.com/dropDatabas3/depotmaster/internal/security/totp"
	"github.com/dropDatabas3/depotmaster/internal/store"
	"github.com/dropDatabas3/depotmaster/internal/store/core"
	"github.com/dropDatabas3/depotmaster/internal/token"
)

// Service orquesta login, registro y cambio de password. No retiene usuarios
// entre operaciones: cada request relee el registro del sistema de record.
type Service struct {
	users  store.UserRepository
	events store.AuthEventRepository
	totp   store.TOTPRepository
	issuer *token.Issuer
	hash   password.Params
	met    *metrics.Metrics

	// PHC señuelo: cuando el login no existe igual se verifica contra esto,
	// así el tiempo de respuesta no delata qué logins están registrados.
	decoyPHC string

	now func() time.Time
}

func NewService(repos *store.Store, issuer *token.Issuer, hash password.Params, met *metrics.Metrics) (*Service, error) {
	decoy, err := password.Hash(hash, uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &Service{
		users:    repos.Users,
		events:   repos.AuthEvents,
		totp:     repos.TOTP,
		issuer:   issuer,
		hash:     hash,
		met:      met,
		decoyPHC: decoy,
		now:      time.Now,
	}, nil
}

// LoginInput son las credenciales presentadas por el cliente. Code viaja
// vacío salvo que el usuario tenga segundo factor habilitado.
type LoginInput struct {
	Login    string
	Secret   string
	Code     string
	SourceIP string
}

// LoginResult es el resultado de una autenticación exitosa.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *core.User
}

// Authenticate resuelve credenciales, evalúa el gate y emite el token. El
// token se emite recién después de la ceremonia completa (password + código
// si hay 2FA): portar un token válido implica segundo factor ya verificado.
func (s *Service) Authenticate(ctx context.Context, in LoginInput) (*LoginResult, error) {
	log := logger.Named("auth").With(logger.Op("Authenticate"), logger.Login(in.Login))

	u, err := s.users.FindByLogin(ctx, in.Login)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// igualar el costo con el camino de password incorrecto
			password.Verify(in.Secret, s.decoyPHC)
			s.count("not_found")
			log.Info("login desconocido")
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	if !password.Verify(in.Secret, u.PasswordSecret) {
		s.count("wrong_secret")
		log.Info("password incorrecto", logger.UserID(u.ID))
		return nil, ErrBadCredentials
	}

	switch st := EvaluateGate(u, true); st {
	case GateBlocked:
		s.refuse(st)
		return nil, ErrBlocked
	case GatePasswordResetRequired:
		s.refuse(st)
		return nil, ErrPasswordResetRequired
	}

	if u.TwoFactorEnabled {
		if err := s.checkSecondFactor(ctx, u, in.Code); err != nil {
			return nil, err
		}
	}

	// auditoría best-effort: un fallo acá no tira abajo un login válido
	ev := &core.AuthEvent{UserID: u.ID, AuthTime: s.now().UTC(), SourceIP: in.SourceIP}
	if err := s.events.Append(ctx, ev); err != nil {
		log.Error("no se pudo registrar el auth event", logger.UserID(u.ID), logger.Err(err))
	}

	tok, exp, err := s.issuer.Issue(u.ID, 0)
	if err != nil {
		return nil, err
	}
	s.count("ok")
	if s.met != nil {
		s.met.TokensIssued.Inc()
	}
	log.Info("login ok", logger.UserID(u.ID), logger.ClientIP(in.SourceIP))
	return &LoginResult{Token: tok, ExpiresAt: exp, User: u}, nil
}

func (s *Service) checkSecondFactor(ctx context.Context, u *core.User, code string) error {
	if code == "" {
		s.refuse(GatePendingSecondFactor)
		return ErrSecondFactorRequired
	}
	rec, err := s.totp.Get(ctx, u.ID)
	if err != nil {
		return err
	}
	if rec == nil || rec.ConfirmedAt == nil {
		// flag prendido sin secreto confirmado: inconsistencia de datos
		logger.Named("auth").Error("two_factor_enabled sin secreto confirmado", logger.UserID(u.ID))
		return ErrSecondFactorRequired
	}
	secret, err := totp.DecodeSecret(rec.Secret)
	if err != nil {
		return err
	}
	last := rec.LastCounter
	ok, counter := totp.Verify(secret, code, s.now(), 1, &last)
	if !ok {
		s.count("bad_code")
		return ErrCodeInvalid
	}
	// persistir el contador consumido cierra el replay entre requests
	return s.totp.SetLastCounter(ctx, u.ID, counter)
}

// RegisterInput es el candidato a usuario nuevo. Secret llega en claro y
// jamás se persiste así. No lleva grupo: el alta siempre nace sin permisos y
// la asignación de grupo es una operación de administrador aparte.
type RegisterInput struct {
	Login       string
	Secret      string
	Name        string
	Surname     string
	Email       string
	PhoneNumber string
}

// Register crea el usuario. Los conflictos de unicidad salen como
// core.ErrLoginTaken / core.ErrEmailTaken; el registro existente nunca se pisa.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*core.User, error) {
	if in.Login == "" || in.Secret == "" || in.Email == "" {
		return nil, core.ErrInvalid
	}
	phc, err := password.Hash(s.hash, in.Secret)
	if err != nil {
		return nil, err
	}
	u := &core.User{
		ID:             uuid.NewString(),
		Login:          in.Login,
		Name:           in.Name,
		Surname:        in.Surname,
		Email:          in.Email,
		PhoneNumber:    in.PhoneNumber,
		PasswordSecret: phc,
		Status:         "active",
	}
	if err := s.users.Insert(ctx, u); err != nil {
		return nil, err
	}
	logger.Named("auth").Info("usuario registrado", logger.UserID(u.ID), logger.Login(u.Login))
	return u, nil
}

// ChangePassword verifica la credencial vigente y reemplaza el secreto. Al
// persistir se limpia requires_password_reset: es la única salida de ese
// estado.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if next == "" {
		return core.ErrInvalid
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !password.Verify(current, u.PasswordSecret) {
		s.count("wrong_secret")
		return ErrBadCredentials
	}
	phc, err := password.Hash(s.hash, next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordSecret(ctx, userID, phc); err != nil {
		return err
	}
	logger.Named("auth").Info("password cambiado", logger.UserID(userID))
	return nil
}

func (s *Service) count(result string) {
	if s.met != nil {
		s.met.AuthAttempts.WithLabelValues(result).Inc()
	}
}

func (s *Service) refuse(st GateState) {
	s.count("gate")
	if s.met != nil {
		s.met.GateRefusals.WithLabelValues(st.String()).Inc()
	}
}
