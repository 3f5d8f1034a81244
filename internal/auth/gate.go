package auth

import "github.com/dropDatabas3/depotmaster/internal/store/core"

// GateState es el estado de cuenta computado fresco en cada request.
// El gate no guarda estado propio: todo sale del registro del usuario.
type GateState int

const (
	GateActive GateState = iota
	GateBlocked
	GatePasswordResetRequired
	GatePendingSecondFactor
)

func (s GateState) String() string {
	switch s {
	case GateActive:
		return "active"
	case GateBlocked:
		return "blocked"
	case GatePasswordResetRequired:
		return "password_reset_required"
	case GatePendingSecondFactor:
		return "pending_second_factor"
	default:
		return "unknown"
	}
}

// EvaluateGate deriva el estado en orden fijo: bloqueo domina todo (un
// bloqueado jamás llega al flujo de reset ni al de 2FA), y reset domina 2FA
// (una cuenta forzada a cambiar password no opera normal antes de cambiarla).
// secondFactorOK indica si esta sesión ya presentó un segundo factor válido.
func EvaluateGate(u *core.User, secondFactorOK bool) GateState {
	switch {
	case u.IsBlocked:
		return GateBlocked
	case u.RequiresPasswordReset:
		return GatePasswordResetRequired
	case u.TwoFactorEnabled && !secondFactorOK:
		return GatePendingSecondFactor
	default:
		return GateActive
	}
}
