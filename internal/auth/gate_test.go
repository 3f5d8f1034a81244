package auth

import (
	"testing"

	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

func TestEvaluateGateOrder(t *testing.T) {
	cases := []struct {
		name            string
		blocked         bool
		requiresReset   bool
		twoFactor       bool
		secondFactorOK  bool
		want            GateState
	}{
		{"activo", false, false, false, false, GateActive},
		{"bloqueado", true, false, false, false, GateBlocked},
		{"reset", false, true, false, false, GatePasswordResetRequired},
		{"2fa pendiente", false, false, true, false, GatePendingSecondFactor},
		{"2fa verificado", false, false, true, true, GateActive},
		// bloqueo domina todo lo demás
		{"bloqueado y reset", true, true, false, false, GateBlocked},
		{"bloqueado y 2fa", true, false, true, false, GateBlocked},
		{"todo prendido", true, true, true, false, GateBlocked},
		// reset domina 2fa
		{"reset y 2fa", false, true, true, false, GatePasswordResetRequired},
		{"reset y 2fa verificado", false, true, true, true, GatePasswordResetRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := &core.User{
				IsBlocked:             tc.blocked,
				RequiresPasswordReset: tc.requiresReset,
				TwoFactorEnabled:      tc.twoFactor,
			}
			if got := EvaluateGate(u, tc.secondFactorOK); got != tc.want {
				t.Fatalf("EvaluateGate = %v, quería %v", got, tc.want)
			}
		})
	}
}

func TestGateStateString(t *testing.T) {
	if GateBlocked.String() != "blocked" {
		t.Fatalf("String() = %q", GateBlocked.String())
	}
	if GateState(99).String() != "unknown" {
		t.Fatalf("String() de estado inválido = %q", GateState(99).String())
	}
}
