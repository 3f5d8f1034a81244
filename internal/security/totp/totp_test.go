package totp

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateSecret(t *testing.T) {
	raw, b32, err := GenerateSecret()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(raw) != 20 {
		t.Fatalf("raw secret length = %d, want 20", len(raw))
	}
	if strings.Contains(b32, "=") {
		t.Fatalf("base32 secret must not be padded: %q", b32)
	}
	back, err := DecodeSecret(b32)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(back) != string(raw) {
		t.Fatal("decode(encode(secret)) != secret")
	}
}

func TestVerify_CurrentStep(t *testing.T) {
	raw, _, _ := GenerateSecret()
	now := time.Unix(1700000000, 0)
	code := Code(raw, now)

	ok, counter := Verify(raw, code, now, 1, nil)
	if !ok {
		t.Fatal("code for current step must verify")
	}
	if counter != now.Unix()/Period {
		t.Fatalf("counter = %d, want %d", counter, now.Unix()/Period)
	}
}

func TestVerify_AdjacentSteps(t *testing.T) {
	raw, _, _ := GenerateSecret()
	now := time.Unix(1700000000, 0)

	// código del paso anterior y siguiente: ambos dentro de la ventana +/-1
	prev := Code(raw, now.Add(-Period*time.Second))
	next := Code(raw, now.Add(Period*time.Second))

	if ok, _ := Verify(raw, prev, now, 1, nil); !ok {
		t.Fatal("code from previous step must verify within skew window")
	}
	if ok, _ := Verify(raw, next, now, 1, nil); !ok {
		t.Fatal("code from next step must verify within skew window")
	}
}

func TestVerify_FarStepRejected(t *testing.T) {
	raw, _, _ := GenerateSecret()
	now := time.Unix(1700000000, 0)
	old := Code(raw, now.Add(-10*Period*time.Second))

	if ok, _ := Verify(raw, old, now, 1, nil); ok {
		t.Fatal("code from a far-off step must not verify")
	}
}

func TestVerify_Replay(t *testing.T) {
	raw, _, _ := GenerateSecret()
	now := time.Unix(1700000000, 0)
	code := Code(raw, now)

	ok, counter := Verify(raw, code, now, 1, nil)
	if !ok {
		t.Fatal("first use must verify")
	}
	// mismo código con el contador ya consumido
	if ok, _ := Verify(raw, code, now, 1, &counter); ok {
		t.Fatal("replayed code must be rejected")
	}
	// y también dentro del siguiente paso mientras siga en ventana
	later := now.Add(Period * time.Second)
	if ok, _ := Verify(raw, code, later, 1, &counter); ok {
		t.Fatal("replayed code must stay rejected while in window")
	}
}

func TestVerify_BadInput(t *testing.T) {
	raw, _, _ := GenerateSecret()
	now := time.Now()
	for _, code := range []string{"", "12345", "1234567", "abcdef"} {
		if ok, _ := Verify(raw, code, now, 1, nil); ok {
			t.Fatalf("code %q must not verify", code)
		}
	}
}

func TestOTPAuthURL(t *testing.T) {
	u := OTPAuthURL("Depotmaster", "jdoe", "JBSWY3DPEHPK3PXP")
	if !strings.HasPrefix(u, "otpauth://totp/Depotmaster:jdoe?") {
		t.Fatalf("unexpected URL: %q", u)
	}
	for _, want := range []string{"secret=JBSWY3DPEHPK3PXP", "issuer=Depotmaster", "digits=6", "period=30", "algorithm=SHA1"} {
		if !strings.Contains(u, want) {
			t.Fatalf("URL %q missing %q", u, want)
		}
	}
}
