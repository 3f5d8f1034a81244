package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestIssuer(t *testing.T, ttl time.Duration) *Issuer {
	t.Helper()
	iss, err := NewIssuer("depotmaster-test", []byte("test-secret-0123456789"), ttl)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return iss
}

func TestNewIssuer_EmptySecret(t *testing.T) {
	if _, err := NewIssuer("x", nil, 0); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestIssueVerify_Roundtrip(t *testing.T) {
	iss := newTestIssuer(t, time.Hour)

	raw, exp, err := iss.Issue("user-123", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if until := time.Until(exp); until < 59*time.Minute || until > time.Hour {
		t.Fatalf("expiry %v not within configured TTL", until)
	}

	claims, err := iss.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Fatalf("subject = %q, want user-123", claims.Subject)
	}
	if claims.Nonce == "" {
		t.Fatal("expected a jti nonce")
	}
}

func TestVerify_Expired(t *testing.T) {
	iss := newTestIssuer(t, time.Hour)
	raw, _, err := iss.Issue("user-123", time.Millisecond)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := iss.Verify(raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	iss := newTestIssuer(t, time.Hour)
	raw, _, _ := iss.Issue("user-123", 0)

	// cambiar el último carácter de la firma
	last := raw[len(raw)-1]
	repl := byte('A')
	if last == 'A' {
		repl = 'B'
	}
	tampered := raw[:len(raw)-1] + string(repl)

	if _, err := iss.Verify(tampered); !errors.Is(err, ErrSignature) {
		t.Fatalf("err = %v, want ErrSignature", err)
	}
}

func TestVerify_OtherSecret(t *testing.T) {
	a := newTestIssuer(t, time.Hour)
	b, _ := NewIssuer("depotmaster-test", []byte("a-different-secret"), time.Hour)

	raw, _, _ := a.Issue("user-123", 0)
	if _, err := b.Verify(raw); !errors.Is(err, ErrSignature) {
		t.Fatalf("err = %v, want ErrSignature", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	iss := newTestIssuer(t, time.Hour)
	for _, raw := range []string{"", "garbage", "a.b", strings.Repeat("x.", 40)} {
		if _, err := iss.Verify(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Verify(%q) err = %v, want ErrMalformed", raw, err)
		}
	}
}

func TestIssue_EmptySubject(t *testing.T) {
	iss := newTestIssuer(t, time.Hour)
	if _, _, err := iss.Issue("", 0); err == nil {
		t.Fatal("expected error for empty subject")
	}
}
