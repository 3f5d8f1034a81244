package password

import (
	"strings"
	"testing"
)

// argon2id con parámetros bajos para que los tests no tarden
var testParams = Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func TestHashVerify_Roundtrip(t *testing.T) {
	phc, err := Hash(testParams, "correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %q", phc)
	}
	if !Verify("correct horse battery staple", phc) {
		t.Fatal("expected verify true for matching secret")
	}
	if Verify("wrong secret", phc) {
		t.Fatal("expected verify false for wrong secret")
	}
}

func TestHash_EmptySecret(t *testing.T) {
	if _, err := Hash(testParams, ""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestVerify_MalformedPHC(t *testing.T) {
	cases := []string{
		"",
		"plaintext",
		"$argon2id$v=18$m=8192,t=1,p=1$AAAA$BBBB",
		"$argon2id$v=19$m=8192,t=1,p=1$not-base64!$BBBB",
		"$bcrypt$whatever",
	}
	for _, phc := range cases {
		if Verify("anything", phc) {
			t.Fatalf("expected verify false for malformed PHC %q", phc)
		}
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	a, _ := Hash(testParams, "same secret")
	b, _ := Hash(testParams, "same secret")
	if a == b {
		t.Fatal("two hashes of the same secret must differ (random salt)")
	}
}
