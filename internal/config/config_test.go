package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":8080" {
		t.Fatalf("Server.Addr = %q", c.Server.Addr)
	}
	if c.JWT.TTL != "720h" {
		t.Fatalf("JWT.TTL = %q", c.JWT.TTL)
	}
	if c.Storage.Driver != "postgres" {
		t.Fatalf("Storage.Driver = %q", c.Storage.Driver)
	}
	if c.Rate.Login.Limit != 10 {
		t.Fatalf("Rate.Login.Limit = %d", c.Rate.Login.Limit)
	}
	if c.Server.TrustProxy {
		t.Fatal("Server.TrustProxy debe arrancar apagado")
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	p := writeYAML(t, `
app:
  env: dev
server:
  addr: ":3000"
jwt:
  issuer: yaml-issuer
`)
	t.Setenv("JWT_ISSUER", "env-issuer")
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("SERVER_TRUST_PROXY", "true")

	c, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":3000" {
		t.Fatalf("Server.Addr = %q", c.Server.Addr)
	}
	// env pisa yaml
	if c.JWT.Issuer != "env-issuer" {
		t.Fatalf("JWT.Issuer = %q", c.JWT.Issuer)
	}
	if c.JWT.Secret != "s3cr3t" {
		t.Fatalf("JWT.Secret = %q", c.JWT.Secret)
	}
	if !c.Server.TrustProxy {
		t.Fatal("SERVER_TRUST_PROXY no aplicó")
	}
}

func TestProdRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(""); err == nil {
		t.Fatal("prod sin JWT_SECRET tendría que fallar")
	}

	t.Setenv("JWT_SECRET", "algo")
	if _, err := Load(""); err == nil {
		t.Fatal("prod sin DSN tendría que fallar")
	}

	t.Setenv("DATABASE_DSN", "postgres://localhost/depotmaster")
	if _, err := Load(""); err != nil {
		t.Fatalf("prod con secretos completos = %v", err)
	}
}

func TestProdRefusesMemoryStorage(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "algo")
	t.Setenv("DATABASE_DSN", "postgres://localhost/depotmaster")
	t.Setenv("STORAGE_DRIVER", "memory")
	if _, err := Load(""); err == nil {
		t.Fatal("storage memory en prod tendría que fallar")
	}
}

func TestInvalidDurationRejected(t *testing.T) {
	p := writeYAML(t, `
jwt:
  ttl: "un-rato"
`)
	if _, err := Load(p); err == nil {
		t.Fatal("duración inválida tendría que fallar")
	}
}
