package rate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterWindow(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(3, time.Minute)

	base := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	l.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "login:walter")
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d tendría que pasar", i+1)
		}
	}

	res, err := l.Allow(ctx, "login:walter")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("el cuarto hit tendría que estar limitado")
	}
	if res.RetryAfter <= 0 {
		t.Fatalf("RetryAfter = %v", res.RetryAfter)
	}

	// otra key no comparte presupuesto
	res, _ = l.Allow(ctx, "login:otro")
	if !res.Allowed {
		t.Fatal("keys distintas no comparten ventana")
	}

	// ventana nueva resetea el contador
	l.now = func() time.Time { return base.Add(time.Minute) }
	res, _ = l.Allow(ctx, "login:walter")
	if !res.Allowed {
		t.Fatal("la ventana siguiente arranca de cero")
	}
}
