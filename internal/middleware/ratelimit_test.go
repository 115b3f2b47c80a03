package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"transit-backend/internal/config"
	"transit-backend/internal/engine"
)

func appWith(h fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler})
	app.Use(h)
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	return app
}

func status(t *testing.T, app *fiber.App, ip string) int {
	t.Helper()
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Client", ip)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp.StatusCode
}

func TestRateLimit_ExhaustedBucketReturns429(t *testing.T) {
	l := NewLimiter(0.001, 2)
	app := appWith(RateLimitWith(l, func(c *fiber.Ctx) string { return c.Get("X-Client") }))

	for i := 0; i < 2; i++ {
		if got := status(t, app, "a"); got != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, got)
		}
	}
	if got := status(t, app, "a"); got != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", got)
	}
	// Buckets are per client.
	if got := status(t, app, "b"); got != http.StatusOK {
		t.Fatalf("expected other client to pass, got %d", got)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	app := appWith(RateLimit(config.RateLimitConfig{Enabled: false, RPS: 1, Burst: 1}))
	for i := 0; i < 5; i++ {
		if got := status(t, app, ""); got != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, got)
		}
	}
}

func TestLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	if l.Clients() != 2 {
		t.Fatalf("expected 2 clients, got %d", l.Clients())
	}

	now = now.Add(idleTTL + time.Second)
	l.Allow("c")
	if l.Clients() != 1 {
		t.Fatalf("expected idle clients evicted, got %d", l.Clients())
	}
}
