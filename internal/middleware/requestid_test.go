package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func newRequestIDApp() *fiber.App {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		id, _ := c.Locals(requestIDHeader).(string)
		return c.SendString(id)
	})
	return app
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	app := newRequestIDApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	got := resp.Header.Get(requestIDHeader)
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("expected generated uuid, got %q", got)
	}
}

func TestRequestIDKeepsClientValue(t *testing.T) {
	app := newRequestIDApp()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestIDHeader, "trace-abc-123")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got := resp.Header.Get(requestIDHeader); got != "trace-abc-123" {
		t.Fatalf("expected client id echoed, got %q", got)
	}
}

func TestRequestIDReplacesOversizedValue(t *testing.T) {
	app := newRequestIDApp()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("a", maxRequestIDBytes+1))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got := resp.Header.Get(requestIDHeader); len(got) > maxRequestIDBytes {
		t.Fatalf("expected oversized id to be replaced, got %d bytes", len(got))
	}
}
