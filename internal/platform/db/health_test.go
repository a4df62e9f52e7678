package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runHealth(t *testing.T, p Probe) (int, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := HealthHandler(p)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec.Code, body
}

func TestHealthHandler_Healthy(t *testing.T) {
	code, body := runHealth(t, Probe{
		Driver: "postgres",
		Ping:   func(context.Context) error { return nil },
		Stats:  func() any { return &PoolStats{TotalConns: 3, MaxConns: 20} },
	})

	if code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", body["status"])
	}
	if body["driver"] != "postgres" {
		t.Errorf("expected driver postgres, got %v", body["driver"])
	}
	stats, ok := body["stats"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected stats object, got %T", body["stats"])
	}
	if stats["max_conns"] != float64(20) {
		t.Errorf("expected max_conns 20, got %v", stats["max_conns"])
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	code, body := runHealth(t, Probe{
		Driver: "couchbase",
		Ping:   func(context.Context) error { return errors.New("connection refused") },
	})

	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", code)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("expected unhealthy, got %v", body["status"])
	}
	if body["error"] != "connection refused" {
		t.Errorf("expected ping error in body, got %v", body["error"])
	}
	if _, ok := body["stats"]; ok {
		t.Error("expected no stats when the probe has none")
	}
}
