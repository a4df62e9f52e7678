package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
)

type mockRecorder struct {
	mu      sync.Mutex
	records []RequestRecord
	err     error
}

func (m *mockRecorder) RecordRequest(_ context.Context, rec RequestRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return m.err
}

func (m *mockRecorder) last() RequestRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[len(m.records)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func newLogEcho(recorder RequestRecorder) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	e.Use(RequestID(), RequestLog(zerolog.Nop(), recorder))
	return e
}

func TestRequestLog_RecordsRedactedBody(t *testing.T) {
	rec := &mockRecorder{}
	e := newLogEcho(rec)

	var seenBody string
	e.POST("/api/auth/login", func(c echo.Context) error {
		b, _ := io.ReadAll(c.Request().Body)
		seenBody = string(b)
		return c.JSON(http.StatusOK, map[string]string{"message": "Login successful"})
	})

	payload := `{"email":"ops@apollo.test","password":"hunter22","nested":{"Password":"x"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login?src=web", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(httptest.NewRecorder(), req)

	if seenBody != payload {
		t.Errorf("handler must still see the full body, got %q", seenBody)
	}
	if rec.count() != 1 {
		t.Fatalf("expected 1 record, got %d", rec.count())
	}
	got := rec.last()
	if got.Method != http.MethodPost || got.Endpoint != "/api/auth/login?src=web" {
		t.Errorf("unexpected method/endpoint: %s %s", got.Method, got.Endpoint)
	}
	if got.Status != http.StatusOK {
		t.Errorf("expected status 200, got %d", got.Status)
	}
	if got.RequestID == "" {
		t.Error("expected request id on record")
	}
	if strings.Contains(string(got.RequestBody), "hunter22") {
		t.Errorf("password leaked into request log: %s", got.RequestBody)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(got.RequestBody, &body); err != nil {
		t.Fatalf("decode recorded body: %v", err)
	}
	if body["password"] != redacted || body["email"] != "ops@apollo.test" {
		t.Errorf("unexpected recorded body: %v", body)
	}
	if nested := body["nested"].(map[string]interface{}); nested["Password"] != redacted {
		t.Errorf("expected nested password redacted, got %v", nested)
	}
}

func TestRequestLog_CapturesCallerAndErrorStatus(t *testing.T) {
	rec := &mockRecorder{}
	e := newLogEcho(rec)

	caller := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := auth.WithPrincipal(c.Request().Context(), auth.Principal{PublicID: "APO1903", Role: auth.RoleHospital})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
	e.DELETE("/api/doctors/getById/:doctorId", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
	}, caller)

	resp := httptest.NewRecorder()
	e.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/doctors/getById/JOH1903", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	got := rec.last()
	if got.UserID != "APO1903" {
		t.Errorf("expected caller public id, got %q", got.UserID)
	}
	if got.Status != http.StatusNotFound {
		t.Errorf("expected recorded status 404, got %d", got.Status)
	}
	if string(got.RequestBody) != "{}" {
		t.Errorf("expected empty body object, got %s", got.RequestBody)
	}
}

func TestRequestLog_SkipsNonAPIPaths(t *testing.T) {
	rec := &mockRecorder{}
	e := newLogEcho(rec)
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.count() != 0 {
		t.Errorf("expected /health to be skipped, got %d records", rec.count())
	}
}

func TestRequestLog_RecorderErrorDoesNotBreakRequest(t *testing.T) {
	rec := &mockRecorder{err: errors.New("store down")}
	e := newLogEcho(rec)
	e.GET("/api/hospitals/all", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	resp := httptest.NewRecorder()
	e.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/hospitals/all", nil))

	if resp.Code != http.StatusOK {
		t.Errorf("expected 200 despite recorder failure, got %d", resp.Code)
	}
}

func TestRequestLog_LargeBodyPassesThrough(t *testing.T) {
	rec := &mockRecorder{}
	e := newLogEcho(rec)

	payload := `{"medicalHistory":"` + strings.Repeat("a", maxLoggedBody) + `"}`
	var seen int
	e.POST("/api/patient/add", func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		seen = len(b)
		return c.NoContent(http.StatusCreated)
	})

	resp := httptest.NewRecorder()
	e.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/patient/add", strings.NewReader(payload)))

	if seen != len(payload) {
		t.Errorf("handler saw %d bytes, want %d", seen, len(payload))
	}
	if got := string(rec.last().RequestBody); got != "{}" {
		t.Errorf("expected oversized body to be logged as {}, got %.40s", got)
	}
}

func TestRedactBody(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `{}`},
		{"not json", "hello", `{}`},
		{"array", `[{"token":"abc"}]`, `[{"token":"[REDACTED]"}]`},
		{"hash", `{"passwordHash":"$2a$10$x"}`, `{"passwordHash":"[REDACTED]"}`},
		{"oversized", `{"a":"` + strings.Repeat("x", maxLoggedBody) + `"}`, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(redactBody([]byte(tt.in))); got != tt.want {
				t.Errorf("redactBody() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRequestRecorderFunc(t *testing.T) {
	called := false
	f := RequestRecorderFunc(func(context.Context, RequestRecord) error {
		called = true
		return nil
	})
	if err := f.RecordRequest(context.Background(), RequestRecord{}); err != nil || !called {
		t.Error("expected adapter to call the function")
	}
}
