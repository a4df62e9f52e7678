package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
)

// maxLoggedBody caps how much of a request body is kept in the request log.
const maxLoggedBody = 64 << 10

const redacted = "[REDACTED]"

var secretKeys = map[string]bool{
	"password":     true,
	"passwordhash": true,
	"token":        true,
}

// RequestRecord is one persisted API call.
type RequestRecord struct {
	Method      string
	Endpoint    string
	RequestBody json.RawMessage
	UserID      string
	Status      int
	RequestID   string
	Timestamp   time.Time
}

// RequestRecorder persists request records.
type RequestRecorder interface {
	RecordRequest(ctx context.Context, rec RequestRecord) error
}

// RequestRecorderFunc adapts a function to RequestRecorder.
type RequestRecorderFunc func(ctx context.Context, rec RequestRecord) error

func (f RequestRecorderFunc) RecordRequest(ctx context.Context, rec RequestRecord) error {
	return f(ctx, rec)
}

// RequestLog stores every /api call with its body (secrets redacted), the
// caller's public id when authenticated, and the final status. Recorder
// failures are logged and never change the response.
func RequestLog(logger zerolog.Logger, recorder RequestRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, "/api/") {
				return next(c)
			}

			body := captureBody(req)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			rec := RequestRecord{
				Method:      req.Method,
				Endpoint:    req.URL.RequestURI(),
				RequestBody: redactBody(body),
				UserID:      auth.UserIDFromContext(c.Request().Context()),
				Status:      c.Response().Status,
				RequestID:   requestID(c),
				Timestamp:   time.Now().UTC(),
			}

			// The request context may already be cancelled by the client.
			ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), 5*time.Second)
			defer cancel()
			if recErr := recorder.RecordRequest(ctx, rec); recErr != nil {
				logger.Error().Err(recErr).
					Str("request_id", rec.RequestID).
					Msg("failed to record request")
			}
			return nil
		}
	}
}

// captureBody reads up to the logging cap from the body and puts the
// captured prefix back in front of the remainder.
func captureBody(req *http.Request) []byte {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(req.Body, maxLoggedBody+1))
	req.Body = prefixedBody{Reader: io.MultiReader(bytes.NewReader(b), req.Body), Closer: req.Body}
	return b
}

type prefixedBody struct {
	io.Reader
	io.Closer
}

// redactBody returns the body as JSON with secret fields masked. Bodies that
// are not JSON objects or exceed the cap are recorded as an empty object.
func redactBody(body []byte) json.RawMessage {
	empty := json.RawMessage(`{}`)
	if len(body) == 0 || len(body) > maxLoggedBody {
		return empty
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return empty
	}
	out, err := json.Marshal(redact(v))
	if err != nil {
		return empty
	}
	return out
}

func redact(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			if secretKeys[strings.ToLower(k)] {
				t[k] = redacted
				continue
			}
			t[k] = redact(val)
		}
		return t
	case []interface{}:
		for i := range t {
			t[i] = redact(t[i])
		}
		return t
	}
	return v
}
