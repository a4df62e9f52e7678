// Package apilog stores one entry per /api request.
package apilog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is a recorded API call. RequestBody has secrets redacted before it
// reaches this package.
type Entry struct {
	ID          uuid.UUID       `json:"id"`
	Method      string          `json:"method"`
	Endpoint    string          `json:"endpoint"`
	RequestBody json.RawMessage `json:"requestBody"`
	UserID      *string         `json:"userId"`
	Status      int             `json:"status"`
	RequestID   string          `json:"requestId,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}
