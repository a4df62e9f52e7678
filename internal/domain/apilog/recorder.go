package apilog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/middleware"
)

// Recorder persists middleware request records as api log entries.
type Recorder struct {
	repo  Repository
	newID func() uuid.UUID
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, newID: uuid.New}
}

func (r *Recorder) RecordRequest(ctx context.Context, rec middleware.RequestRecord) error {
	e := &Entry{
		ID:          r.newID(),
		Method:      rec.Method,
		Endpoint:    rec.Endpoint,
		RequestBody: rec.RequestBody,
		Status:      rec.Status,
		RequestID:   rec.RequestID,
		Timestamp:   rec.Timestamp,
	}
	if rec.UserID != "" {
		uid := rec.UserID
		e.UserID = &uid
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if len(e.RequestBody) == 0 {
		e.RequestBody = []byte(`{}`)
	}
	return r.repo.Create(ctx, e)
}

var _ middleware.RequestRecorder = (*Recorder)(nil)
