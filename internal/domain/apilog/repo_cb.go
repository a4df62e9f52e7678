package apilog

import (
	"context"
	"fmt"
	"time"

	"github.com/hms/hms/internal/platform/cbstore"
)

const docKind = "apilog"

type entryDoc struct {
	Type string `json:"type"`
	Entry
	// CreatedAt feeds the shared type/createdAt index.
	CreatedAt string `json:"createdAt"`
}

type repoCB struct {
	store *cbstore.Store
}

func NewRepoCB(store *cbstore.Store) Repository {
	return &repoCB{store: store}
}

func (r *repoCB) Create(ctx context.Context, e *Entry) error {
	doc := entryDoc{Type: docKind, Entry: *e, CreatedAt: e.Timestamp.UTC().Format(time.RFC3339Nano)}
	if err := r.store.Insert(ctx, cbstore.DocID(docKind, e.ID.String()), doc); err != nil {
		return fmt.Errorf("insert api log: %w", err)
	}
	return nil
}
