package hospital

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hms/hms/internal/platform/cbstore"
)

const docKind = "hospital"

type hospitalDoc struct {
	Type string `json:"type"`
	Hospital
	PasswordHash string `json:"passwordHash"`
}

func (d *hospitalDoc) hospital() *Hospital {
	h := d.Hospital
	h.PasswordHash = d.PasswordHash
	return &h
}

type repoCB struct {
	store *cbstore.Store
}

func NewRepoCB(store *cbstore.Store) Repository {
	return &repoCB{store: store}
}

func (r *repoCB) key(id string) string { return cbstore.DocID(docKind, id) }

func (r *repoCB) Create(ctx context.Context, h *Hospital) error {
	now := time.Now().UTC()
	h.CreatedAt, h.UpdatedAt = now, now
	err := r.store.Insert(ctx, r.key(h.HospitalID), hospitalDoc{Type: docKind, Hospital: *h, PasswordHash: h.PasswordHash})
	if errors.Is(err, cbstore.ErrExists) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (r *repoCB) GetByID(ctx context.Context, hospitalID string) (*Hospital, error) {
	var doc hospitalDoc
	if err := r.store.Get(ctx, r.key(hospitalID), &doc); err != nil {
		if errors.Is(err, cbstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.hospital(), nil
}

func (r *repoCB) List(ctx context.Context) ([]*Hospital, error) {
	rows, err := r.store.Query(ctx, fmt.Sprintf(
		"SELECT RAW h FROM %s AS h WHERE h.`type` = $1 ORDER BY STR_TO_MILLIS(h.createdAt) DESC, h.hospitalId",
		r.store.Keyspace()), docKind)
	if err != nil {
		return nil, err
	}
	docs, err := cbstore.Collect[hospitalDoc](rows)
	if err != nil {
		return nil, err
	}
	out := make([]*Hospital, len(docs))
	for i := range docs {
		out[i] = docs[i].hospital()
	}
	return out, nil
}

func (r *repoCB) Update(ctx context.Context, h *Hospital) error {
	h.UpdatedAt = time.Now().UTC()
	err := r.store.Replace(ctx, r.key(h.HospitalID), hospitalDoc{Type: docKind, Hospital: *h, PasswordHash: h.PasswordHash})
	if errors.Is(err, cbstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *repoCB) Delete(ctx context.Context, hospitalID string) error {
	err := r.store.Remove(ctx, r.key(hospitalID))
	if errors.Is(err, cbstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *repoCB) Exists(ctx context.Context, hospitalID string) (bool, error) {
	_, err := r.GetByID(ctx, hospitalID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *repoCB) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := r.store.Count(ctx, fmt.Sprintf(
		"SELECT COUNT(*) AS n FROM %s AS h WHERE h.`type` = $1 AND LOWER(h.email) = $2",
		r.store.Keyspace()), docKind, email)
	return n > 0, err
}
