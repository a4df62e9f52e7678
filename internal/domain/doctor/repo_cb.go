package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hms/hms/internal/platform/cbstore"
	"github.com/hms/hms/pkg/pagination"
)

const docKind = "doctor"

type doctorDoc struct {
	Type string `json:"type"`
	Doctor
	PasswordHash string `json:"passwordHash"`
}

func (d *doctorDoc) doctor() *Doctor {
	out := d.Doctor
	out.PasswordHash = d.PasswordHash
	return &out
}

type repoCB struct {
	store *cbstore.Store
}

func NewRepoCB(store *cbstore.Store) Repository {
	return &repoCB{store: store}
}

func (r *repoCB) key(id string) string { return cbstore.DocID(docKind, id) }

func (r *repoCB) Create(ctx context.Context, d *Doctor) error {
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	d.AvailableDays = days(d.AvailableDays)
	err := r.store.Insert(ctx, r.key(d.DoctorID), doctorDoc{Type: docKind, Doctor: *d, PasswordHash: d.PasswordHash})
	if errors.Is(err, cbstore.ErrExists) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (r *repoCB) GetByID(ctx context.Context, doctorID string) (*Doctor, error) {
	var doc doctorDoc
	if err := r.store.Get(ctx, r.key(doctorID), &doc); err != nil {
		if errors.Is(err, cbstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.doctor(), nil
}

func (r *repoCB) List(ctx context.Context, hospitalID string, p pagination.Params) ([]*Doctor, int, error) {
	ks := r.store.Keyspace()
	total, err := r.store.Count(ctx, fmt.Sprintf(
		"SELECT COUNT(*) AS n FROM %s AS d WHERE d.`type` = $1 AND d.hospitalId = $2", ks),
		docKind, hospitalID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.store.Query(ctx, fmt.Sprintf(
		"SELECT RAW d FROM %s AS d WHERE d.`type` = $1 AND d.hospitalId = $2 "+
			"ORDER BY STR_TO_MILLIS(d.createdAt) DESC, d.doctorId LIMIT $3 OFFSET $4", ks),
		docKind, hospitalID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	docs, err := cbstore.Collect[doctorDoc](rows)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*Doctor, len(docs))
	for i := range docs {
		out[i] = docs[i].doctor()
	}
	return out, total, nil
}

func (r *repoCB) ListLight(ctx context.Context, hospitalID string) ([]Light, error) {
	rows, err := r.store.Query(ctx, fmt.Sprintf(
		"SELECT d.doctorId, d.fullName FROM %s AS d WHERE d.`type` = $1 AND d.hospitalId = $2 "+
			"ORDER BY STR_TO_MILLIS(d.createdAt) DESC, d.doctorId", r.store.Keyspace()),
		docKind, hospitalID)
	if err != nil {
		return nil, err
	}
	return cbstore.Collect[Light](rows)
}

func (r *repoCB) Update(ctx context.Context, d *Doctor) error {
	d.UpdatedAt = time.Now().UTC()
	err := r.store.Replace(ctx, r.key(d.DoctorID), doctorDoc{Type: docKind, Doctor: *d, PasswordHash: d.PasswordHash})
	if errors.Is(err, cbstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *repoCB) Delete(ctx context.Context, doctorID string) error {
	err := r.store.Remove(ctx, r.key(doctorID))
	if errors.Is(err, cbstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *repoCB) DeleteByHospital(ctx context.Context, hospitalID string) (int, error) {
	rows, err := r.store.Query(ctx, fmt.Sprintf(
		"DELETE FROM %s AS d WHERE d.`type` = $1 AND d.hospitalId = $2 RETURNING RAW META(d).id",
		r.store.Keyspace()), docKind, hospitalID)
	if err != nil {
		return 0, err
	}
	ids, err := cbstore.Collect[string](rows)
	return len(ids), err
}

func (r *repoCB) Exists(ctx context.Context, doctorID string) (bool, error) {
	_, err := r.GetByID(ctx, doctorID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *repoCB) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := r.store.Count(ctx, fmt.Sprintf(
		"SELECT COUNT(*) AS n FROM %s AS d WHERE d.`type` = $1 AND LOWER(d.email) = $2",
		r.store.Keyspace()), docKind, email)
	return n > 0, err
}

func (r *repoCB) LicenseExists(ctx context.Context, license, exceptDoctorID string) (bool, error) {
	n, err := r.store.Count(ctx, fmt.Sprintf(
		"SELECT COUNT(*) AS n FROM %s AS d WHERE d.`type` = $1 AND d.licenseNumber = $2 AND d.doctorId != $3",
		r.store.Keyspace()), docKind, license, exceptDoctorID)
	return n > 0, err
}
