package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hms/hms/internal/platform/cbstore"
	"github.com/hms/hms/pkg/pagination"
)

const docKind = "patient"

type patientDoc struct {
	Type string `json:"type"`
	Patient
	PasswordHash string `json:"passwordHash"`
}

func (d *patientDoc) patient() *Patient {
	p := d.Patient
	p.PasswordHash = d.PasswordHash
	return &p
}

type repoCB struct {
	store *cbstore.Store
}

func NewRepoCB(store *cbstore.Store) Repository {
	return &repoCB{store: store}
}

func (r *repoCB) key(id string) string { return cbstore.DocID(docKind, id) }

func (r *repoCB) Create(ctx context.Context, p *Patient) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	err := r.store.Insert(ctx, r.key(p.PatientID), patientDoc{Type: docKind, Patient: *p, PasswordHash: p.PasswordHash})
	if errors.Is(err, cbstore.ErrExists) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (r *repoCB) GetByID(ctx context.Context, patientID string) (*Patient, error) {
	var doc patientDoc
	if err := r.store.Get(ctx, r.key(patientID), &doc); err != nil {
		if errors.Is(err, cbstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.patient(), nil
}

// cbWhere renders the scope as a N1QL predicate over alias p. $1 is the
// document type.
func cbWhere(scope Scope) (string, []interface{}) {
	clause := "p.`type` = $1"
	args := []interface{}{docKind}
	if scope.HospitalID != "" {
		args = append(args, scope.HospitalID)
		clause += fmt.Sprintf(" AND p.hospitalId = $%d", len(args))
	}
	if scope.DoctorID != "" {
		args = append(args, scope.DoctorID)
		clause += fmt.Sprintf(" AND p.doctorId = $%d", len(args))
	}
	return clause, args
}

func (r *repoCB) List(ctx context.Context, scope Scope, page pagination.Params) ([]*Patient, int, error) {
	ks := r.store.Keyspace()
	clause, args := cbWhere(scope)

	total, err := r.store.Count(ctx, fmt.Sprintf("SELECT COUNT(*) AS n FROM %s AS p WHERE %s", ks, clause), args...)
	if err != nil {
		return nil, 0, err
	}

	n := len(args)
	args = append(args, page.Limit, page.Offset())
	patients, err := r.query(ctx, fmt.Sprintf(
		"SELECT RAW p FROM %s AS p WHERE %s ORDER BY STR_TO_MILLIS(p.createdAt) DESC, p.patientId LIMIT $%d OFFSET $%d",
		ks, clause, n+1, n+2), args...)
	return patients, total, err
}

func (r *repoCB) ListAll(ctx context.Context, scope Scope) ([]*Patient, error) {
	clause, args := cbWhere(scope)
	return r.query(ctx, fmt.Sprintf(
		"SELECT RAW p FROM %s AS p WHERE %s ORDER BY STR_TO_MILLIS(p.createdAt) DESC, p.patientId",
		r.store.Keyspace(), clause), args...)
}

func (r *repoCB) query(ctx context.Context, stmt string, args ...interface{}) ([]*Patient, error) {
	rows, err := r.store.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	docs, err := cbstore.Collect[patientDoc](rows)
	if err != nil {
		return nil, err
	}
	out := make([]*Patient, len(docs))
	for i := range docs {
		out[i] = docs[i].patient()
	}
	return out, nil
}

func (r *repoCB) Update(ctx context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	err := r.store.Replace(ctx, r.key(p.PatientID), patientDoc{Type: docKind, Patient: *p, PasswordHash: p.PasswordHash})
	if errors.Is(err, cbstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *repoCB) Delete(ctx context.Context, patientID string) error {
	err := r.store.Remove(ctx, r.key(patientID))
	if errors.Is(err, cbstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *repoCB) Exists(ctx context.Context, patientID string) (bool, error) {
	_, err := r.GetByID(ctx, patientID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *repoCB) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := r.store.Count(ctx, fmt.Sprintf(
		"SELECT COUNT(*) AS n FROM %s AS p WHERE p.`type` = $1 AND LOWER(p.email) = $2",
		r.store.Keyspace()), docKind, email)
	return n > 0, err
}
