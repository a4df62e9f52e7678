package hospital

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

const hospitalColumns = `hospital_id, hospital_name, email, contact_number, address, hospital_type,
	established_year, image, status, password_hash, created_at, updated_at`

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO hospitals (
			hospital_id, hospital_name, email, contact_number, address, hospital_type,
			established_year, image, status, password_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		h.HospitalID, h.HospitalName, h.Email, h.ContactNumber, h.Address, h.HospitalType,
		h.EstablishedYear, h.Image, string(h.Status), h.PasswordHash,
	).Scan(&h.CreatedAt, &h.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, db.ConstraintName(err))
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, hospitalID string) (*Hospital, error) {
	return scanHospital(r.conn(ctx).QueryRow(ctx, `SELECT `+hospitalColumns+` FROM hospitals WHERE hospital_id = $1`, hospitalID))
}

func (r *repoPG) List(ctx context.Context) ([]*Hospital, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+hospitalColumns+` FROM hospitals ORDER BY created_at DESC, hospital_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, h *Hospital) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE hospitals SET
			hospital_name = $2, contact_number = $3, address = $4, hospital_type = $5,
			established_year = $6, image = $7, status = $8, updated_at = NOW()
		WHERE hospital_id = $1
		RETURNING updated_at`,
		h.HospitalID, h.HospitalName, h.ContactNumber, h.Address, h.HospitalType,
		h.EstablishedYear, h.Image, string(h.Status),
	).Scan(&h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, hospitalID string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM hospitals WHERE hospital_id = $1`, hospitalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Exists(ctx context.Context, hospitalID string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM hospitals WHERE hospital_id = $1)`, hospitalID).Scan(&ok)
	return ok, err
}

func (r *repoPG) EmailExists(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM hospitals WHERE email = $1)`, email).Scan(&ok)
	return ok, err
}

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	var status string
	err := row.Scan(&h.HospitalID, &h.HospitalName, &h.Email, &h.ContactNumber, &h.Address, &h.HospitalType,
		&h.EstablishedYear, &h.Image, &status, &h.PasswordHash, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	h.Status = Status(status)
	return &h, nil
}
