package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/pkg/civil"
	"github.com/hms/hms/pkg/pagination"
)

const doctorColumns = `doctor_id, full_name, email, gender, dob, phone, photo, specialization,
	qualification, experience, license_number, department, consultation_fee, available_days,
	working_hours, appointment_duration, address, city, state, country, postal_code,
	hospital_id, status, password_hash, created_at, updated_at`

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctors (
			doctor_id, full_name, email, gender, dob, phone, photo, specialization,
			qualification, experience, license_number, department, consultation_fee, available_days,
			working_hours, appointment_duration, address, city, state, country, postal_code,
			hospital_id, status, password_hash
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21,
			$22, $23, $24
		)
		RETURNING created_at, updated_at`,
		d.DoctorID, d.FullName, d.Email, d.Gender, d.DOB.TimePtr(), d.Phone, d.Photo, d.Specialization,
		d.Qualification, d.Experience, nullIfEmpty(d.LicenseNumber), d.Department, d.ConsultationFee, days(d.AvailableDays),
		d.WorkingHours, d.AppointmentDuration, d.Address, d.City, d.State, d.Country, d.PostalCode,
		d.HospitalID, string(d.Status), d.PasswordHash,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, db.ConstraintName(err))
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, doctorID string) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE doctor_id = $1`, doctorID))
}

func (r *repoPG) List(ctx context.Context, hospitalID string, p pagination.Params) ([]*Doctor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctors WHERE hospital_id = $1`, hospitalID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+doctorColumns+` FROM doctors
		WHERE hospital_id = $1
		ORDER BY created_at DESC, doctor_id
		LIMIT $2 OFFSET $3`, hospitalID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *repoPG) ListLight(ctx context.Context, hospitalID string) ([]Light, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT doctor_id, full_name FROM doctors
		WHERE hospital_id = $1
		ORDER BY created_at DESC, doctor_id`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Light
	for rows.Next() {
		var l Light
		if err := rows.Scan(&l.DoctorID, &l.FullName); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE doctors SET
			full_name = $2, gender = $3, dob = $4, phone = $5, photo = $6, specialization = $7,
			qualification = $8, experience = $9, license_number = $10, department = $11,
			consultation_fee = $12, available_days = $13, working_hours = $14,
			appointment_duration = $15, address = $16, city = $17, state = $18, country = $19,
			postal_code = $20, status = $21, updated_at = NOW()
		WHERE doctor_id = $1
		RETURNING updated_at`,
		d.DoctorID, d.FullName, d.Gender, d.DOB.TimePtr(), d.Phone, d.Photo, d.Specialization,
		d.Qualification, d.Experience, nullIfEmpty(d.LicenseNumber), d.Department,
		d.ConsultationFee, days(d.AvailableDays), d.WorkingHours,
		d.AppointmentDuration, d.Address, d.City, d.State, d.Country,
		d.PostalCode, string(d.Status),
	).Scan(&d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, db.ConstraintName(err))
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, doctorID string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctors WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteByHospital(ctx context.Context, hospitalID string) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctors WHERE hospital_id = $1`, hospitalID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *repoPG) Exists(ctx context.Context, doctorID string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM doctors WHERE doctor_id = $1)`, doctorID).Scan(&ok)
	return ok, err
}

func (r *repoPG) EmailExists(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM doctors WHERE email = $1)`, email).Scan(&ok)
	return ok, err
}

func (r *repoPG) LicenseExists(ctx context.Context, license, exceptDoctorID string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM doctors WHERE license_number = $1 AND doctor_id <> $2)`,
		license, exceptDoctorID).Scan(&ok)
	return ok, err
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var dob *time.Time
	var license *string
	var status string
	err := row.Scan(&d.DoctorID, &d.FullName, &d.Email, &d.Gender, &dob, &d.Phone, &d.Photo, &d.Specialization,
		&d.Qualification, &d.Experience, &license, &d.Department, &d.ConsultationFee, &d.AvailableDays,
		&d.WorkingHours, &d.AppointmentDuration, &d.Address, &d.City, &d.State, &d.Country, &d.PostalCode,
		&d.HospitalID, &status, &d.PasswordHash, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.DOB = civil.FromTimePtr(dob)
	if license != nil {
		d.LicenseNumber = *license
	}
	d.Status = Status(status)
	return &d, nil
}

// nullIfEmpty stores an absent license as NULL so the partial unique index
// only covers real numbers.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func days(d []string) []string {
	if d == nil {
		return []string{}
	}
	return d
}
