package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/pkg/civil"
	"github.com/hms/hms/pkg/pagination"
)

const patientColumns = `patient_id, full_name, email, gender, date_of_birth, age, phone_number,
	email_address, address, blood_group, emergency_contact_name, emergency_contact_number,
	marital_status, admission_date, discharge_date, patient_type, consulting_doctor,
	medical_history, current_symptoms, allergies, insurance_provider, insurance_policy_number,
	photo, room_or_ward_number, nationality, occupation, hospital_id, doctor_id,
	password_hash, created_at, updated_at`

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (
			patient_id, full_name, email, gender, date_of_birth, age, phone_number,
			email_address, address, blood_group, emergency_contact_name, emergency_contact_number,
			marital_status, admission_date, discharge_date, patient_type, consulting_doctor,
			medical_history, current_symptoms, allergies, insurance_provider, insurance_policy_number,
			photo, room_or_ward_number, nationality, occupation, hospital_id, doctor_id,
			password_hash
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22,
			$23, $24, $25, $26, $27, $28,
			$29
		)
		RETURNING created_at, updated_at`,
		p.PatientID, p.FullName, p.Email, p.Gender, p.DateOfBirth.Time(), p.Age, p.PhoneNumber,
		p.EmailAddress, p.Address, p.BloodGroup, p.EmergencyContactName, p.EmergencyContactNumber,
		p.MaritalStatus, p.AdmissionDate.Time(), p.DischargeDate.TimePtr(), string(p.PatientType), p.ConsultingDoctor,
		p.MedicalHistory, p.CurrentSymptoms, p.Allergies, p.InsuranceProvider, p.InsurancePolicyNumber,
		p.Photo, p.RoomOrWardNumber, p.Nationality, p.Occupation, p.HospitalID, p.DoctorID,
		p.PasswordHash,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, db.ConstraintName(err))
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, patientID string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE patient_id = $1`, patientID))
}

// where renders the scope as a WHERE clause with positional arguments.
func where(scope Scope) (string, []any) {
	var conds []string
	var args []any
	if scope.HospitalID != "" {
		args = append(args, scope.HospitalID)
		conds = append(conds, fmt.Sprintf("hospital_id = $%d", len(args)))
	}
	if scope.DoctorID != "" {
		args = append(args, scope.DoctorID)
		conds = append(conds, fmt.Sprintf("doctor_id = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *repoPG) List(ctx context.Context, scope Scope, page pagination.Params) ([]*Patient, int, error) {
	clause, args := where(scope)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM patients%s ORDER BY created_at DESC, patient_id LIMIT $%d OFFSET $%d`,
		patientColumns, clause, n+1, n+2)
	patients, err := r.query(ctx, query, args...)
	return patients, total, err
}

func (r *repoPG) ListAll(ctx context.Context, scope Scope) ([]*Patient, error) {
	clause, args := where(scope)
	return r.query(ctx, `SELECT `+patientColumns+` FROM patients`+clause+` ORDER BY created_at DESC, patient_id`, args...)
}

func (r *repoPG) query(ctx context.Context, query string, args ...any) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patients SET
			full_name = $2, gender = $3, date_of_birth = $4, age = $5, phone_number = $6,
			email_address = $7, address = $8, blood_group = $9, emergency_contact_name = $10,
			emergency_contact_number = $11, marital_status = $12, admission_date = $13,
			discharge_date = $14, patient_type = $15, consulting_doctor = $16,
			medical_history = $17, current_symptoms = $18, allergies = $19,
			insurance_provider = $20, insurance_policy_number = $21, photo = $22,
			room_or_ward_number = $23, nationality = $24, occupation = $25, doctor_id = $26,
			updated_at = NOW()
		WHERE patient_id = $1
		RETURNING updated_at`,
		p.PatientID, p.FullName, p.Gender, p.DateOfBirth.Time(), p.Age, p.PhoneNumber,
		p.EmailAddress, p.Address, p.BloodGroup, p.EmergencyContactName,
		p.EmergencyContactNumber, p.MaritalStatus, p.AdmissionDate.Time(),
		p.DischargeDate.TimePtr(), string(p.PatientType), p.ConsultingDoctor,
		p.MedicalHistory, p.CurrentSymptoms, p.Allergies,
		p.InsuranceProvider, p.InsurancePolicyNumber, p.Photo,
		p.RoomOrWardNumber, p.Nationality, p.Occupation, p.DoctorID,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, patientID string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE patient_id = $1`, patientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Exists(ctx context.Context, patientID string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE patient_id = $1)`, patientID).Scan(&ok)
	return ok, err
}

func (r *repoPG) EmailExists(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE email = $1)`, email).Scan(&ok)
	return ok, err
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var dob, admitted time.Time
	var discharged *time.Time
	var patientType string
	err := row.Scan(&p.PatientID, &p.FullName, &p.Email, &p.Gender, &dob, &p.Age, &p.PhoneNumber,
		&p.EmailAddress, &p.Address, &p.BloodGroup, &p.EmergencyContactName, &p.EmergencyContactNumber,
		&p.MaritalStatus, &admitted, &discharged, &patientType, &p.ConsultingDoctor,
		&p.MedicalHistory, &p.CurrentSymptoms, &p.Allergies, &p.InsuranceProvider, &p.InsurancePolicyNumber,
		&p.Photo, &p.RoomOrWardNumber, &p.Nationality, &p.Occupation, &p.HospitalID, &p.DoctorID,
		&p.PasswordHash, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.DateOfBirth = civil.FromTime(dob)
	p.AdmissionDate = civil.FromTime(admitted)
	p.DischargeDate = civil.FromTimePtr(discharged)
	p.PatientType = Type(patientType)
	return &p, nil
}
