// Package registry owns the writes that span an identity and a role
// profile: registration of hospitals, doctors and patients and the deletes
// that cascade between them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/domain/hospital"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/credential"
	"github.com/hms/hms/internal/platform/idgen"
)

// Transactor runs fn in one unit of work. Repositories called with the
// context handed to fn join it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Recorder receives registration and deletion outcomes.
type Recorder interface {
	RecordRegistration(role string, err error)
	RecordDeletion(entity string, n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordRegistration(string, error) {}
func (nopRecorder) RecordDeletion(string, int)       {}

type Deps struct {
	Identities identity.Repository
	Hospitals  hospital.Repository
	Doctors    doctor.Repository
	Patients   patient.Repository
	Tx         Transactor
	IDs        *idgen.Generator
	Hasher     *credential.Hasher
	Logger     zerolog.Logger
	Metrics    Recorder
}

type Coordinator struct {
	identities identity.Repository
	hospitals  hospital.Repository
	doctors    doctor.Repository
	patients   patient.Repository
	tx         Transactor
	ids        *idgen.Generator
	hasher     *credential.Hasher
	logger     zerolog.Logger
	metrics    Recorder
	now        func() time.Time
}

func NewCoordinator(d Deps) *Coordinator {
	c := &Coordinator{
		identities: d.Identities,
		hospitals:  d.Hospitals,
		doctors:    d.Doctors,
		patients:   d.Patients,
		tx:         d.Tx,
		ids:        d.IDs,
		hasher:     d.Hasher,
		logger:     d.Logger.With().Str("component", "registry").Logger(),
		metrics:    d.Metrics,
		now:        time.Now,
	}
	if c.metrics == nil {
		c.metrics = nopRecorder{}
	}
	return c
}

var (
	_ hospital.Lifecycle = (*Coordinator)(nil)
	_ doctor.Lifecycle   = (*Coordinator)(nil)
	_ patient.Lifecycle  = (*Coordinator)(nil)
)

// RegisterHospital creates the hospital profile and then its identity. The
// two writes are not transactional: if the identity write fails the profile
// is deleted again.
func (c *Coordinator) RegisterHospital(ctx context.Context, h *hospital.Hospital, password string) (err error) {
	defer func() { c.metrics.RecordRegistration(string(auth.RoleHospital), err) }()

	reg := hospital.Registration{Hospital: *h, Password: password}
	if f := reg.Missing(); f != "" {
		return apperr.Validation("Missing required field: %s", f)
	}
	if h.Status == "" {
		h.Status = hospital.StatusActive
	}
	if !h.Status.Valid() {
		return apperr.Validation("Invalid status: %s", h.Status)
	}
	h.HospitalName = strings.TrimSpace(h.HospitalName)
	h.Email = identity.NormalizeEmail(h.Email)

	taken, err := c.emailTaken(ctx, h.Email, c.hospitals.EmailExists)
	if err != nil {
		return apperr.Internal("Internal server error", err)
	}
	if taken {
		return apperr.Validation("Email already exists")
	}

	id, err := c.ids.Allocate(ctx, idgen.Plain, h.HospitalName, c.now(), c.idTaken(c.hospitals.Exists))
	if err != nil {
		return apperr.Internal("Internal server error", err)
	}
	hash, err := c.hasher.Hash(password)
	if err != nil {
		return apperr.Internal("Internal server error", err)
	}
	h.HospitalID = id
	h.PasswordHash = hash

	if err := c.hospitals.Create(ctx, h); err != nil {
		if errors.Is(err, hospital.ErrDuplicate) {
			return apperr.Validation("Email already exists")
		}
		return apperr.Internal("Internal server error", err)
	}
	u := c.newIdentity(id, h.HospitalName, h.Email, hash, auth.RoleHospital)
	if err := c.identities.Create(ctx, u); err != nil {
		c.compensate(ctx, "hospital", id, c.hospitals.Delete)
		if errors.Is(err, identity.ErrDuplicate) {
			return apperr.Validation("Email already exists")
		}
		return apperr.Internal("Internal server error", err)
	}

	c.logger.Info().Str("hospital_id", id).Msg("hospital registered")
	return nil
}

// RegisterDoctor adds a doctor to the calling hospital. The hospital id is
// taken from the caller, never from the body.
func (c *Coordinator) RegisterDoctor(ctx context.Context, caller auth.Principal, d *doctor.Doctor, password string) (err error) {
	defer func() { c.metrics.RecordRegistration(string(auth.RoleDoctor), err) }()

	reg := doctor.Registration{Doctor: *d, Password: password}
	if !reg.Complete() {
		return apperr.Validation("Full name, email, and password are required.")
	}
	if _, err := c.hospitals.GetByID(ctx, caller.PublicID); err != nil {
		if errors.Is(err, hospital.ErrNotFound) {
			return apperr.NotFound("Hospital not found")
		}
		return apperr.Internal("Internal server error", err)
	}
	if d.Status == "" {
		d.Status = doctor.StatusActive
	}
	if !d.Status.Valid() {
		return apperr.Validation("Invalid status: %s", d.Status)
	}
	d.FullName = strings.TrimSpace(d.FullName)
	d.Email = identity.NormalizeEmail(d.Email)
	d.LicenseNumber = strings.TrimSpace(d.LicenseNumber)

	taken, err := c.emailTaken(ctx, d.Email, c.doctors.EmailExists)
	if err != nil {
		return apperr.Internal("Internal server error", err)
	}
	if taken {
		return apperr.Validation("Email is already in use.")
	}
	if d.LicenseNumber != "" {
		used, err := c.doctors.LicenseExists(ctx, d.LicenseNumber, "")
		if err != nil {
			return apperr.Internal("Internal server error", err)
		}
		if used {
			return apperr.Validation("License number is already in use.")
		}
	}

	id, err := c.ids.Allocate(ctx, idgen.Plain, d.FullName, c.now(), c.idTaken(c.doctors.Exists))
	if err != nil {
		return apperr.Internal("Internal server error", err)
	}
	hash, err := c.hasher.Hash(password)
	if err != nil {
		return apperr.Internal("Internal server error", err)
	}
	d.DoctorID = id
	d.HospitalID = caller.PublicID
	d.PasswordHash = hash

	if err := c.doctors.Create(ctx, d); err != nil {
		if errors.Is(err, doctor.ErrDuplicate) {
			return apperr.Validation("Email is already in use.")
		}
		return apperr.Internal("Internal server error", err)
	}
	u := c.newIdentity(id, d.FullName, d.Email, hash, auth.RoleDoctor)
	if err := c.identities.Create(ctx, u); err != nil {
		c.compensate(ctx, "doctor", id, c.doctors.Delete)
		if errors.Is(err, identity.ErrDuplicate) {
			return apperr.Validation("Email is already in use.")
		}
		return apperr.Internal("Internal server error", err)
	}

	c.logger.Info().Str("doctor_id", id).Str("hospital_id", d.HospitalID).Msg("doctor registered")
	return nil
}

// RegisterPatient writes the patient profile and identity in one
// transaction. A doctor registers patients for itself; a hospital must name
// one of its own doctors.
func (c *Coordinator) RegisterPatient(ctx context.Context, caller auth.Principal, p *patient.Patient, password string) (err error) {
	defer func() { c.metrics.RecordRegistration(string(auth.RolePatient), err) }()

	reg := patient.Registration{Patient: *p, Password: password}
	if f := reg.Missing(); f != "" {
		return apperr.Validation("Missing required field: %s", f)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := c.assignCareTeam(ctx, caller, p); err != nil {
		return err
	}
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = identity.NormalizeEmail(p.Email)

	taken, err := c.emailTaken(ctx, p.Email, c.patients.EmailExists)
	if err != nil {
		return apperr.Internal("Internal server error", err)
	}
	if taken {
		return apperr.Validation("Email already exists")
	}

	id, err := c.ids.Allocate(ctx, idgen.Patient, p.FullName, c.now(), c.idTaken(c.patients.Exists))
	if err != nil {
		return apperr.Internal("Internal server error", err)
	}
	hash, err := c.hasher.Hash(password)
	if err != nil {
		return apperr.Internal("Internal server error", err)
	}
	p.PatientID = id
	p.PasswordHash = hash

	u := c.newIdentity(id, p.FullName, p.Email, hash, auth.RolePatient)
	err = c.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := c.patients.Create(ctx, p); err != nil {
			return fmt.Errorf("create patient: %w", err)
		}
		if err := c.identities.Create(ctx, u); err != nil {
			return fmt.Errorf("create identity: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperr.InternalExposed("Failed to add patient", err)
	}

	c.logger.Info().Str("patient_id", id).Str("doctor_id", p.DoctorID).Msg("patient registered")
	return nil
}

// assignCareTeam sets the patient's hospital and doctor from the caller.
func (c *Coordinator) assignCareTeam(ctx context.Context, caller auth.Principal, p *patient.Patient) error {
	switch caller.Role {
	case auth.RoleDoctor:
		d, err := c.doctor(ctx, caller.PublicID)
		if err != nil {
			return err
		}
		p.DoctorID = d.DoctorID
		p.HospitalID = d.HospitalID
	case auth.RoleHospital:
		p.DoctorID = strings.TrimSpace(p.DoctorID)
		if p.DoctorID == "" {
			return apperr.Validation("Missing required field: doctorId")
		}
		d, err := c.doctor(ctx, p.DoctorID)
		if err != nil {
			return err
		}
		if d.HospitalID != caller.PublicID {
			return apperr.NotFound("Doctor not found")
		}
		p.HospitalID = caller.PublicID
	default:
		return apperr.Forbidden("Unauthorized role")
	}
	return nil
}

func (c *Coordinator) doctor(ctx context.Context, doctorID string) (*doctor.Doctor, error) {
	d, err := c.doctors.GetByID(ctx, doctorID)
	if errors.Is(err, doctor.ErrNotFound) {
		return nil, apperr.NotFound("Doctor not found")
	}
	if err != nil {
		return nil, apperr.Internal("Internal server error", err)
	}
	return d, nil
}

// CascadeDeleteHospital removes the hospital, its identity and all of its
// doctors in one transaction. Doctor identities and patients are kept.
func (c *Coordinator) CascadeDeleteHospital(ctx context.Context, hospitalID string) error {
	var doctors int
	err := c.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := c.hospitals.Delete(ctx, hospitalID); err != nil {
			return err
		}
		if err := c.deleteIdentity(ctx, hospitalID); err != nil {
			return err
		}
		n, err := c.doctors.DeleteByHospital(ctx, hospitalID)
		if err != nil {
			return fmt.Errorf("delete doctors: %w", err)
		}
		doctors = n
		return nil
	})
	if errors.Is(err, hospital.ErrNotFound) {
		return apperr.NotFound("Hospital not found")
	}
	if err != nil {
		return apperr.Internal("Internal server error", err)
	}

	c.metrics.RecordDeletion("hospital", 1)
	c.metrics.RecordDeletion("doctor", doctors)
	c.logger.Info().Str("hospital_id", hospitalID).Int("doctors_removed", doctors).Msg("hospital deleted")
	return nil
}

// CascadeDeleteDoctor removes one of hospitalID's doctors and the doctor's
// identity. Its patients are kept.
func (c *Coordinator) CascadeDeleteDoctor(ctx context.Context, hospitalID, doctorID string) error {
	err := c.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := c.doctors.GetByID(ctx, doctorID)
		if err != nil {
			return err
		}
		if d.HospitalID != hospitalID {
			return doctor.ErrNotFound
		}
		if err := c.doctors.Delete(ctx, doctorID); err != nil {
			return err
		}
		return c.deleteIdentity(ctx, doctorID)
	})
	if errors.Is(err, doctor.ErrNotFound) {
		return apperr.NotFound("Doctor not found")
	}
	if err != nil {
		return apperr.Internal("Internal server error", err)
	}

	c.metrics.RecordDeletion("doctor", 1)
	c.logger.Info().Str("doctor_id", doctorID).Msg("doctor deleted")
	return nil
}

// DeletePatient removes the patient profile only; the identity stays.
func (c *Coordinator) DeletePatient(ctx context.Context, scope patient.Scope, patientID string) error {
	p, err := c.patients.GetByID(ctx, patientID)
	if errors.Is(err, patient.ErrNotFound) || (err == nil && !scope.Allows(p)) {
		return apperr.NotFound("Patient not found")
	}
	if err != nil {
		return apperr.Internal("Internal server error", err)
	}
	if err := c.patients.Delete(ctx, patientID); err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return apperr.NotFound("Patient not found")
		}
		return apperr.Internal("Internal server error", err)
	}

	c.metrics.RecordDeletion("patient", 1)
	return nil
}

// deleteIdentity tolerates an identity that is already gone.
func (c *Coordinator) deleteIdentity(ctx context.Context, publicID string) error {
	err := c.identities.DeleteByPublicID(ctx, publicID)
	if err != nil && !errors.Is(err, identity.ErrNotFound) {
		return fmt.Errorf("delete identity %s: %w", publicID, err)
	}
	return nil
}

func (c *Coordinator) newIdentity(publicID, name, email, hash string, role auth.Role) *identity.User {
	return &identity.User{
		InternalID:   uuid.New(),
		PublicID:     publicID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
}

// emailTaken checks the identity directory and then the profile store.
func (c *Coordinator) emailTaken(ctx context.Context, email string, profile func(context.Context, string) (bool, error)) (bool, error) {
	if used, err := c.identities.EmailExists(ctx, email); err != nil || used {
		return used, err
	}
	return profile(ctx, email)
}

// idTaken treats an id as used when either the identity directory or the
// profile store has it.
func (c *Coordinator) idTaken(profile func(context.Context, string) (bool, error)) idgen.Taken {
	return func(ctx context.Context, id string) (bool, error) {
		if used, err := c.identities.PublicIDExists(ctx, id); err != nil || used {
			return used, err
		}
		return profile(ctx, id)
	}
}

// compensate undoes a profile write after its identity write failed. It
// runs even when the request context is already cancelled.
func (c *Coordinator) compensate(ctx context.Context, kind, id string, undo func(context.Context, string) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := undo(ctx, id); err != nil {
		c.logger.Error().Err(err).Str("kind", kind).Str("id", id).Msg("failed to roll back profile after identity write failed")
	}
}
