package patient

import (
	"context"
	"errors"
	"strings"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/pkg/pagination"
)

// DoctorVerifier confirms that a doctor belongs to a hospital.
type DoctorVerifier interface {
	VerifyDoctor(ctx context.Context, hospitalID, doctorID string) error
}

type Service struct {
	repo    Repository
	doctors DoctorVerifier
}

func NewService(repo Repository, doctors DoctorVerifier) *Service {
	return &Service{repo: repo, doctors: doctors}
}

// Get returns the patient if it lies within scope. Out-of-scope patients
// are reported as not found.
func (s *Service) Get(ctx context.Context, scope Scope, patientID string) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, patientID)
	if errors.Is(err, ErrNotFound) || (err == nil && !scope.Allows(p)) {
		return nil, apperr.NotFound("Patient not found")
	}
	if err != nil {
		return nil, apperr.Internal("Internal server error", err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, scope Scope, page pagination.Params) ([]*Patient, int, error) {
	patients, total, err := s.repo.List(ctx, scope, page)
	if err != nil {
		return nil, 0, apperr.Internal("Internal server error", err)
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return patients, total, nil
}

func (s *Service) Update(ctx context.Context, scope Scope, patientID string, patch Patch) (*Patient, error) {
	p, err := s.Get(ctx, scope, patientID)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(p); err != nil {
		return nil, err
	}
	if patch.DoctorID != nil {
		if err := s.reassign(ctx, scope, p, strings.TrimSpace(*patch.DoctorID)); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("Patient not found")
		}
		return nil, apperr.Internal("Internal server error", err)
	}
	return p, nil
}

// reassign moves p to doctorID. Only a hospital may do this, and only to
// one of its own doctors.
func (s *Service) reassign(ctx context.Context, scope Scope, p *Patient, doctorID string) error {
	if doctorID == p.DoctorID {
		return nil
	}
	if scope.DoctorID != "" || scope.HospitalID == "" {
		return apperr.Forbidden("Only the hospital can reassign a patient's doctor")
	}
	if doctorID == "" {
		return apperr.Validation("doctorId cannot be empty")
	}
	if err := s.doctors.VerifyDoctor(ctx, scope.HospitalID, doctorID); err != nil {
		return err
	}
	p.DoctorID = doctorID
	return nil
}
