package doctor

import (
	"context"
	"errors"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/pkg/pagination"
)

// Service serves hospital-scoped doctor reads and updates. A doctor of
// another hospital is reported as not found.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, hospitalID, doctorID string) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, doctorID)
	if errors.Is(err, ErrNotFound) || (err == nil && d.HospitalID != hospitalID) {
		return nil, apperr.NotFound("Doctor not found")
	}
	if err != nil {
		return nil, apperr.Internal("Internal server error", err)
	}
	return d, nil
}

// VerifyDoctor reports a NotFound error unless doctorID is a doctor of
// hospitalID.
func (s *Service) VerifyDoctor(ctx context.Context, hospitalID, doctorID string) error {
	_, err := s.Get(ctx, hospitalID, doctorID)
	return err
}

func (s *Service) List(ctx context.Context, hospitalID string, p pagination.Params) ([]*Doctor, int, error) {
	doctors, total, err := s.repo.List(ctx, hospitalID, p)
	if err != nil {
		return nil, 0, apperr.Internal("Internal server error", err)
	}
	if doctors == nil {
		doctors = []*Doctor{}
	}
	return doctors, total, nil
}

func (s *Service) ListLight(ctx context.Context, hospitalID string) ([]Light, error) {
	light, err := s.repo.ListLight(ctx, hospitalID)
	if err != nil {
		return nil, apperr.Internal("Internal server error", err)
	}
	if light == nil {
		light = []Light{}
	}
	return light, nil
}

func (s *Service) Update(ctx context.Context, hospitalID, doctorID string, patch Patch) (*Doctor, error) {
	d, err := s.Get(ctx, hospitalID, doctorID)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(d); err != nil {
		return nil, err
	}
	if patch.LicenseNumber != nil && d.LicenseNumber != "" {
		taken, err := s.repo.LicenseExists(ctx, d.LicenseNumber, d.DoctorID)
		if err != nil {
			return nil, apperr.Internal("Internal server error", err)
		}
		if taken {
			return nil, apperr.Validation("License number is already in use.")
		}
	}
	if err := s.repo.Update(ctx, d); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, apperr.NotFound("Doctor not found")
		case errors.Is(err, ErrDuplicate):
			return nil, apperr.Validation("License number is already in use.")
		}
		return nil, apperr.Internal("Internal server error", err)
	}
	return d, nil
}
