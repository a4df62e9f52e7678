package hospital

import (
	"context"
	"errors"

	"github.com/hms/hms/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, hospitalID string) (*Hospital, error) {
	h, err := s.repo.GetByID(ctx, hospitalID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("Hospital not found")
	}
	if err != nil {
		return nil, apperr.Internal("Internal server error", err)
	}
	return h, nil
}

func (s *Service) List(ctx context.Context) ([]*Hospital, error) {
	hospitals, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Internal server error", err)
	}
	if hospitals == nil {
		hospitals = []*Hospital{}
	}
	return hospitals, nil
}

func (s *Service) Update(ctx context.Context, hospitalID string, patch Patch) (*Hospital, error) {
	h, err := s.Get(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(h); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, h); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("Hospital not found")
		}
		return nil, apperr.Internal("Internal server error", err)
	}
	return h, nil
}
