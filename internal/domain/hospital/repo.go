package hospital

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("hospital not found")
	ErrDuplicate = errors.New("hospital already exists")
)

type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, hospitalID string) (*Hospital, error)
	// List returns every hospital, newest first.
	List(ctx context.Context) ([]*Hospital, error)
	Update(ctx context.Context, h *Hospital) error
	Delete(ctx context.Context, hospitalID string) error
	Exists(ctx context.Context, hospitalID string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}
