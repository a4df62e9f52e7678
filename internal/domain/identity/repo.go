package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("identity not found")
	ErrDuplicate = errors.New("identity already exists")
)

// Repository stores identities. Create returns ErrDuplicate when the email
// or public id is taken; lookups and deletes return ErrNotFound.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByInternalID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPublicID(ctx context.Context, publicID string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	PublicIDExists(ctx context.Context, publicID string) (bool, error)
	DeleteByPublicID(ctx context.Context, publicID string) error
}
