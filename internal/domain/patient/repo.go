package patient

import (
	"context"
	"errors"

	"github.com/hms/hms/pkg/pagination"
)

var (
	ErrNotFound  = errors.New("patient not found")
	ErrDuplicate = errors.New("patient already exists")
)

// Repository stores patient profiles. List and ListAll filter by the
// non-empty fields of the scope and return newest first.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, patientID string) (*Patient, error)
	List(ctx context.Context, scope Scope, page pagination.Params) ([]*Patient, int, error)
	ListAll(ctx context.Context, scope Scope) ([]*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, patientID string) error
	Exists(ctx context.Context, patientID string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}
