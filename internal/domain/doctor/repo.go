package doctor

import (
	"context"
	"errors"

	"github.com/hms/hms/pkg/pagination"
)

var (
	ErrNotFound  = errors.New("doctor not found")
	ErrDuplicate = errors.New("doctor already exists")
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, doctorID string) (*Doctor, error)
	// List returns one page of a hospital's doctors, newest first, and the
	// hospital's total doctor count.
	List(ctx context.Context, hospitalID string, p pagination.Params) ([]*Doctor, int, error)
	ListLight(ctx context.Context, hospitalID string) ([]Light, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, doctorID string) error
	// DeleteByHospital removes every doctor of a hospital and reports how
	// many were removed.
	DeleteByHospital(ctx context.Context, hospitalID string) (int, error)
	Exists(ctx context.Context, doctorID string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// LicenseExists ignores the doctor named by exceptDoctorID.
	LicenseExists(ctx context.Context, license, exceptDoctorID string) (bool, error)
}
