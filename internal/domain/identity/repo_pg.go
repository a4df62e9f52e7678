package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
)

const userColumns = `internal_id, public_id, name, email, password_hash, role, created_at`

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	if u.InternalID == uuid.Nil {
		u.InternalID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO identities (internal_id, public_id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		u.InternalID, u.PublicID, u.Name, u.Email, u.PasswordHash, string(u.Role),
	).Scan(&u.CreatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, db.ConstraintName(err))
	}
	return err
}

func (r *repoPG) GetByInternalID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM identities WHERE internal_id = $1`, id))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM identities WHERE email = $1`, email))
}

func (r *repoPG) GetByPublicID(ctx context.Context, publicID string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM identities WHERE public_id = $1`, publicID))
}

func (r *repoPG) EmailExists(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM identities WHERE email = $1)`, email).Scan(&ok)
	return ok, err
}

func (r *repoPG) PublicIDExists(ctx context.Context, publicID string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM identities WHERE public_id = $1)`, publicID).Scan(&ok)
	return ok, err
}

func (r *repoPG) DeleteByPublicID(ctx context.Context, publicID string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM identities WHERE public_id = $1`, publicID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	err := row.Scan(&u.InternalID, &u.PublicID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	return &u, nil
}
