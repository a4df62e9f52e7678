package apilog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, e *Entry) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO api_logs (id, method, endpoint, request_body, user_id, status, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Method, e.Endpoint, []byte(e.RequestBody), e.UserID, e.Status, e.RequestID, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert api log: %w", err)
	}
	return nil
}
