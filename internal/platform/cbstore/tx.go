package cbstore

import (
	"context"
	"fmt"

	"github.com/couchbase/gocb/v2"
)

type attemptKey struct{}

// WithAttempt returns a copy of ctx carrying a transaction attempt.
func WithAttempt(ctx context.Context, tac *gocb.TransactionAttemptContext) context.Context {
	return context.WithValue(ctx, attemptKey{}, tac)
}

// AttemptFromContext returns the running transaction attempt, or nil.
func AttemptFromContext(ctx context.Context) *gocb.TransactionAttemptContext {
	tac, _ := ctx.Value(attemptKey{}).(*gocb.TransactionAttemptContext)
	return tac
}

// WithinTx runs fn inside a distributed ACID transaction. Errors returned by
// fn roll the attempt back and are returned unchanged. Calls nested in a
// running transaction join it.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if AttemptFromContext(ctx) != nil {
		return fn(ctx)
	}

	var fnErr error
	_, err := s.cluster.Transactions().Run(func(tac *gocb.TransactionAttemptContext) error {
		fnErr = fn(WithAttempt(ctx, tac))
		return fnErr
	}, nil)
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("couchbase transaction: %w", err)
	}
	return nil
}
