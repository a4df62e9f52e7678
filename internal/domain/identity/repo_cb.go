package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/cbstore"
)

const (
	docKind    = "identity"
	emailKind  = "identity-email"
	publicKind = "identity-public"
)

// userDoc is the stored form of a User. The hash is hidden from the API
// encoding, so it is carried in its own field here.
type userDoc struct {
	Type string `json:"type"`
	User
	PasswordHash string `json:"passwordHash"`
}

func (d *userDoc) user() *User {
	u := d.User
	u.PasswordHash = d.PasswordHash
	return &u
}

// keyDoc reserves an email or public id. Inserting it fails when the value
// is already taken, which gives uniqueness without a query.
type keyDoc struct {
	Type       string `json:"type"`
	InternalID string `json:"internalId"`
}

type repoCB struct {
	store *cbstore.Store
}

func NewRepoCB(store *cbstore.Store) Repository {
	return &repoCB{store: store}
}

func (r *repoCB) Create(ctx context.Context, u *User) error {
	if u.InternalID == uuid.Nil {
		u.InternalID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	id := u.InternalID.String()
	emailKey := cbstore.DocID(emailKind, u.Email)
	publicKey := cbstore.DocID(publicKind, u.PublicID)

	if err := r.store.Insert(ctx, emailKey, keyDoc{Type: emailKind, InternalID: id}); err != nil {
		return duplicate(err)
	}
	if err := r.store.Insert(ctx, publicKey, keyDoc{Type: publicKind, InternalID: id}); err != nil {
		r.release(ctx, emailKey)
		return duplicate(err)
	}
	doc := userDoc{Type: docKind, User: *u, PasswordHash: u.PasswordHash}
	if err := r.store.Insert(ctx, cbstore.DocID(docKind, id), doc); err != nil {
		r.release(ctx, emailKey, publicKey)
		return duplicate(err)
	}
	return nil
}

// release undoes reservations after a failed Create. Inside a transaction
// the rollback takes care of it.
func (r *repoCB) release(ctx context.Context, keys ...string) {
	if cbstore.AttemptFromContext(ctx) != nil {
		return
	}
	for _, k := range keys {
		_ = r.store.Remove(ctx, k)
	}
}

func (r *repoCB) GetByInternalID(ctx context.Context, id uuid.UUID) (*User, error) {
	var doc userDoc
	if err := r.store.Get(ctx, cbstore.DocID(docKind, id.String()), &doc); err != nil {
		return nil, notFound(err)
	}
	return doc.user(), nil
}

func (r *repoCB) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.resolve(ctx, cbstore.DocID(emailKind, email))
}

func (r *repoCB) GetByPublicID(ctx context.Context, publicID string) (*User, error) {
	return r.resolve(ctx, cbstore.DocID(publicKind, publicID))
}

func (r *repoCB) resolve(ctx context.Context, key string) (*User, error) {
	var k keyDoc
	if err := r.store.Get(ctx, key, &k); err != nil {
		return nil, notFound(err)
	}
	id, err := uuid.Parse(k.InternalID)
	if err != nil {
		return nil, fmt.Errorf("corrupt key document %s: %w", key, err)
	}
	return r.GetByInternalID(ctx, id)
}

func (r *repoCB) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, cbstore.DocID(emailKind, email))
}

func (r *repoCB) PublicIDExists(ctx context.Context, publicID string) (bool, error) {
	return r.exists(ctx, cbstore.DocID(publicKind, publicID))
}

func (r *repoCB) exists(ctx context.Context, key string) (bool, error) {
	var k keyDoc
	err := r.store.Get(ctx, key, &k)
	if errors.Is(err, cbstore.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *repoCB) DeleteByPublicID(ctx context.Context, publicID string) error {
	u, err := r.GetByPublicID(ctx, publicID)
	if err != nil {
		return err
	}
	for _, key := range []string{
		cbstore.DocID(docKind, u.InternalID.String()),
		cbstore.DocID(publicKind, u.PublicID),
		cbstore.DocID(emailKind, u.Email),
	} {
		if err := r.store.Remove(ctx, key); err != nil && !errors.Is(err, cbstore.ErrNotFound) {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	return nil
}

func duplicate(err error) error {
	if errors.Is(err, cbstore.ErrExists) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, cbstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
