package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/credential"
	"github.com/hms/hms/internal/platform/idgen"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the body of a successful register or login.
type AuthResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

type Service struct {
	users  Repository
	hasher *credential.Hasher
	tokens *auth.TokenService
	ids    *idgen.Generator
	now    func() time.Time
}

func NewService(users Repository, hasher *credential.Hasher, tokens *auth.TokenService, ids *idgen.Generator) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens, ids: ids, now: time.Now}
}

// Register creates a standalone identity and returns a token for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	u, err := s.create(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.authResult("User registered successfully", u)
}

// CreateAdmin provisions an admin identity without issuing a token.
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (*User, error) {
	return s.create(ctx, RegisterRequest{Name: name, Email: email, Password: password, Role: string(auth.RoleAdmin)})
}

func (s *Service) create(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = NormalizeEmail(req.Email)
	for _, f := range []struct{ name, value string }{
		{"name", req.Name},
		{"email", req.Email},
		{"password", req.Password},
		{"role", req.Role},
	} {
		if f.value == "" {
			return nil, apperr.Validation("Missing required field: %s", f.name)
		}
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return nil, apperr.Validation("Invalid role: %s", req.Role)
	}

	taken, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	if taken {
		return nil, apperr.Validation("User already exists")
	}

	publicID, err := s.ids.Allocate(ctx, idgen.Plain, req.Name, s.now(), s.users.PublicIDExists)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}

	u := &User{
		InternalID:   uuid.New(),
		PublicID:     publicID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperr.Validation("User already exists")
		}
		return nil, apperr.Internal("Server error", err)
	}
	return u, nil
}

// Login checks the credentials and issues a fresh token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperr.Validation("Email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Validation("Invalid Email")
	}
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	if !s.hasher.Verify(req.Password, u.PasswordHash) {
		return nil, apperr.Validation("Invalid Password")
	}
	return s.authResult("Login successful", u)
}

func (s *Service) authResult(message string, u *User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.Principal())
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	return &AuthResult{Message: message, Token: token, User: u}, nil
}

// Me returns the stored identity for the caller's internal id.
func (s *Service) Me(ctx context.Context, internalID string) (*User, error) {
	id, err := uuid.Parse(internalID)
	if err != nil {
		return nil, apperr.NotFound("User not found")
	}
	u, err := s.users.GetByInternalID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	return u, nil
}

// LookupIdentity implements auth.IdentityLookup.
func (s *Service) LookupIdentity(ctx context.Context, internalID string) (auth.Principal, error) {
	u, err := s.Me(ctx, internalID)
	if err != nil {
		return auth.Principal{}, err
	}
	return u.Principal(), nil
}
