package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 365 * 24 * time.Hour

var (
	ErrMissingToken = errors.New("no token, authorization denied")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the signed token payload.
type Claims struct {
	jwt.RegisteredClaims
	InternalID string `json:"internalId"`
	PublicID   string `json:"publicId"`
	Role       Role   `json:"role"`
	Email      string `json:"email"`
}

// Principal converts the claims into the request-scoped caller value.
func (c *Claims) Principal() Principal {
	return Principal{
		InternalID: c.InternalID,
		PublicID:   c.PublicID,
		Role:       c.Role,
		Email:      c.Email,
	}
}

type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// TokenService issues and verifies HS256 bearer tokens. It holds the process
// signing secret and is safe for concurrent use.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("token signing secret is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &TokenService{secret: secret, issuer: cfg.Issuer, ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source used for issuing and validating.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for p.
func (s *TokenService) Issue(p Principal) (string, error) {
	if p.InternalID == "" || !p.Role.Valid() {
		return "", fmt.Errorf("issue token: incomplete principal")
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.InternalID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		InternalID: p.InternalID,
		PublicID:   p.PublicID,
		Role:       p.Role,
		Email:      p.Email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates tokenStr. Every failure (bad signature,
// expiry, wrong method, malformed payload) is reported as ErrInvalidToken
// wrapping the parser's reason.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.InternalID == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: invalid token structure", ErrInvalidToken)
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value. The
// scheme must be exactly "Bearer ". Anything else, or an empty token,
// yields ErrMissingToken.
func BearerToken(header string) (string, error) {
	rest, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(rest)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
