package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

// User is the login identity shared by every role. Role profiles link to it
// through PublicID.
type User struct {
	InternalID   uuid.UUID `json:"internalId"`
	PublicID     string    `json:"publicId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Principal returns the token subject for u.
func (u *User) Principal() auth.Principal {
	return auth.Principal{
		InternalID: u.InternalID.String(),
		PublicID:   u.PublicID,
		Role:       u.Role,
		Email:      u.Email,
	}
}

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
