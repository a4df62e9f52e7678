package hospital

import (
	"strings"
	"time"

	"github.com/hms/hms/internal/platform/apperr"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type Hospital struct {
	HospitalID      string    `json:"hospitalId"`
	HospitalName    string    `json:"hospitalName"`
	Email           string    `json:"email"`
	ContactNumber   string    `json:"contactNumber"`
	Address         string    `json:"address"`
	HospitalType    string    `json:"hospitalType"`
	EstablishedYear *int      `json:"establishedYear,omitempty"`
	Image           string    `json:"image,omitempty"`
	Status          Status    `json:"status"`
	PasswordHash    string    `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Registration is the POST /add body: the profile plus the initial password.
type Registration struct {
	Hospital
	Password string `json:"password"`
}

// Missing returns the first required registration field left empty.
func (r *Registration) Missing() string {
	for _, f := range []struct{ name, value string }{
		{"hospitalName", r.HospitalName},
		{"email", r.Email},
		{"password", r.Password},
		{"contactNumber", r.ContactNumber},
		{"address", r.Address},
		{"hospitalType", r.HospitalType},
	} {
		if strings.TrimSpace(f.value) == "" {
			return f.name
		}
	}
	return ""
}

// Patch is a partial update. The id, email, role and password are not
// patchable; unknown or immutable keys in the body are ignored.
type Patch struct {
	HospitalName    *string `json:"hospitalName"`
	ContactNumber   *string `json:"contactNumber"`
	Address         *string `json:"address"`
	HospitalType    *string `json:"hospitalType"`
	EstablishedYear *int    `json:"establishedYear"`
	Image           *string `json:"image"`
	Status          *Status `json:"status"`
}

// Apply validates p and copies the set fields onto h.
func (p Patch) Apply(h *Hospital) error {
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"hospitalName", p.HospitalName},
		{"contactNumber", p.ContactNumber},
		{"address", p.Address},
		{"hospitalType", p.HospitalType},
	} {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return apperr.Validation("%s cannot be empty", f.name)
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperr.Validation("Invalid status: %s", *p.Status)
	}

	if p.HospitalName != nil {
		h.HospitalName = *p.HospitalName
	}
	if p.ContactNumber != nil {
		h.ContactNumber = *p.ContactNumber
	}
	if p.Address != nil {
		h.Address = *p.Address
	}
	if p.HospitalType != nil {
		h.HospitalType = *p.HospitalType
	}
	if p.EstablishedYear != nil {
		h.EstablishedYear = p.EstablishedYear
	}
	if p.Image != nil {
		h.Image = *p.Image
	}
	if p.Status != nil {
		h.Status = *p.Status
	}
	return nil
}
