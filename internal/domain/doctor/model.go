package doctor

import (
	"strings"
	"time"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/pkg/civil"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type Doctor struct {
	DoctorID            string      `json:"doctorId"`
	FullName            string      `json:"fullName"`
	Email               string      `json:"email"`
	Gender              string      `json:"gender,omitempty"`
	DOB                 *civil.Date `json:"dob,omitempty"`
	Phone               string      `json:"phone,omitempty"`
	Photo               string      `json:"photo,omitempty"`
	Specialization      string      `json:"specialization,omitempty"`
	Qualification       string      `json:"qualification,omitempty"`
	Experience          *int        `json:"experience,omitempty"`
	LicenseNumber       string      `json:"licenseNumber,omitempty"`
	Department          string      `json:"department,omitempty"`
	ConsultationFee     *float64    `json:"consultationFee,omitempty"`
	AvailableDays       []string    `json:"availableDays"`
	WorkingHours        string      `json:"workingHours,omitempty"`
	AppointmentDuration *int        `json:"appointmentDuration,omitempty"`
	Address             string      `json:"address,omitempty"`
	City                string      `json:"city,omitempty"`
	State               string      `json:"state,omitempty"`
	Country             string      `json:"country,omitempty"`
	PostalCode          string      `json:"postalCode,omitempty"`
	HospitalID          string      `json:"hospitalId"`
	Status              Status      `json:"status"`
	PasswordHash        string      `json:"-"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

// Light is the projection used to populate doctor pickers.
type Light struct {
	DoctorID string `json:"doctorId"`
	FullName string `json:"fullName"`
}

// Registration is the POST /add body.
type Registration struct {
	Doctor
	Password string `json:"password"`
}

func (r *Registration) Complete() bool {
	return strings.TrimSpace(r.FullName) != "" && strings.TrimSpace(r.Email) != "" && r.Password != ""
}

// Patch is a partial update. doctorId, email, hospitalId and password are
// not patchable.
type Patch struct {
	FullName            *string     `json:"fullName"`
	Gender              *string     `json:"gender"`
	DOB                 *civil.Date `json:"dob"`
	Phone               *string     `json:"phone"`
	Photo               *string     `json:"photo"`
	Specialization      *string     `json:"specialization"`
	Qualification       *string     `json:"qualification"`
	Experience          *int        `json:"experience"`
	LicenseNumber       *string     `json:"licenseNumber"`
	Department          *string     `json:"department"`
	ConsultationFee     *float64    `json:"consultationFee"`
	AvailableDays       *[]string   `json:"availableDays"`
	WorkingHours        *string     `json:"workingHours"`
	AppointmentDuration *int        `json:"appointmentDuration"`
	Address             *string     `json:"address"`
	City                *string     `json:"city"`
	State               *string     `json:"state"`
	Country             *string     `json:"country"`
	PostalCode          *string     `json:"postalCode"`
	Status              *Status     `json:"status"`
}

func (p Patch) Apply(d *Doctor) error {
	if p.FullName != nil && strings.TrimSpace(*p.FullName) == "" {
		return apperr.Validation("fullName cannot be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperr.Validation("Invalid status: %s", *p.Status)
	}
	if p.Experience != nil && *p.Experience < 0 {
		return apperr.Validation("experience cannot be negative")
	}
	if p.ConsultationFee != nil && *p.ConsultationFee < 0 {
		return apperr.Validation("consultationFee cannot be negative")
	}

	setString(&d.FullName, p.FullName)
	setString(&d.Gender, p.Gender)
	setString(&d.Phone, p.Phone)
	setString(&d.Photo, p.Photo)
	setString(&d.Specialization, p.Specialization)
	setString(&d.Qualification, p.Qualification)
	setString(&d.LicenseNumber, p.LicenseNumber)
	setString(&d.Department, p.Department)
	setString(&d.WorkingHours, p.WorkingHours)
	setString(&d.Address, p.Address)
	setString(&d.City, p.City)
	setString(&d.State, p.State)
	setString(&d.Country, p.Country)
	setString(&d.PostalCode, p.PostalCode)
	if p.DOB != nil {
		d.DOB = p.DOB
	}
	if p.Experience != nil {
		d.Experience = p.Experience
	}
	if p.ConsultationFee != nil {
		d.ConsultationFee = p.ConsultationFee
	}
	if p.AvailableDays != nil {
		d.AvailableDays = *p.AvailableDays
	}
	if p.AppointmentDuration != nil {
		d.AppointmentDuration = p.AppointmentDuration
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
