package patient

import (
	"strings"
	"time"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/civil"
)

type Type string

const (
	TypeInpatient  Type = "Inpatient"
	TypeOutpatient Type = "Outpatient"
)

func (t Type) Valid() bool {
	return t == TypeInpatient || t == TypeOutpatient
}

type Patient struct {
	PatientID              string      `json:"patientId"`
	FullName               string      `json:"fullName"`
	Email                  string      `json:"email"`
	Gender                 string      `json:"gender"`
	DateOfBirth            civil.Date  `json:"dateOfBirth"`
	Age                    *int        `json:"age"`
	PhoneNumber            string      `json:"phoneNumber"`
	EmailAddress           string      `json:"emailAddress,omitempty"`
	Address                string      `json:"address,omitempty"`
	BloodGroup             string      `json:"bloodGroup,omitempty"`
	EmergencyContactName   string      `json:"emergencyContactName,omitempty"`
	EmergencyContactNumber string      `json:"emergencyContactNumber,omitempty"`
	MaritalStatus          string      `json:"maritalStatus,omitempty"`
	AdmissionDate          civil.Date  `json:"admissionDate"`
	DischargeDate          *civil.Date `json:"dischargeDate,omitempty"`
	PatientType            Type        `json:"patientType"`
	ConsultingDoctor       string      `json:"consultingDoctor,omitempty"`
	MedicalHistory         string      `json:"medicalHistory,omitempty"`
	CurrentSymptoms        string      `json:"currentSymptoms,omitempty"`
	Allergies              string      `json:"allergies,omitempty"`
	InsuranceProvider      string      `json:"insuranceProvider,omitempty"`
	InsurancePolicyNumber  string      `json:"insurancePolicyNumber,omitempty"`
	Photo                  string      `json:"photo,omitempty"`
	RoomOrWardNumber       string      `json:"roomOrWardNumber,omitempty"`
	Nationality            string      `json:"nationality,omitempty"`
	Occupation             string      `json:"occupation,omitempty"`
	HospitalID             string      `json:"hospitalId"`
	DoctorID               string      `json:"doctorId"`
	PasswordHash           string      `json:"-"`
	CreatedAt              time.Time   `json:"createdAt"`
	UpdatedAt              time.Time   `json:"updatedAt"`
}

// Registration is the POST /add body.
type Registration struct {
	Patient
	Password string `json:"password"`
}

// Missing returns the first required registration field that is absent.
// An age of zero counts as present.
func (r *Registration) Missing() string {
	checks := []struct {
		name    string
		present bool
	}{
		{"fullName", strings.TrimSpace(r.FullName) != ""},
		{"email", strings.TrimSpace(r.Email) != ""},
		{"password", r.Password != ""},
		{"dateOfBirth", !r.DateOfBirth.IsZero()},
		{"admissionDate", !r.AdmissionDate.IsZero()},
		{"phoneNumber", strings.TrimSpace(r.PhoneNumber) != ""},
		{"gender", strings.TrimSpace(r.Gender) != ""},
		{"age", r.Age != nil},
		{"patientType", r.PatientType != ""},
	}
	for _, c := range checks {
		if !c.present {
			return c.name
		}
	}
	return ""
}

// Validate checks field values once all required fields are present.
func (p *Patient) Validate() error {
	if !p.PatientType.Valid() {
		return apperr.Validation("Invalid patientType: must be Inpatient or Outpatient")
	}
	if p.Age != nil && *p.Age < 0 {
		return apperr.Validation("age cannot be negative")
	}
	if p.DischargeDate != nil && !p.DischargeDate.IsZero() && p.DischargeDate.Time().Before(p.AdmissionDate.Time()) {
		return apperr.Validation("dischargeDate cannot be before admissionDate")
	}
	return nil
}

// Scope limits which patients a caller can see. Empty fields do not
// constrain.
type Scope struct {
	HospitalID string
	DoctorID   string
}

// ScopeFor derives the caller's scope: a doctor sees its own patients, a
// hospital sees every patient it admitted.
func ScopeFor(p auth.Principal) (Scope, error) {
	switch p.Role {
	case auth.RoleDoctor:
		return Scope{DoctorID: p.PublicID}, nil
	case auth.RoleHospital:
		return Scope{HospitalID: p.PublicID}, nil
	}
	return Scope{}, apperr.Forbidden("Unauthorized role")
}

func (s Scope) Allows(p *Patient) bool {
	return (s.HospitalID == "" || p.HospitalID == s.HospitalID) &&
		(s.DoctorID == "" || p.DoctorID == s.DoctorID)
}

// Patch is a partial update. patientId, email, hospitalId and password are
// not patchable. DoctorID may only be changed by a hospital.
type Patch struct {
	FullName               *string     `json:"fullName"`
	Gender                 *string     `json:"gender"`
	DateOfBirth            *civil.Date `json:"dateOfBirth"`
	Age                    *int        `json:"age"`
	PhoneNumber            *string     `json:"phoneNumber"`
	EmailAddress           *string     `json:"emailAddress"`
	Address                *string     `json:"address"`
	BloodGroup             *string     `json:"bloodGroup"`
	EmergencyContactName   *string     `json:"emergencyContactName"`
	EmergencyContactNumber *string     `json:"emergencyContactNumber"`
	MaritalStatus          *string     `json:"maritalStatus"`
	AdmissionDate          *civil.Date `json:"admissionDate"`
	DischargeDate          *civil.Date `json:"dischargeDate"`
	PatientType            *Type       `json:"patientType"`
	ConsultingDoctor       *string     `json:"consultingDoctor"`
	MedicalHistory         *string     `json:"medicalHistory"`
	CurrentSymptoms        *string     `json:"currentSymptoms"`
	Allergies              *string     `json:"allergies"`
	InsuranceProvider      *string     `json:"insuranceProvider"`
	InsurancePolicyNumber  *string     `json:"insurancePolicyNumber"`
	Photo                  *string     `json:"photo"`
	RoomOrWardNumber       *string     `json:"roomOrWardNumber"`
	Nationality            *string     `json:"nationality"`
	Occupation             *string     `json:"occupation"`
	DoctorID               *string     `json:"doctorId"`
}

// Apply updates p with the set fields, leaving p untouched when the result
// does not validate. DoctorID is left to the caller.
func (pt Patch) Apply(p *Patient) error {
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"fullName", pt.FullName},
		{"gender", pt.Gender},
		{"phoneNumber", pt.PhoneNumber},
	} {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return apperr.Validation("%s cannot be empty", f.name)
		}
	}
	if pt.DateOfBirth != nil && pt.DateOfBirth.IsZero() {
		return apperr.Validation("dateOfBirth cannot be empty")
	}
	if pt.AdmissionDate != nil && pt.AdmissionDate.IsZero() {
		return apperr.Validation("admissionDate cannot be empty")
	}

	next := *p
	set(&next.FullName, pt.FullName)
	set(&next.Gender, pt.Gender)
	set(&next.PhoneNumber, pt.PhoneNumber)
	set(&next.EmailAddress, pt.EmailAddress)
	set(&next.Address, pt.Address)
	set(&next.BloodGroup, pt.BloodGroup)
	set(&next.EmergencyContactName, pt.EmergencyContactName)
	set(&next.EmergencyContactNumber, pt.EmergencyContactNumber)
	set(&next.MaritalStatus, pt.MaritalStatus)
	set(&next.ConsultingDoctor, pt.ConsultingDoctor)
	set(&next.MedicalHistory, pt.MedicalHistory)
	set(&next.CurrentSymptoms, pt.CurrentSymptoms)
	set(&next.Allergies, pt.Allergies)
	set(&next.InsuranceProvider, pt.InsuranceProvider)
	set(&next.InsurancePolicyNumber, pt.InsurancePolicyNumber)
	set(&next.Photo, pt.Photo)
	set(&next.RoomOrWardNumber, pt.RoomOrWardNumber)
	set(&next.Nationality, pt.Nationality)
	set(&next.Occupation, pt.Occupation)
	if pt.DateOfBirth != nil {
		next.DateOfBirth = *pt.DateOfBirth
	}
	if pt.AdmissionDate != nil {
		next.AdmissionDate = *pt.AdmissionDate
	}
	if pt.DischargeDate != nil {
		if pt.DischargeDate.IsZero() {
			next.DischargeDate = nil
		} else {
			next.DischargeDate = pt.DischargeDate
		}
	}
	if pt.Age != nil {
		next.Age = pt.Age
	}
	if pt.PatientType != nil {
		next.PatientType = *pt.PatientType
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
