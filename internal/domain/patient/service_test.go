package patient

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/pkg/civil"
	"github.com/hms/hms/pkg/pagination"
)

// -- Mock Patient Repository --

type mockPatientRepo struct {
	patients map[string]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[string]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.PatientID]; ok {
		return ErrDuplicate
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.patients[p.PatientID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id string) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) ListAll(_ context.Context, scope Scope) ([]*Patient, error) {
	var out []*Patient
	for _, p := range m.patients {
		if scope.Allows(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockPatientRepo) List(ctx context.Context, scope Scope, page pagination.Params) ([]*Patient, int, error) {
	all, _ := m.ListAll(ctx, scope)
	start, end := page.Window(len(all))
	return all[start:end], len(all), nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.PatientID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now()
	cp := *p
	m.patients[p.PatientID] = &cp
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.patients[id]; !ok {
		return ErrNotFound
	}
	delete(m.patients, id)
	return nil
}

func (m *mockPatientRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.patients[id]
	return ok, nil
}

func (m *mockPatientRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, p := range m.patients {
		if p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// stubDoctors maps doctor id to hospital id.
type stubDoctors map[string]string

func (s stubDoctors) VerifyDoctor(_ context.Context, hospitalID, doctorID string) error {
	if s[doctorID] != hospitalID {
		return apperr.NotFound("Doctor not found")
	}
	return nil
}

var baseTime = time.Date(2025, time.March, 19, 8, 0, 0, 0, time.UTC)

func intPtr(n int) *int { return &n }

func seedPatient(m *mockPatientRepo, id, hospitalID, doctorID string, offset time.Duration) *Patient {
	p := &Patient{
		PatientID:     id,
		FullName:      "Patient " + id,
		Email:         id + "@patient.test",
		Gender:        "Female",
		DateOfBirth:   civil.NewDate(1990, time.January, 2),
		Age:           intPtr(35),
		PhoneNumber:   "555-0199",
		AdmissionDate: civil.NewDate(2025, time.March, 1),
		PatientType:   TypeOutpatient,
		HospitalID:    hospitalID,
		DoctorID:      doctorID,
		PasswordHash:  "$2a$04$hash",
		CreatedAt:     baseTime.Add(offset),
	}
	m.Create(context.Background(), p)
	return p
}

func newTestService() (*Service, *mockPatientRepo) {
	repo := newMockPatientRepo()
	doctors := stubDoctors{"RAO1903": "APO1903", "SEN1903": "APO1903", "FOR1903": "OTH1903"}
	return NewService(repo, doctors), repo
}

func TestService_List_PaginationNewestFirst(t *testing.T) {
	svc, repo := newTestService()
	for i := 0; i < 15; i++ {
		seedPatient(repo, fmt.Sprintf("P%02d", i), "APO1903", "RAO1903", time.Duration(i)*time.Minute)
	}

	page, total, err := svc.List(context.Background(), Scope{HospitalID: "APO1903"}, pagination.New(2, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 15 {
		t.Errorf("expected total 15, got %d", total)
	}
	if len(page) != 5 {
		t.Fatalf("expected 5 patients on page 2, got %d", len(page))
	}
	for i := 1; i < len(page); i++ {
		if page[i].CreatedAt.After(page[i-1].CreatedAt) {
			t.Errorf("page not sorted newest first at %d", i)
		}
	}
	if page[0].PatientID != "P04" || page[4].PatientID != "P00" {
		t.Errorf("unexpected page contents %s..%s", page[0].PatientID, page[4].PatientID)
	}
	if got := pagination.New(2, 10).TotalPages(total); got != 2 {
		t.Errorf("expected 2 total pages, got %d", got)
	}
}

func TestService_List_DoctorIsolation(t *testing.T) {
	svc, repo := newTestService()
	seedPatient(repo, "MINE1", "APO1903", "RAO1903", 0)
	seedPatient(repo, "MINE2", "APO1903", "RAO1903", time.Minute)
	seedPatient(repo, "THEIRS", "APO1903", "SEN1903", 2*time.Minute)
	seedPatient(repo, "ELSEWHERE", "OTH1903", "FOR1903", 3*time.Minute)

	page, total, err := svc.List(context.Background(), Scope{DoctorID: "RAO1903"}, pagination.New(1, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(page) != 2 {
		t.Fatalf("expected only own patients, got %d (total %d)", len(page), total)
	}
	for _, p := range page {
		if p.DoctorID != "RAO1903" {
			t.Errorf("doctor saw another doctor's patient %s", p.PatientID)
		}
	}

	hospitalView, total, _ := svc.List(context.Background(), Scope{HospitalID: "APO1903", DoctorID: "SEN1903"}, pagination.New(1, 10))
	if total != 1 || hospitalView[0].PatientID != "THEIRS" {
		t.Errorf("expected doctorId filter to narrow hospital view, got %+v", hospitalView)
	}
}

func TestService_Get_Scoped(t *testing.T) {
	svc, repo := newTestService()
	seedPatient(repo, "P1", "APO1903", "RAO1903", 0)

	tests := []struct {
		name  string
		scope Scope
		found bool
	}{
		{"own doctor", Scope{DoctorID: "RAO1903"}, true},
		{"own hospital", Scope{HospitalID: "APO1903"}, true},
		{"other doctor", Scope{DoctorID: "SEN1903"}, false},
		{"other hospital", Scope{HospitalID: "OTH1903"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Get(context.Background(), tt.scope, "P1")
			if tt.found && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.found && !apperr.Is(err, apperr.KindNotFound) {
				t.Errorf("expected not found, got %v", err)
			}
		})
	}
}

func TestService_Update(t *testing.T) {
	svc, repo := newTestService()
	seedPatient(repo, "P1", "APO1903", "RAO1903", 0)
	ctx := context.Background()

	symptoms := "Fever"
	inpatient := TypeInpatient
	p, err := svc.Update(ctx, Scope{DoctorID: "RAO1903"}, "P1", Patch{CurrentSymptoms: &symptoms, PatientType: &inpatient})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CurrentSymptoms != "Fever" || p.PatientType != TypeInpatient {
		t.Errorf("patch not applied: %+v", p)
	}

	bogus := Type("Daycare")
	_, err = svc.Update(ctx, Scope{DoctorID: "RAO1903"}, "P1", Patch{PatientType: &bogus})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if repo.patients["P1"].PatientType != TypeInpatient {
		t.Error("invalid patch must not be stored")
	}
}

func TestService_Update_ReassignDoctor(t *testing.T) {
	svc, repo := newTestService()
	seedPatient(repo, "P1", "APO1903", "RAO1903", 0)
	ctx := context.Background()

	sen := "SEN1903"
	foreign := "FOR1903"

	_, err := svc.Update(ctx, Scope{DoctorID: "RAO1903"}, "P1", Patch{DoctorID: &sen})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("expected doctors to be refused, got %v", err)
	}

	_, err = svc.Update(ctx, Scope{HospitalID: "APO1903"}, "P1", Patch{DoctorID: &foreign})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected foreign doctor to be rejected, got %v", err)
	}

	p, err := svc.Update(ctx, Scope{HospitalID: "APO1903"}, "P1", Patch{DoctorID: &sen})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.DoctorID != "SEN1903" || repo.patients["P1"].DoctorID != "SEN1903" {
		t.Error("expected patient to move to SEN1903")
	}

	same := "SEN1903"
	if _, err := svc.Update(ctx, Scope{DoctorID: "SEN1903"}, "P1", Patch{DoctorID: &same}); err != nil {
		t.Errorf("echoing the current doctorId must be allowed: %v", err)
	}
}

func TestRegistration_Missing(t *testing.T) {
	full := Registration{
		Patient: Patient{
			FullName:      "Jane",
			Email:         "jane@x.test",
			DateOfBirth:   civil.NewDate(1990, 1, 2),
			AdmissionDate: civil.NewDate(2025, 3, 1),
			PhoneNumber:   "555",
			Gender:        "Female",
			Age:           intPtr(0),
			PatientType:   TypeInpatient,
		},
		Password: "pw",
	}
	if got := full.Missing(); got != "" {
		t.Errorf("expected complete registration, got missing %s", got)
	}

	tests := []struct {
		field  string
		mutate func(r *Registration)
	}{
		{"fullName", func(r *Registration) { r.FullName = "" }},
		{"email", func(r *Registration) { r.Email = " " }},
		{"password", func(r *Registration) { r.Password = "" }},
		{"dateOfBirth", func(r *Registration) { r.DateOfBirth = civil.Date{} }},
		{"admissionDate", func(r *Registration) { r.AdmissionDate = civil.Date{} }},
		{"phoneNumber", func(r *Registration) { r.PhoneNumber = "" }},
		{"gender", func(r *Registration) { r.Gender = "" }},
		{"age", func(r *Registration) { r.Age = nil }},
		{"patientType", func(r *Registration) { r.PatientType = "" }},
	}
	for _, tt := range tests {
		r := full
		tt.mutate(&r)
		if got := r.Missing(); got != tt.field {
			t.Errorf("expected missing %s, got %q", tt.field, got)
		}
	}
}

func TestPatient_Validate(t *testing.T) {
	discharge := civil.NewDate(2025, 2, 1)
	tests := []struct {
		name string
		p    Patient
		ok   bool
	}{
		{"valid", Patient{PatientType: TypeOutpatient, Age: intPtr(3)}, true},
		{"bad type", Patient{PatientType: "ICU"}, false},
		{"negative age", Patient{PatientType: TypeInpatient, Age: intPtr(-1)}, false},
		{"discharge before admission", Patient{
			PatientType:   TypeInpatient,
			AdmissionDate: civil.NewDate(2025, 3, 1),
			DischargeDate: &discharge,
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !apperr.Is(err, apperr.KindValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}
