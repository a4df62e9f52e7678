package registry

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/domain/hospital"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/pkg/pagination"
)

// memDB backs all four mock repositories so the transactor can snapshot
// and restore them together.
type memDB struct {
	identities map[string]identity.User
	hospitals  map[string]hospital.Hospital
	doctors    map[string]doctor.Doctor
	patients   map[string]patient.Patient

	failIdentityCreate    error
	failDeleteByHospital  error
	failPatientCreate     error
	txCommits, txRollback int
}

func newMemDB() *memDB {
	return &memDB{
		identities: map[string]identity.User{},
		hospitals:  map[string]hospital.Hospital{},
		doctors:    map[string]doctor.Doctor{},
		patients:   map[string]patient.Patient{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// WithinTx snapshots every map and restores them when fn fails.
func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ids, hs, ds, ps := copyMap(db.identities), copyMap(db.hospitals), copyMap(db.doctors), copyMap(db.patients)
	if err := fn(ctx); err != nil {
		db.identities, db.hospitals, db.doctors, db.patients = ids, hs, ds, ps
		db.txRollback++
		return err
	}
	db.txCommits++
	return nil
}

// -- identities --

type memIdentities struct{ db *memDB }

func (r memIdentities) Create(_ context.Context, u *identity.User) error {
	if r.db.failIdentityCreate != nil {
		return r.db.failIdentityCreate
	}
	for _, v := range r.db.identities {
		if v.Email == u.Email {
			return identity.ErrDuplicate
		}
	}
	if _, ok := r.db.identities[u.PublicID]; ok {
		return identity.ErrDuplicate
	}
	r.db.identities[u.PublicID] = *u
	return nil
}

func (r memIdentities) GetByInternalID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	for _, v := range r.db.identities {
		if v.InternalID == id {
			return &v, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (r memIdentities) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	for _, v := range r.db.identities {
		if v.Email == email {
			return &v, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (r memIdentities) GetByPublicID(_ context.Context, publicID string) (*identity.User, error) {
	v, ok := r.db.identities[publicID]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return &v, nil
}

func (r memIdentities) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r memIdentities) PublicIDExists(_ context.Context, publicID string) (bool, error) {
	_, ok := r.db.identities[publicID]
	return ok, nil
}

func (r memIdentities) DeleteByPublicID(_ context.Context, publicID string) error {
	if _, ok := r.db.identities[publicID]; !ok {
		return identity.ErrNotFound
	}
	delete(r.db.identities, publicID)
	return nil
}

// -- hospitals --

type memHospitals struct{ db *memDB }

func (r memHospitals) Create(_ context.Context, h *hospital.Hospital) error {
	if _, ok := r.db.hospitals[h.HospitalID]; ok {
		return hospital.ErrDuplicate
	}
	r.db.hospitals[h.HospitalID] = *h
	return nil
}

func (r memHospitals) GetByID(_ context.Context, id string) (*hospital.Hospital, error) {
	h, ok := r.db.hospitals[id]
	if !ok {
		return nil, hospital.ErrNotFound
	}
	return &h, nil
}

func (r memHospitals) List(context.Context) ([]*hospital.Hospital, error) {
	var out []*hospital.Hospital
	for _, h := range r.db.hospitals {
		h := h
		out = append(out, &h)
	}
	return out, nil
}

func (r memHospitals) Update(_ context.Context, h *hospital.Hospital) error {
	if _, ok := r.db.hospitals[h.HospitalID]; !ok {
		return hospital.ErrNotFound
	}
	r.db.hospitals[h.HospitalID] = *h
	return nil
}

func (r memHospitals) Delete(_ context.Context, id string) error {
	if _, ok := r.db.hospitals[id]; !ok {
		return hospital.ErrNotFound
	}
	delete(r.db.hospitals, id)
	return nil
}

func (r memHospitals) Exists(_ context.Context, id string) (bool, error) {
	_, ok := r.db.hospitals[id]
	return ok, nil
}

func (r memHospitals) EmailExists(_ context.Context, email string) (bool, error) {
	for _, h := range r.db.hospitals {
		if h.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// -- doctors --

type memDoctors struct{ db *memDB }

func (r memDoctors) Create(_ context.Context, d *doctor.Doctor) error {
	if _, ok := r.db.doctors[d.DoctorID]; ok {
		return doctor.ErrDuplicate
	}
	r.db.doctors[d.DoctorID] = *d
	return nil
}

func (r memDoctors) GetByID(_ context.Context, id string) (*doctor.Doctor, error) {
	d, ok := r.db.doctors[id]
	if !ok {
		return nil, doctor.ErrNotFound
	}
	return &d, nil
}

func (r memDoctors) List(_ context.Context, hospitalID string, p pagination.Params) ([]*doctor.Doctor, int, error) {
	var all []*doctor.Doctor
	for _, d := range r.db.doctors {
		if d.HospitalID == hospitalID {
			d := d
			all = append(all, &d)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DoctorID < all[j].DoctorID })
	start, end := p.Window(len(all))
	return all[start:end], len(all), nil
}

func (r memDoctors) ListLight(_ context.Context, hospitalID string) ([]doctor.Light, error) {
	var out []doctor.Light
	for _, d := range r.db.doctors {
		if d.HospitalID == hospitalID {
			out = append(out, doctor.Light{DoctorID: d.DoctorID, FullName: d.FullName})
		}
	}
	return out, nil
}

func (r memDoctors) Update(_ context.Context, d *doctor.Doctor) error {
	if _, ok := r.db.doctors[d.DoctorID]; !ok {
		return doctor.ErrNotFound
	}
	r.db.doctors[d.DoctorID] = *d
	return nil
}

func (r memDoctors) Delete(_ context.Context, id string) error {
	if _, ok := r.db.doctors[id]; !ok {
		return doctor.ErrNotFound
	}
	delete(r.db.doctors, id)
	return nil
}

func (r memDoctors) DeleteByHospital(_ context.Context, hospitalID string) (int, error) {
	if r.db.failDeleteByHospital != nil {
		return 0, r.db.failDeleteByHospital
	}
	n := 0
	for id, d := range r.db.doctors {
		if d.HospitalID == hospitalID {
			delete(r.db.doctors, id)
			n++
		}
	}
	return n, nil
}

func (r memDoctors) Exists(_ context.Context, id string) (bool, error) {
	_, ok := r.db.doctors[id]
	return ok, nil
}

func (r memDoctors) EmailExists(_ context.Context, email string) (bool, error) {
	for _, d := range r.db.doctors {
		if d.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r memDoctors) LicenseExists(_ context.Context, license, except string) (bool, error) {
	for _, d := range r.db.doctors {
		if d.LicenseNumber == license && d.DoctorID != except {
			return true, nil
		}
	}
	return false, nil
}

// -- patients --

type memPatients struct{ db *memDB }

func (r memPatients) Create(_ context.Context, p *patient.Patient) error {
	if r.db.failPatientCreate != nil {
		return r.db.failPatientCreate
	}
	if _, ok := r.db.patients[p.PatientID]; ok {
		return patient.ErrDuplicate
	}
	r.db.patients[p.PatientID] = *p
	return nil
}

func (r memPatients) GetByID(_ context.Context, id string) (*patient.Patient, error) {
	p, ok := r.db.patients[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return &p, nil
}

func (r memPatients) ListAll(_ context.Context, scope patient.Scope) ([]*patient.Patient, error) {
	var out []*patient.Patient
	for _, p := range r.db.patients {
		p := p
		if scope.Allows(&p) {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r memPatients) List(ctx context.Context, scope patient.Scope, pg pagination.Params) ([]*patient.Patient, int, error) {
	all, _ := r.ListAll(ctx, scope)
	start, end := pg.Window(len(all))
	return all[start:end], len(all), nil
}

func (r memPatients) Update(_ context.Context, p *patient.Patient) error {
	if _, ok := r.db.patients[p.PatientID]; !ok {
		return patient.ErrNotFound
	}
	r.db.patients[p.PatientID] = *p
	return nil
}

func (r memPatients) Delete(_ context.Context, id string) error {
	if _, ok := r.db.patients[id]; !ok {
		return patient.ErrNotFound
	}
	delete(r.db.patients, id)
	return nil
}

func (r memPatients) Exists(_ context.Context, id string) (bool, error) {
	_, ok := r.db.patients[id]
	return ok, nil
}

func (r memPatients) EmailExists(_ context.Context, email string) (bool, error) {
	for _, p := range r.db.patients {
		if p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

var errStoreDown = errors.New("store unavailable")
