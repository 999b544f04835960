// Package memstore keeps identity and clinical history rows in memory. It
// backs dry runs of the seeder and the tests of everything above the
// repository layer.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/chartseed/internal/domain/history"
	"github.com/ehr/chartseed/internal/domain/identity"
)

// Store holds every table. Rows are kept in insertion order so dry-run
// exports are stable.
type Store struct {
	mu sync.RWMutex

	patients    []*identity.Patient
	physicians  []*identity.Physician
	specialties []*identity.Specialty
	pairings    []*identity.PhysicianSpecialty

	consultations []*history.Consultation
	exams         []*history.Exam
	prescriptions []*history.Prescription
	consents      []*history.Consent
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Repository views over the store, one per table.
func (s *Store) Patients() identity.PatientRepository { return patientRepo{s} }
func (s *Store) Physicians() identity.PhysicianRepository { return physicianRepo{s} }
func (s *Store) Specialties() identity.SpecialtyRepository { return specialtyRepo{s} }
func (s *Store) Pairings() identity.PhysicianSpecialtyRepository { return pairingRepo{s} }
func (s *Store) Consultations() history.ConsultationRepository { return consultationRepo{s} }
func (s *Store) Exams() history.ExamRepository { return examRepo{s} }
func (s *Store) Prescriptions() history.PrescriptionRepository { return prescriptionRepo{s} }
func (s *Store) Consents() history.ConsentRepository { return consentRepo{s} }

// Snapshot is a copy of the clinical history rows, grouped by kind.
type Snapshot struct {
	Consultations []history.Consultation
	Exams         []history.Exam
	Prescriptions []history.Prescription
	Consents      []history.Consent
}

// Snapshot copies the clinical rows written so far.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap Snapshot
	for _, c := range s.consultations {
		snap.Consultations = append(snap.Consultations, *c)
	}
	for _, e := range s.exams {
		snap.Exams = append(snap.Exams, *e)
	}
	for _, p := range s.prescriptions {
		snap.Prescriptions = append(snap.Prescriptions, *p)
	}
	for _, c := range s.consents {
		snap.Consents = append(snap.Consents, *c)
	}
	return snap
}

// -- identity --

type patientRepo struct{ s *Store }

func (r patientRepo) Create(_ context.Context, p *identity.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = uuid.New()
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	r.s.patients = append(r.s.patients, &cp)
	return nil
}

func (r patientRepo) ListAll(_ context.Context) ([]*identity.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*identity.Patient, 0, len(r.s.patients))
	for _, p := range r.s.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type physicianRepo struct{ s *Store }

func (r physicianRepo) Create(_ context.Context, p *identity.Physician) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	cp := *p
	r.s.physicians = append(r.s.physicians, &cp)
	return nil
}

type specialtyRepo struct{ s *Store }

func (r specialtyRepo) Create(_ context.Context, sp *identity.Specialty) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.specialties {
		if existing.Name == sp.Name {
			sp.ID, sp.CreatedAt = existing.ID, existing.CreatedAt
			return nil
		}
	}
	sp.ID = uuid.New()
	sp.CreatedAt = time.Now()
	cp := *sp
	r.s.specialties = append(r.s.specialties, &cp)
	return nil
}

type pairingRepo struct{ s *Store }

func (r pairingRepo) Create(_ context.Context, ps *identity.PhysicianSpecialty) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ps.ID = uuid.New()
	cp := *ps
	r.s.pairings = append(r.s.pairings, &cp)
	return nil
}

func (r pairingRepo) ListAll(_ context.Context) ([]*identity.PhysicianSpecialty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*identity.PhysicianSpecialty, 0, len(r.s.pairings))
	for _, ps := range r.s.pairings {
		cp := *ps
		for _, ph := range r.s.physicians {
			if ph.ID == ps.PhysicianID {
				cp.PhysicianName = ph.FirstName + " " + ph.LastName
			}
		}
		for _, sp := range r.s.specialties {
			if sp.ID == ps.SpecialtyID {
				cp.SpecialtyName = sp.Name
			}
		}
		out = append(out, &cp)
	}
	return out, nil
}

// -- history --

type consultationRepo struct{ s *Store }

func (r consultationRepo) Create(_ context.Context, c *history.Consultation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = uuid.New()
	cp := *c
	r.s.consultations = append(r.s.consultations, &cp)
	return nil
}

func (r consultationRepo) CountByPatient(_ context.Context, patientID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, c := range r.s.consultations {
		if c.PatientID == patientID {
			n++
		}
	}
	return n, nil
}

type examRepo struct{ s *Store }

func (r examRepo) Create(_ context.Context, e *history.Exam) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = uuid.New()
	cp := *e
	r.s.exams = append(r.s.exams, &cp)
	return nil
}

func (r examRepo) CountByPatient(_ context.Context, patientID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, e := range r.s.exams {
		if e.PatientID == patientID {
			n++
		}
	}
	return n, nil
}

type prescriptionRepo struct{ s *Store }

func (r prescriptionRepo) Create(_ context.Context, p *history.Prescription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = uuid.New()
	cp := *p
	r.s.prescriptions = append(r.s.prescriptions, &cp)
	return nil
}

func (r prescriptionRepo) CountByPatient(_ context.Context, patientID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, p := range r.s.prescriptions {
		if p.PatientID == patientID {
			n++
		}
	}
	return n, nil
}

type consentRepo struct{ s *Store }

func (r consentRepo) Create(_ context.Context, c *history.Consent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = uuid.New()
	cp := *c
	r.s.consents = append(r.s.consents, &cp)
	return nil
}

func (r consentRepo) CountByPatient(_ context.Context, patientID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, c := range r.s.consents {
		if c.PatientID == patientID {
			n++
		}
	}
	return n, nil
}
