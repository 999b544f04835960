package identity

import (
	"context"
)

// PatientRepository persists patients. ListAll returns them in creation order.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	ListAll(ctx context.Context) ([]*Patient, error)
}

type PhysicianRepository interface {
	Create(ctx context.Context, p *Physician) error
}

type SpecialtyRepository interface {
	Create(ctx context.Context, s *Specialty) error
}

// PhysicianSpecialtyRepository persists pairings of a physician with one of
// their specialties.
type PhysicianSpecialtyRepository interface {
	Create(ctx context.Context, ps *PhysicianSpecialty) error
	ListAll(ctx context.Context) ([]*PhysicianSpecialty, error)
}
