package history

import (
	"context"

	"github.com/google/uuid"
)

// Create on every repository assigns the ID and persists the timestamps
// exactly as given: seeded rows carry their business date, not the time of
// the run.

// ConsultationRepository persists consultations. CountByPatient backs the
// skip-seeded check.
type ConsultationRepository interface {
	Create(ctx context.Context, c *Consultation) error
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}

type ExamRepository interface {
	Create(ctx context.Context, e *Exam) error
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}

type ConsentRepository interface {
	Create(ctx context.Context, c *Consent) error
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}
