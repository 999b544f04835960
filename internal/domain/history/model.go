package history

import (
	"time"

	"github.com/google/uuid"
)

// Consent statuses.
const (
	ConsentPending = "pending"
	ConsentSigned  = "signed"
)

// Signature methods for signed consents.
const (
	SignatureBiometric = "biometric"
	SignaturePIN       = "pin"
)

// Consultation maps to the consultations table.
type Consultation struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	PatientID            uuid.UUID `db:"patient_id" json:"patient_id"`
	PhysicianSpecialtyID uuid.UUID `db:"physician_specialty_id" json:"physician_specialty_id"`
	Date                 time.Time `db:"date" json:"date"`
	Reason               string    `db:"reason" json:"reason"`
	Diagnosis            string    `db:"diagnosis" json:"diagnosis"`
	Notes                string    `db:"notes" json:"notes"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// Exam maps to the exams table.
type Exam struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	PatientID            uuid.UUID `db:"patient_id" json:"patient_id"`
	PhysicianSpecialtyID uuid.UUID `db:"physician_specialty_id" json:"physician_specialty_id"`
	ExamType             string    `db:"exam_type" json:"exam_type"`
	Date                 time.Time `db:"date" json:"date"`
	Result               string    `db:"result" json:"result"`
	Notes                string    `db:"notes" json:"notes"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// Prescription maps to the prescriptions table. Medications is a
// comma-separated list, as the host application stores it.
type Prescription struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	PatientID            uuid.UUID `db:"patient_id" json:"patient_id"`
	PhysicianSpecialtyID uuid.UUID `db:"physician_specialty_id" json:"physician_specialty_id"`
	Date                 time.Time `db:"date" json:"date"`
	Medications          string    `db:"medications" json:"medications"`
	Instructions         string    `db:"instructions" json:"instructions"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// Consent maps to the consents table. SignedAt and SignatureMethod are set
// if and only if Status is ConsentSigned.
type Consent struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	PatientID            uuid.UUID  `db:"patient_id" json:"patient_id"`
	PhysicianSpecialtyID uuid.UUID  `db:"physician_specialty_id" json:"physician_specialty_id"`
	Type                 string     `db:"type" json:"type"`
	Procedure            string     `db:"procedure_name" json:"procedure"`
	Content              string     `db:"content" json:"content"`
	Status               string     `db:"status" json:"status"`
	CreatedOn            time.Time  `db:"created_on" json:"created_on"`
	SignedAt             *time.Time `db:"signed_at" json:"signed_at,omitempty"`
	SignatureMethod      *string    `db:"signature_method" json:"signature_method,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// IsSigned reports whether the consent has been signed.
func (c *Consent) IsSigned() bool {
	return c.Status == ConsentSigned
}
