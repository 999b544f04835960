package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. The seeder only reads patients; the
// bootstrap command creates demo ones.
type Patient struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	FirstName  string     `db:"first_name" json:"first_name"`
	LastName   string     `db:"last_name" json:"last_name"`
	DocumentID *string    `db:"document_id" json:"document_id,omitempty"`
	BirthDate  *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Email      *string    `db:"email" json:"email,omitempty"`
	Phone      *string    `db:"phone" json:"phone,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins the first and last names.
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Physician maps to the physicians table.
type Physician struct {
	ID            uuid.UUID `db:"id" json:"id"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	LicenseNumber string    `db:"license_number" json:"license_number"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Specialty maps to the specialties table.
type Specialty struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PhysicianSpecialty links a physician to one of the specialties they
// practice. Clinical records are attributed to a pairing, not to a bare
// physician. PhysicianName and SpecialtyName are filled by list queries for
// display only.
type PhysicianSpecialty struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PhysicianID   uuid.UUID `db:"physician_id" json:"physician_id"`
	SpecialtyID   uuid.UUID `db:"specialty_id" json:"specialty_id"`
	PhysicianName string    `db:"-" json:"physician_name,omitempty"`
	SpecialtyName string    `db:"-" json:"specialty_name,omitempty"`
}
