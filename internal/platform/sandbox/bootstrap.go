package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/ehr/chartseed/internal/domain/identity"
)

var specialtyNames = []string{
	"General Medicine", "Cardiology", "Dermatology", "Endocrinology",
	"Gastroenterology", "Neurology", "Pediatrics", "Pulmonology",
	"Rheumatology", "Psychiatry", "Gynecology", "Traumatology",
}

// BootstrapConfig sizes the demo registries created before seeding an empty
// database.
type BootstrapConfig struct {
	Patients                int   `json:"patients"`
	Physicians              int   `json:"physicians"`
	SpecialtiesPerPhysician int   `json:"specialtiesPerPhysician"`
	Seed                    int64 `json:"seed"`
}

// DefaultBootstrapConfig returns the registry sizes used when a request
// leaves them unset.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		Patients:                10,
		Physicians:              4,
		SpecialtiesPerPhysician: 2,
	}
}

// BootstrapResult counts the registry rows created.
type BootstrapResult struct {
	Patients    int `json:"patients"`
	Physicians  int `json:"physicians"`
	Specialties int `json:"specialties"`
	Pairings    int `json:"pairings"`
}

// Validate rejects negative registry sizes and a per-physician specialty
// count outside the built-in specialty list.
func (c BootstrapConfig) Validate() error {
	if c.Patients < 0 || c.Physicians < 0 {
		return fmt.Errorf("patients and physicians must not be negative")
	}
	if c.SpecialtiesPerPhysician < 1 || c.SpecialtiesPerPhysician > len(specialtyNames) {
		return fmt.Errorf("specialties per physician must be between 1 and %d", len(specialtyNames))
	}
	return nil
}

// Bootstrap creates fake patients, physicians, specialties and
// physician-specialty pairings so the seeder has something to work on.
func Bootstrap(ctx context.Context, repos Repositories, cfg BootstrapConfig) (*BootstrapResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	faker := gofakeit.New(uint64(cfg.Seed))
	now := time.Now()
	result := &BootstrapResult{}

	for i := 0; i < cfg.Patients; i++ {
		birth := faker.DateRange(now.AddDate(-90, 0, 0), now.AddDate(-1, 0, 0))
		doc := faker.Numerify("########")
		email := strings.ToLower(faker.Email())
		phone := faker.Phone()
		p := &identity.Patient{
			FirstName:  faker.FirstName(),
			LastName:   faker.LastName(),
			DocumentID: &doc,
			BirthDate:  &birth,
			Email:      &email,
			Phone:      &phone,
		}
		if err := repos.Patients.Create(ctx, p); err != nil {
			return result, fmt.Errorf("create patient: %w", err)
		}
		result.Patients++
	}

	specialties := make(map[string]*identity.Specialty)
	for i := 0; i < cfg.Physicians; i++ {
		ph := &identity.Physician{
			FirstName:     faker.FirstName(),
			LastName:      faker.LastName(),
			LicenseNumber: faker.Numerify("MP-######"),
		}
		if err := repos.Physicians.Create(ctx, ph); err != nil {
			return result, fmt.Errorf("create physician: %w", err)
		}
		result.Physicians++

		names := append([]string(nil), specialtyNames...)
		faker.ShuffleStrings(names)
		for _, name := range names[:cfg.SpecialtiesPerPhysician] {
			sp, ok := specialties[name]
			if !ok {
				sp = &identity.Specialty{Name: name}
				if err := repos.Specialties.Create(ctx, sp); err != nil {
					return result, fmt.Errorf("create specialty %s: %w", name, err)
				}
				specialties[name] = sp
				result.Specialties++
			}
			if err := repos.Pairings.Create(ctx, &identity.PhysicianSpecialty{
				PhysicianID: ph.ID,
				SpecialtyID: sp.ID,
			}); err != nil {
				return result, fmt.Errorf("create physician-specialty pairing: %w", err)
			}
			result.Pairings++
		}
	}

	return result, nil
}
