// Package sandbox fills a development database with synthetic clinical
// history (consultations, exams, prescriptions and informed consents) for
// every existing patient, so the host application's views and reports have
// something to show.
package sandbox

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ehr/chartseed/internal/domain/history"
	"github.com/ehr/chartseed/internal/domain/identity"
	"github.com/ehr/chartseed/internal/platform/memstore"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// SeedConfig controls a single seeding run.
type SeedConfig struct {
	// Seed makes a run reproducible; 0 picks a time-based seed.
	Seed int64 `json:"seed"`
	// SkipSeeded leaves alone patients that already have consultations.
	// Off by default: repeated runs accumulate rows.
	SkipSeeded bool `json:"skipSeeded"`
	// Catalog overrides the built-in vocabulary.
	Catalog *Catalog `json:"-"`
	// Now overrides the clock the look-back windows are measured from.
	Now func() time.Time `json:"-"`
}

// Repositories bundles every store the seeder and the bootstrapper touch.
type Repositories struct {
	Patients      identity.PatientRepository
	Physicians    identity.PhysicianRepository
	Specialties   identity.SpecialtyRepository
	Pairings      identity.PhysicianSpecialtyRepository
	Consultations history.ConsultationRepository
	Exams         history.ExamRepository
	Prescriptions history.PrescriptionRepository
	Consents      history.ConsentRepository
}

// NewPGRepositories wires the PostgreSQL implementations.
func NewPGRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Patients:      identity.NewPatientRepoPG(pool),
		Physicians:    identity.NewPhysicianRepoPG(pool),
		Specialties:   identity.NewSpecialtyRepoPG(pool),
		Pairings:      identity.NewPhysicianSpecialtyRepoPG(pool),
		Consultations: history.NewConsultationRepoPG(pool),
		Exams:         history.NewExamRepoPG(pool),
		Prescriptions: history.NewPrescriptionRepoPG(pool),
		Consents:      history.NewConsentRepoPG(pool),
	}
}

// NewMemoryRepositories wires the in-memory implementations backed by store.
func NewMemoryRepositories(store *memstore.Store) Repositories {
	return Repositories{
		Patients:      store.Patients(),
		Physicians:    store.Physicians(),
		Specialties:   store.Specialties(),
		Pairings:      store.Pairings(),
		Consultations: store.Consultations(),
		Exams:         store.Exams(),
		Prescriptions: store.Prescriptions(),
		Consents:      store.Consents(),
	}
}

// ---------------------------------------------------------------------------
// SeedResult
// ---------------------------------------------------------------------------

// SeedResult summarizes a seeding run.
type SeedResult struct {
	Patients        int           `json:"patients"`
	SkippedPatients int           `json:"skippedPatients"`
	Pairings        int           `json:"pairings"`
	Consultations   int           `json:"consultations"`
	Exams           int           `json:"exams"`
	Prescriptions   int           `json:"prescriptions"`
	Consents        int           `json:"consents"`
	SignedConsents  int           `json:"signedConsents"`
	TotalRecords    int           `json:"totalRecords"`
	Duration        time.Duration `json:"duration"`
	Warning         string        `json:"warning,omitempty"`
}

// patientTally is what one patient contributed to the run.
type patientTally struct {
	consultations, exams, prescriptions, consents, signed int
}

// ---------------------------------------------------------------------------
// Seeder
// ---------------------------------------------------------------------------

// NoPairingsMessage is printed when there is nobody to attribute records to.
const NoPairingsMessage = "No physician-specialty pairings available. Create physicians and specialties first."

// Seeder runs the seeding procedure: for each patient, 3-6 consultations,
// 2-4 exams, 2-5 prescriptions and 2-4 consents, each attributed to a
// randomly chosen physician-specialty pairing. Inserts are independent and
// unbatched; a failure stops the run and leaves earlier rows in place.
type Seeder struct {
	repos     Repositories
	generator *DataGenerator
	config    SeedConfig
	out       io.Writer
	logger    zerolog.Logger
}

// NewSeeder creates a Seeder that prints progress to out.
func NewSeeder(repos Repositories, config SeedConfig, out io.Writer, logger zerolog.Logger) *Seeder {
	if out == nil {
		out = io.Discard
	}
	return &Seeder{
		repos:     repos,
		generator: NewDataGenerator(config.Seed, config.Catalog, config.Now),
		config:    config,
		out:       out,
		logger:    logger,
	}
}

// Run seeds every patient. The catalog is validated before anything is read
// or written. With no pairings it prints a warning and returns an empty
// result and a nil error without writing anything. On error the
// partial result is returned alongside it and no summary is printed.
func (s *Seeder) Run(ctx context.Context) (*SeedResult, error) {
	start := time.Now()
	result := &SeedResult{}

	if err := s.generator.catalog.Validate(); err != nil {
		return result, err
	}

	pairings, err := s.repos.Pairings.ListAll(ctx)
	if err != nil {
		return result, fmt.Errorf("list physician-specialty pairings: %w", err)
	}
	if len(pairings) == 0 {
		fmt.Fprintln(s.out, NoPairingsMessage)
		s.logger.Warn().Msg("no physician-specialty pairings, nothing seeded")
		result.Warning = NoPairingsMessage
		return result, nil
	}
	result.Pairings = len(pairings)

	pairingIDs := make([]uuid.UUID, 0, len(pairings))
	for _, p := range pairings {
		pairingIDs = append(pairingIDs, p.ID)
	}

	patients, err := s.repos.Patients.ListAll(ctx)
	if err != nil {
		return result, fmt.Errorf("list patients: %w", err)
	}
	s.logger.Info().Int("patients", len(patients)).Int("pairings", len(pairings)).Msg("seeding clinical history")

	for _, patient := range patients {
		if err := ctx.Err(); err != nil {
			return s.finish(result, start), err
		}

		if s.config.SkipSeeded {
			n, err := s.repos.Consultations.CountByPatient(ctx, patient.ID)
			if err != nil {
				return s.finish(result, start), fmt.Errorf("count consultations for patient %s: %w", patient.ID, err)
			}
			if n > 0 {
				fmt.Fprintf(s.out, "\nSkipping %s: clinical history already present (%d consultations)\n", patient.FullName(), n)
				result.SkippedPatients++
				continue
			}
		}

		fmt.Fprintf(s.out, "\nCreating clinical history for %s...\n", patient.FullName())
		tally, err := s.seedPatient(ctx, patient.ID, pairingIDs)
		result.add(tally)
		if err != nil {
			return s.finish(result, start), err
		}
		result.Patients++

		fmt.Fprintf(s.out, "  consultations: %d, exams: %d, prescriptions: %d, consents: %d (%d signed)\n",
			tally.consultations, tally.exams, tally.prescriptions, tally.consents, tally.signed)
		s.logger.Debug().
			Str("patient_id", patient.ID.String()).
			Int("consultations", tally.consultations).
			Int("exams", tally.exams).
			Int("prescriptions", tally.prescriptions).
			Int("consents", tally.consents).
			Msg("patient seeded")
	}

	s.finish(result, start)
	s.printSummary(result)
	s.logger.Info().
		Int("patients", result.Patients).
		Int("skipped", result.SkippedPatients).
		Int("records", result.TotalRecords).
		Dur("duration", result.Duration).
		Msg("seeding complete")
	return result, nil
}

func (s *Seeder) seedPatient(ctx context.Context, patientID uuid.UUID, pairingIDs []uuid.UUID) (patientTally, error) {
	var t patientTally
	g := s.generator

	for i, n := 0, g.ConsultationCount(); i < n; i++ {
		if err := s.repos.Consultations.Create(ctx, g.NewConsultation(patientID, g.PickPairing(pairingIDs))); err != nil {
			return t, fmt.Errorf("create consultation for patient %s: %w", patientID, err)
		}
		t.consultations++
	}

	for i, n := 0, g.ExamCount(); i < n; i++ {
		if err := s.repos.Exams.Create(ctx, g.NewExam(patientID, g.PickPairing(pairingIDs))); err != nil {
			return t, fmt.Errorf("create exam for patient %s: %w", patientID, err)
		}
		t.exams++
	}

	for i, n := 0, g.PrescriptionCount(); i < n; i++ {
		if err := s.repos.Prescriptions.Create(ctx, g.NewPrescription(patientID, g.PickPairing(pairingIDs))); err != nil {
			return t, fmt.Errorf("create prescription for patient %s: %w", patientID, err)
		}
		t.prescriptions++
	}

	for i, n := 0, g.ConsentCount(); i < n; i++ {
		c := g.NewConsent(patientID, g.PickPairing(pairingIDs))
		if err := s.repos.Consents.Create(ctx, c); err != nil {
			return t, fmt.Errorf("create consent for patient %s: %w", patientID, err)
		}
		t.consents++
		if c.IsSigned() {
			t.signed++
		}
	}

	return t, nil
}

func (r *SeedResult) add(t patientTally) {
	r.Consultations += t.consultations
	r.Exams += t.exams
	r.Prescriptions += t.prescriptions
	r.Consents += t.consents
	r.SignedConsents += t.signed
}

func (s *Seeder) finish(r *SeedResult, start time.Time) *SeedResult {
	r.TotalRecords = r.Consultations + r.Exams + r.Prescriptions + r.Consents
	r.Duration = time.Since(start)
	return r
}

func (s *Seeder) printSummary(r *SeedResult) {
	fmt.Fprintln(s.out, "\nSummary of created records:")
	fmt.Fprintf(s.out, "  Consultations: %d\n", r.Consultations)
	fmt.Fprintf(s.out, "  Exams: %d\n", r.Exams)
	fmt.Fprintf(s.out, "  Prescriptions: %d\n", r.Prescriptions)
	fmt.Fprintf(s.out, "  Consents: %d\n", r.Consents)
	if r.SkippedPatients > 0 {
		fmt.Fprintf(s.out, "  Skipped patients: %d\n", r.SkippedPatients)
	}
	fmt.Fprintln(s.out, "\nClinical history data created successfully.")
}
