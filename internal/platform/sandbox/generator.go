package sandbox

import (
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/chartseed/internal/domain/history"
)

// Per-patient volumes and look-back windows, in days.
const (
	minConsultations = 3
	maxConsultations = 6
	minExams         = 2
	maxExams         = 4
	minPrescriptions = 2
	maxPrescriptions = 5
	minConsents      = 2
	maxConsents      = 4

	consultationWindowDays = 180
	examWindowDays         = 120
	prescriptionWindowDays = 90
	consentWindowDays      = 60

	minSignatureDelayDays = 1
	maxSignatureDelayDays = 5

	maxMedicationsPerPrescription = 3

	pendingProbability   = 0.6
	biometricProbability = 0.5

	consultationNotes = "Follow-up consultation. Patient stable."
	examNotes         = "Exam performed according to standard protocol."
)

const day = 24 * time.Hour

// DataGenerator draws clinical history rows from a Catalog. Given the same
// seed, catalog and clock it produces the same sequence of rows.
type DataGenerator struct {
	rng     *rand.Rand
	catalog *Catalog
	now     func() time.Time
}

// NewDataGenerator returns a generator seeded for reproducibility. If seed is
// 0 a time-based seed is chosen; a nil clock means time.Now.
func NewDataGenerator(seed int64, catalog *Catalog, now func() time.Time) *DataGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if now == nil {
		now = time.Now
	}
	return &DataGenerator{
		rng:     rand.New(rand.NewSource(seed)),
		catalog: catalog,
		now:     now,
	}
}

// between returns a uniformly distributed int in [lo, hi].
func (g *DataGenerator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// sample returns k distinct entries of pool in random order.
func (g *DataGenerator) sample(pool []string, k int) []string {
	idx := g.rng.Perm(len(pool))[:k]
	out := make([]string, 0, k)
	for _, i := range idx {
		out = append(out, pool[i])
	}
	return out
}

// daysAgo returns the current time shifted back by 1..maxDays whole days.
func (g *DataGenerator) daysAgo(maxDays int) time.Time {
	return g.now().Add(-time.Duration(g.between(1, maxDays)) * day)
}

// PickPairing chooses the physician-specialty pairing a record is
// attributed to.
func (g *DataGenerator) PickPairing(ids []uuid.UUID) uuid.UUID {
	return ids[g.rng.Intn(len(ids))]
}

// ConsultationCount, ExamCount, PrescriptionCount and ConsentCount draw how
// many records of each kind one patient receives, bounds inclusive.
func (g *DataGenerator) ConsultationCount() int { return g.between(minConsultations, maxConsultations) }
func (g *DataGenerator) ExamCount() int         { return g.between(minExams, maxExams) }
func (g *DataGenerator) PrescriptionCount() int { return g.between(minPrescriptions, maxPrescriptions) }
func (g *DataGenerator) ConsentCount() int      { return g.between(minConsents, maxConsents) }

// NewConsultation builds a consultation dated within the consultation
// look-back window.
func (g *DataGenerator) NewConsultation(patientID, pairingID uuid.UUID) *history.Consultation {
	date := g.daysAgo(consultationWindowDays)
	return &history.Consultation{
		PatientID:            patientID,
		PhysicianSpecialtyID: pairingID,
		Date:                 date,
		Reason:               g.pick(g.catalog.ConsultationReasons),
		Diagnosis:            g.pick(g.catalog.Diagnoses),
		Notes:                consultationNotes,
		CreatedAt:            date,
		UpdatedAt:            date,
	}
}

// NewExam builds an exam with a catalog exam type and result.
func (g *DataGenerator) NewExam(patientID, pairingID uuid.UUID) *history.Exam {
	date := g.daysAgo(examWindowDays)
	return &history.Exam{
		PatientID:            patientID,
		PhysicianSpecialtyID: pairingID,
		ExamType:             g.pick(g.catalog.ExamTypes),
		Date:                 date,
		Result:               g.pick(g.catalog.ExamResults),
		Notes:                examNotes,
		CreatedAt:            date,
		UpdatedAt:            date,
	}
}

// NewPrescription builds a prescription of one to three distinct
// medications joined by ", ".
func (g *DataGenerator) NewPrescription(patientID, pairingID uuid.UUID) *history.Prescription {
	date := g.daysAgo(prescriptionWindowDays)
	meds := g.sample(g.catalog.Medications, g.between(1, maxMedicationsPerPrescription))
	return &history.Prescription{
		PatientID:            patientID,
		PhysicianSpecialtyID: pairingID,
		Date:                 date,
		Medications:          strings.Join(meds, ", "),
		Instructions:         g.pick(g.catalog.Instructions),
		CreatedAt:            date,
		UpdatedAt:            date,
	}
}

// NewConsent draws a pending (p=0.6) or signed consent. A signed consent is
// signed 1..5 days after it was created, by biometric or PIN with equal
// probability.
func (g *DataGenerator) NewConsent(patientID, pairingID uuid.UUID) *history.Consent {
	createdOn := g.daysAgo(consentWindowDays)
	procedure := g.pick(g.catalog.ProcedureTypes)

	c := &history.Consent{
		PatientID:            patientID,
		PhysicianSpecialtyID: pairingID,
		Type:                 procedure,
		Procedure:            procedure,
		Content:              g.pick(g.catalog.ConsentContents),
		Status:               history.ConsentPending,
		CreatedOn:            createdOn,
		CreatedAt:            createdOn,
		UpdatedAt:            createdOn,
	}
	if g.rng.Float64() < pendingProbability {
		return c
	}

	signedAt := createdOn.Add(time.Duration(g.between(minSignatureDelayDays, maxSignatureDelayDays)) * day)
	method := history.SignaturePIN
	if g.rng.Float64() < biometricProbability {
		method = history.SignatureBiometric
	}
	c.Status = history.ConsentSigned
	c.SignedAt = &signedAt
	c.SignatureMethod = &method
	c.UpdatedAt = signedAt
	return c
}
