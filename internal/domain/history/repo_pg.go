package history

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/chartseed/internal/platform/db"
)

type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func connFor(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

func countByPatient(ctx context.Context, q queryable, table string, patientID uuid.UUID) (int, error) {
	var n int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+` WHERE patient_id = $1`, patientID).Scan(&n)
	return n, err
}

// =========== Consultation Repository ===========

type consultationRepoPG struct{ pool *pgxpool.Pool }

func NewConsultationRepoPG(pool *pgxpool.Pool) ConsultationRepository {
	return &consultationRepoPG{pool: pool}
}

func (r *consultationRepoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	_, err := connFor(ctx, r.pool).Exec(ctx, `
		INSERT INTO consultations (id, patient_id, physician_specialty_id, date,
			reason, diagnosis, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.PatientID, c.PhysicianSpecialtyID, c.Date,
		c.Reason, c.Diagnosis, c.Notes, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *consultationRepoPG) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	return countByPatient(ctx, connFor(ctx, r.pool), "consultations", patientID)
}

// =========== Exam Repository ===========

type examRepoPG struct{ pool *pgxpool.Pool }

func NewExamRepoPG(pool *pgxpool.Pool) ExamRepository { return &examRepoPG{pool: pool} }

func (r *examRepoPG) Create(ctx context.Context, e *Exam) error {
	e.ID = uuid.New()
	_, err := connFor(ctx, r.pool).Exec(ctx, `
		INSERT INTO exams (id, patient_id, physician_specialty_id, exam_type, date,
			result, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.PatientID, e.PhysicianSpecialtyID, e.ExamType, e.Date,
		e.Result, e.Notes, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *examRepoPG) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	return countByPatient(ctx, connFor(ctx, r.pool), "exams", patientID)
}

// =========== Prescription Repository ===========

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := connFor(ctx, r.pool).Exec(ctx, `
		INSERT INTO prescriptions (id, patient_id, physician_specialty_id, date,
			medications, instructions, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.PatientID, p.PhysicianSpecialtyID, p.Date,
		p.Medications, p.Instructions, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *prescriptionRepoPG) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	return countByPatient(ctx, connFor(ctx, r.pool), "prescriptions", patientID)
}

// =========== Consent Repository ===========

type consentRepoPG struct{ pool *pgxpool.Pool }

func NewConsentRepoPG(pool *pgxpool.Pool) ConsentRepository { return &consentRepoPG{pool: pool} }

func (r *consentRepoPG) Create(ctx context.Context, c *Consent) error {
	c.ID = uuid.New()
	_, err := connFor(ctx, r.pool).Exec(ctx, `
		INSERT INTO consents (id, patient_id, physician_specialty_id, type, procedure_name,
			content, status, created_on, signed_at, signature_method, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		c.ID, c.PatientID, c.PhysicianSpecialtyID, c.Type, c.Procedure,
		c.Content, c.Status, c.CreatedOn, c.SignedAt, c.SignatureMethod, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *consentRepoPG) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	return countByPatient(ctx, connFor(ctx, r.pool), "consents", patientID)
}
