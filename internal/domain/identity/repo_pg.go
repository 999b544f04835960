package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/chartseed/internal/platform/db"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func connFor(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// -- Patient Repository --

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

const patientCols = `id, first_name, last_name, document_id, birth_date, email, phone, created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := connFor(ctx, r.pool).Exec(ctx, `
		INSERT INTO patients (`+patientCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.FirstName, p.LastName, p.DocumentID, p.BirthDate, p.Email, p.Phone, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *patientRepoPG) ListAll(ctx context.Context) ([]*Patient, error) {
	rows, err := connFor(ctx, r.pool).Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DocumentID, &p.BirthDate,
			&p.Email, &p.Phone, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &p)
	}
	return items, rows.Err()
}

// -- Physician Repository --

type physicianRepoPG struct{ pool *pgxpool.Pool }

func NewPhysicianRepoPG(pool *pgxpool.Pool) PhysicianRepository { return &physicianRepoPG{pool: pool} }

func (r *physicianRepoPG) Create(ctx context.Context, p *Physician) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	_, err := connFor(ctx, r.pool).Exec(ctx, `
		INSERT INTO physicians (id, first_name, last_name, license_number, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.FirstName, p.LastName, p.LicenseNumber, p.CreatedAt)
	return err
}

// -- Specialty Repository --

type specialtyRepoPG struct{ pool *pgxpool.Pool }

func NewSpecialtyRepoPG(pool *pgxpool.Pool) SpecialtyRepository { return &specialtyRepoPG{pool: pool} }

// Create inserts s, or adopts the id of an existing specialty with the same
// name.
func (r *specialtyRepoPG) Create(ctx context.Context, s *Specialty) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	return connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO specialties (id, name, created_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, created_at`,
		s.ID, s.Name, s.CreatedAt).Scan(&s.ID, &s.CreatedAt)
}

// -- PhysicianSpecialty Repository --

type physicianSpecialtyRepoPG struct{ pool *pgxpool.Pool }

func NewPhysicianSpecialtyRepoPG(pool *pgxpool.Pool) PhysicianSpecialtyRepository {
	return &physicianSpecialtyRepoPG{pool: pool}
}

func (r *physicianSpecialtyRepoPG) Create(ctx context.Context, ps *PhysicianSpecialty) error {
	ps.ID = uuid.New()
	_, err := connFor(ctx, r.pool).Exec(ctx, `
		INSERT INTO physician_specialties (id, physician_id, specialty_id)
		VALUES ($1,$2,$3)`,
		ps.ID, ps.PhysicianID, ps.SpecialtyID)
	return err
}

func (r *physicianSpecialtyRepoPG) ListAll(ctx context.Context) ([]*PhysicianSpecialty, error) {
	rows, err := connFor(ctx, r.pool).Query(ctx, `
		SELECT ps.id, ps.physician_id, ps.specialty_id,
			ph.first_name || ' ' || ph.last_name, sp.name
		FROM physician_specialties ps
		JOIN physicians ph ON ph.id = ps.physician_id
		JOIN specialties sp ON sp.id = ps.specialty_id
		ORDER BY ps.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*PhysicianSpecialty
	for rows.Next() {
		var ps PhysicianSpecialty
		if err := rows.Scan(&ps.ID, &ps.PhysicianID, &ps.SpecialtyID, &ps.PhysicianName, &ps.SpecialtyName); err != nil {
			return nil, err
		}
		items = append(items, &ps)
	}
	return items, rows.Err()
}
