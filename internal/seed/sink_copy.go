package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	appointmentmodels "clinic/internal/appointment/models"
	patientmodels "clinic/internal/patient/models"
)

var (
	patientCopyColumns = []string{
		"id", "name", "cpf", "phone", "email", "birth_date", "address", "created_at", "updated_at",
	}
	appointmentCopyColumns = []string{
		"id", "patient_id", "scheduled_at", "doctor", "specialty", "notes", "status", "created_at", "updated_at",
	}
)

// CopySink bulk-loads seed data with COPY in one transaction.
type CopySink struct {
	pool *pgxpool.Pool
}

func NewCopySink(pool *pgxpool.Pool) *CopySink {
	return &CopySink{pool: pool}
}

func (s *CopySink) Clear(ctx context.Context) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM appointments`); err != nil {
			return fmt.Errorf("delete appointments: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM patients`); err != nil {
			return fmt.Errorf("delete patients: %w", err)
		}
		return nil
	})
}

func (s *CopySink) Write(ctx context.Context, patients []*patientmodels.Patient, appointments []*appointmentmodels.Appointment) error {
	patientRows := make([][]any, len(patients))
	for i, p := range patients {
		patientRows[i] = []any{
			uuid.UUID(p.ID), p.Name, p.CPF.Digits(), p.Phone, p.Email,
			p.BirthDate, p.Address, p.CreatedAt, p.UpdatedAt,
		}
	}
	appointmentRows := make([][]any, len(appointments))
	for i, a := range appointments {
		appointmentRows[i] = []any{
			uuid.UUID(a.ID), uuid.UUID(a.PatientID), a.ScheduledAt, a.Doctor,
			a.Specialty, a.Notes, string(a.Status), a.CreatedAt, a.UpdatedAt,
		}
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"patients"}, patientCopyColumns, pgx.CopyFromRows(patientRows)); err != nil {
			return fmt.Errorf("copy patients: %w", err)
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"appointments"}, appointmentCopyColumns, pgx.CopyFromRows(appointmentRows)); err != nil {
			return fmt.Errorf("copy appointments: %w", err)
		}
		return nil
	})
}

func (s *CopySink) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByStatus: make(map[appointmentmodels.Status]int, len(appointmentmodels.Statuses))}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&stats.Patients); err != nil {
		return Stats{}, fmt.Errorf("count patients: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM appointments GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("count appointments by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return Stats{}, fmt.Errorf("scan status count: %w", err)
		}
		stats.ByStatus[appointmentmodels.Status(status)] = n
		stats.Appointments += n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate status counts: %w", err)
	}
	return stats, nil
}
