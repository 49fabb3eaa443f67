package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"clinic/internal/appointment/models"
	"clinic/internal/platform/database"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/sentinel"
	txcontext "clinic/pkg/platform/tx"
)

// ErrPatientMissing is returned when the referenced patient row is gone.
var ErrPatientMissing = errors.New("referenced patient does not exist")

// PostgresStore persists appointments in the appointments table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const appointmentColumns = `id, patient_id, scheduled_at, doctor, specialty, notes, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, a *models.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID), uuid.UUID(a.PatientID), a.ScheduledAt, a.Doctor,
		a.Specialty, a.Notes, string(a.Status), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		switch {
		case database.IsForeignKeyViolation(err):
			return ErrPatientMissing
		case database.IsUniqueViolation(err):
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, a *models.Appointment) error {
	query := `
		UPDATE appointments
		SET patient_id = $2, scheduled_at = $3, doctor = $4, specialty = $5,
		    notes = $6, status = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID), uuid.UUID(a.PatientID), a.ScheduledAt, a.Doctor,
		a.Specialty, a.Notes, string(a.Status), a.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrPatientMissing
		}
		return fmt.Errorf("update appointment: %w", err)
	}
	return requireRow(res, "update appointment")
}

func (s *PostgresStore) FindByID(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	a, err := scanAppointment(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(appointmentID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY scheduled_at DESC, id`
	return s.query(ctx, query)
}

func (s *PostgresStore) Latest(ctx context.Context, n int) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY created_at DESC, id LIMIT $1`
	return s.query(ctx, query, n)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Appointment, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var out []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, appointmentID id.AppointmentID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, uuid.UUID(appointmentID))
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return requireRow(res, "delete appointment")
}

func (s *PostgresStore) DeleteByPatient(ctx context.Context, patientID id.PatientID) (int, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM appointments WHERE patient_id = $1`, uuid.UUID(patientID))
	if err != nil {
		return 0, fmt.Errorf("delete patient appointments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete patient appointments rows affected: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context) (int, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM appointments`)
	if err != nil {
		return 0, fmt.Errorf("delete all appointments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all appointments rows affected: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count appointments: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context, status models.Status) (int, error) {
	var n int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments WHERE status = $1`, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count appointments by status: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var (
		appointmentID uuid.UUID
		patientID     uuid.UUID
		status        string
		a             models.Appointment
	)
	if err := row.Scan(&appointmentID, &patientID, &a.ScheduledAt, &a.Doctor,
		&a.Specialty, &a.Notes, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.ID = id.AppointmentID(appointmentID)
	a.PatientID = id.PatientID(patientID)
	a.Status = models.Status(status)
	a.ScheduledAt = a.ScheduledAt.UTC()
	return &a, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
