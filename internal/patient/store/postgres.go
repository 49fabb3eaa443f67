package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"clinic/internal/patient/models"
	"clinic/internal/platform/database"
	"clinic/pkg/cpf"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/sentinel"
	txcontext "clinic/pkg/platform/tx"
)

// PostgresStore persists patients in the patients table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed patient store.
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

const patientColumns = `id, name, cpf, phone, email, birth_date, address, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, p *models.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(p.ID), p.Name, p.CPF.Digits(), p.Phone, p.Email,
		nullDate(p.BirthDate), p.Address, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, p *models.Patient) error {
	query := `
		UPDATE patients
		SET name = $2, cpf = $3, phone = $4, email = $5, birth_date = $6,
		    address = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(p.ID), p.Name, p.CPF.Digits(), p.Phone, p.Email,
		nullDate(p.BirthDate), p.Address, p.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update patient: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update patient rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, patientID id.PatientID) (*models.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	return s.findOne(ctx, query, uuid.UUID(patientID))
}

func (s *PostgresStore) FindByCPF(ctx context.Context, digits string) (*models.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE cpf = $1`
	return s.findOne(ctx, query, digits)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Patient, error) {
	p, err := scanPatient(s.execer(ctx).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY LOWER(name), id`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var out []*models.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, patientID id.PatientID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, uuid.UUID(patientID))
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete patient rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// DeleteAll removes every patient; appointments follow via ON DELETE CASCADE.
func (s *PostgresStore) DeleteAll(ctx context.Context) (int, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM patients`)
	if err != nil {
		return 0, fmt.Errorf("delete all patients: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all patients rows affected: %w", err)
	}
	return int(rows), nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) NamesByIDs(ctx context.Context, ids []id.PatientID) (map[id.PatientID]string, error) {
	names := make(map[id.PatientID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	raw := make([]string, len(ids))
	for i, patientID := range ids {
		raw[i] = patientID.String()
	}
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT id, name FROM patients WHERE id = ANY($1::uuid[])`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("query patient names: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			patientID uuid.UUID
			name      string
		)
		if err := rows.Scan(&patientID, &name); err != nil {
			return nil, fmt.Errorf("scan patient name: %w", err)
		}
		names[id.PatientID(patientID)] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patient names: %w", err)
	}
	return names, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*models.Patient, error) {
	var (
		patientID uuid.UUID
		digits    string
		birthDate sql.NullTime
		p         models.Patient
	)
	if err := row.Scan(&patientID, &p.Name, &digits, &p.Phone, &p.Email,
		&birthDate, &p.Address, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	identifier, err := cpf.Parse(digits)
	if err != nil {
		return nil, fmt.Errorf("stored cpf %q: %w", digits, err)
	}
	p.ID = id.PatientID(patientID)
	p.CPF = identifier
	if birthDate.Valid {
		bd := time.Date(birthDate.Time.Year(), birthDate.Time.Month(), birthDate.Time.Day(), 0, 0, 0, 0, time.UTC)
		p.BirthDate = &bd
	}
	return &p, nil
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
