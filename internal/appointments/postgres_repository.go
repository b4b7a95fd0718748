package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in Postgres.
type PostgresRepository struct {
	db rowQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db rowQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	id := uuid.New()
	if appt.Status == "" {
		appt.Status = StatusPending
	}
	query := `
		INSERT INTO appointments (id, reference, patient_name, phone, email, department, doctor, appointment_date, appointment_time, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		id,
		appt.Reference,
		appt.Name,
		appt.Phone,
		appt.Email,
		appt.Department,
		appt.Doctor,
		appt.Date,
		appt.Time,
		appt.Reason,
		appt.Status,
	).Scan(&appt.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateReference
		}
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	appt.ID = id.String()
	return nil
}

// GetByReference fetches an appointment by its public reference number.
func (r *PostgresRepository) GetByReference(ctx context.Context, reference string) (*Appointment, error) {
	query := `
		SELECT id, reference, patient_name, phone, email, department, doctor, appointment_date, appointment_time, reason, status, created_at
		FROM appointments
		WHERE reference = $1
	`
	var appt Appointment
	if err := r.db.QueryRow(ctx, query, reference).Scan(
		&appt.ID,
		&appt.Reference,
		&appt.Name,
		&appt.Phone,
		&appt.Email,
		&appt.Department,
		&appt.Doctor,
		&appt.Date,
		&appt.Time,
		&appt.Reason,
		&appt.Status,
		&appt.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return &appt, nil
}
