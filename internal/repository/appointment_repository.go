package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/vaccine-scheduler/internal/domain"
)

// AppointmentRepository persists booked appointments. Ids come from an
// identity column and are never reused.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *domain.Appointment) error
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	ListByPatient(ctx context.Context, patient string) ([]domain.Appointment, error)
	ListByCaregiver(ctx context.Context, caregiver string) ([]domain.Appointment, error)
	Delete(ctx context.Context, id int64) error
}

type appointmentRepository struct {
	db Querier
}

// NewAppointmentRepository returns a Postgres-backed implementation.
func NewAppointmentRepository(db Querier) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appt *domain.Appointment) error {
	const query = `
        INSERT INTO appointments (patient, caregiver, vaccine, slot_date)
        VALUES ($1, $2, $3, $4)
        RETURNING id`

	if err := r.db.QueryRow(ctx, query,
		appt.Patient,
		appt.Caregiver,
		appt.Vaccine,
		appt.Date,
	).Scan(&appt.ID); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	const query = `
        SELECT id, patient, caregiver, vaccine, slot_date
        FROM appointments WHERE id=$1`

	var a domain.Appointment
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.Patient,
		&a.Caregiver,
		&a.Vaccine,
		&a.Date,
	); err != nil {
		return nil, mapNoRows(err)
	}
	return &a, nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patient string) ([]domain.Appointment, error) {
	const query = `
        SELECT id, patient, caregiver, vaccine, slot_date
        FROM appointments WHERE patient=$1
        ORDER BY id`
	return r.list(ctx, query, patient)
}

func (r *appointmentRepository) ListByCaregiver(ctx context.Context, caregiver string) ([]domain.Appointment, error) {
	const query = `
        SELECT id, patient, caregiver, vaccine, slot_date
        FROM appointments WHERE caregiver=$1
        ORDER BY id`
	return r.list(ctx, query, caregiver)
}

func (r *appointmentRepository) list(ctx context.Context, query string, arg string) ([]domain.Appointment, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var result []domain.Appointment
	for rows.Next() {
		var a domain.Appointment
		if err := rows.Scan(&a.ID, &a.Patient, &a.Caregiver, &a.Vaccine, &a.Date); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *appointmentRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
