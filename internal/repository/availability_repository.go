package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/vaccine-scheduler/internal/domain"
)

// AvailabilityRepository persists caregiver availability dates.
type AvailabilityRepository interface {
	Create(ctx context.Context, caregiver string, date time.Time) (*domain.Availability, error)
	// ListSchedule pairs every caregiver available on date with every vaccine,
	// ordered by caregiver then vaccine.
	ListSchedule(ctx context.Context, date time.Time) ([]domain.ScheduleEntry, error)
	// FirstUnbooked returns the lexicographically first caregiver available on
	// date who has no appointment on that date yet.
	FirstUnbooked(ctx context.Context, date time.Time) (string, error)
	// DeleteForCaregiver removes every availability row for the pair and
	// returns how many were removed. ErrNotFound when none existed.
	DeleteForCaregiver(ctx context.Context, caregiver string, date time.Time) (int64, error)
}

type availabilityRepository struct {
	db Querier
}

// NewAvailabilityRepository returns a Postgres-backed implementation.
func NewAvailabilityRepository(db Querier) AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) Create(ctx context.Context, caregiver string, date time.Time) (*domain.Availability, error) {
	const query = `
        INSERT INTO availabilities (caregiver, slot_date)
        VALUES ($1, $2)
        RETURNING id, caregiver, slot_date`

	var a domain.Availability
	if err := r.db.QueryRow(ctx, query, caregiver, date).Scan(&a.ID, &a.Caregiver, &a.Date); err != nil {
		return nil, fmt.Errorf("insert availability: %w", err)
	}
	return &a, nil
}

func (r *availabilityRepository) ListSchedule(ctx context.Context, date time.Time) ([]domain.ScheduleEntry, error) {
	const query = `
        SELECT DISTINCT a.caregiver, v.name, v.doses
        FROM availabilities a
        CROSS JOIN vaccines v
        WHERE a.slot_date=$1
        ORDER BY a.caregiver, v.name`

	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	defer rows.Close()

	var result []domain.ScheduleEntry
	for rows.Next() {
		var e domain.ScheduleEntry
		if err := rows.Scan(&e.Caregiver, &e.Vaccine, &e.Doses); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *availabilityRepository) FirstUnbooked(ctx context.Context, date time.Time) (string, error) {
	const query = `
        SELECT a.caregiver
        FROM availabilities a
        WHERE a.slot_date=$1
          AND NOT EXISTS (
              SELECT 1 FROM appointments ap
              WHERE ap.caregiver = a.caregiver AND ap.slot_date = a.slot_date)
        ORDER BY a.caregiver
        LIMIT 1
        FOR UPDATE`

	var caregiver string
	if err := r.db.QueryRow(ctx, query, date).Scan(&caregiver); err != nil {
		return "", mapNoRows(err)
	}
	return caregiver, nil
}

func (r *availabilityRepository) DeleteForCaregiver(ctx context.Context, caregiver string, date time.Time) (int64, error) {
	const query = `DELETE FROM availabilities WHERE caregiver=$1 AND slot_date=$2`

	cmd, err := r.db.Exec(ctx, query, caregiver, date)
	if err != nil {
		return 0, fmt.Errorf("delete availability: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return 0, ErrNotFound
	}
	return cmd.RowsAffected(), nil
}
