package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/vaccine-scheduler/internal/domain"
)

// VaccineRepository persists per-vaccine dose counters.
type VaccineRepository interface {
	// AddDoses creates the vaccine with count doses or increments it.
	// ErrOutOfRange when the total would exceed MaxDoses.
	AddDoses(ctx context.Context, name string, count int) (*domain.Vaccine, error)
	Get(ctx context.Context, name string) (*domain.Vaccine, error)
	// GetForUpdate reads the vaccine and locks its row for the transaction.
	GetForUpdate(ctx context.Context, name string) (*domain.Vaccine, error)
	// DecrementOne takes exactly one dose. ErrInsufficientDoses at zero.
	DecrementOne(ctx context.Context, name string) error
}

type vaccineRepository struct {
	db Querier
}

// NewVaccineRepository returns a Postgres-backed implementation.
func NewVaccineRepository(db Querier) VaccineRepository {
	return &vaccineRepository{db: db}
}

func (r *vaccineRepository) AddDoses(ctx context.Context, name string, count int) (*domain.Vaccine, error) {
	const query = `
        INSERT INTO vaccines (name, doses)
        VALUES ($1, $2)
        ON CONFLICT (name) DO UPDATE SET doses = vaccines.doses + EXCLUDED.doses
        RETURNING name, doses`

	if count > MaxDoses {
		return nil, ErrOutOfRange
	}

	var v domain.Vaccine
	if err := r.db.QueryRow(ctx, query, name, count).Scan(&v.Name, &v.Doses); err != nil {
		if isOutOfRange(err) {
			return nil, ErrOutOfRange
		}
		return nil, fmt.Errorf("upsert vaccine: %w", err)
	}
	return &v, nil
}

func (r *vaccineRepository) Get(ctx context.Context, name string) (*domain.Vaccine, error) {
	const query = `SELECT name, doses FROM vaccines WHERE name=$1`
	return r.scanOne(ctx, query, name)
}

func (r *vaccineRepository) GetForUpdate(ctx context.Context, name string) (*domain.Vaccine, error) {
	const query = `SELECT name, doses FROM vaccines WHERE name=$1 FOR UPDATE`
	return r.scanOne(ctx, query, name)
}

func (r *vaccineRepository) scanOne(ctx context.Context, query, name string) (*domain.Vaccine, error) {
	var v domain.Vaccine
	if err := r.db.QueryRow(ctx, query, name).Scan(&v.Name, &v.Doses); err != nil {
		return nil, mapNoRows(err)
	}
	return &v, nil
}

func (r *vaccineRepository) DecrementOne(ctx context.Context, name string) error {
	const query = `UPDATE vaccines SET doses = doses - 1 WHERE name=$1 AND doses > 0`

	cmd, err := r.db.Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("decrement vaccine: %w", err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.Get(ctx, name); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return ErrInsufficientDoses
}
