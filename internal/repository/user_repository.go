package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/vaccine-scheduler/internal/domain"
)

// UserRepository defines credential persistence for patients and caregivers.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, kind domain.UserKind, username string) (*domain.User, error)
	Exists(ctx context.Context, kind domain.UserKind, username string) (bool, error)
}

type userRepository struct {
	db Querier
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db Querier) UserRepository {
	return &userRepository{db: db}
}

// tableFor maps a kind onto its table. Each kind has its own username space.
func tableFor(kind domain.UserKind) (string, error) {
	switch kind {
	case domain.UserKindPatient:
		return "patients", nil
	case domain.UserKindCaregiver:
		return "caregivers", nil
	default:
		return "", fmt.Errorf("unknown user kind %q", kind)
	}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	table, err := tableFor(user.Kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
        INSERT INTO %s (username, salt, hash)
        VALUES ($1, $2, $3)`, table)

	if _, err := r.db.Exec(ctx, query, user.Username, user.Salt, user.Hash); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func (r *userRepository) GetByUsername(ctx context.Context, kind domain.UserKind, username string) (*domain.User, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
        SELECT username, salt, hash
        FROM %s WHERE username=$1`, table)

	user := domain.User{Kind: kind}
	if err := r.db.QueryRow(ctx, query, username).Scan(
		&user.Username,
		&user.Salt,
		&user.Hash,
	); err != nil {
		return nil, mapNoRows(err)
	}
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, kind domain.UserKind, username string) (bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE username=$1)`, table)

	var exists bool
	if err := r.db.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
