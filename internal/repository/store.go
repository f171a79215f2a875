package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInsufficientDoses is returned when a vaccine has no doses left.
	ErrInsufficientDoses = errors.New("insufficient doses")
	// ErrOutOfRange is returned when a dose count would leave the INTEGER range.
	ErrOutOfRange = errors.New("dose count out of range")
)

// MaxDoses is the largest dose count a vaccine can hold (Postgres INTEGER).
const MaxDoses = math.MaxInt32

const (
	sqlStateUniqueViolation      = "23505"
	sqlStateNumericOutOfRange    = "22003"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles every repository bound to one connection or transaction.
type Repositories struct {
	Users        UserRepository
	Availability AvailabilityRepository
	Vaccines     VaccineRepository
	Appointments AppointmentRepository
}

// Store hands out repositories and runs units of work atomically.
type Store interface {
	// Repos returns autocommit repositories.
	Repos() Repositories
	// WithinTx runs fn against transaction-scoped repositories. Any error
	// from fn rolls back every write made through them.
	WithinTx(ctx context.Context, fn func(Repositories) error) error
	Ping(ctx context.Context) error
	Close()
}

// NewRepositories binds the Postgres repositories to q.
func NewRepositories(q Querier) Repositories {
	return Repositories{
		Users:        NewUserRepository(q),
		Availability: NewAvailabilityRepository(q),
		Vaccines:     NewVaccineRepository(q),
		Appointments: NewAppointmentRepository(q),
	}
}

// StoreOptions tunes PostgresStore.
type StoreOptions struct {
	MaxRetries int
	// OnRetry is called before a unit of work is retried.
	OnRetry func(attempt int, err error)
}

// PostgresStore runs each unit of work in a SERIALIZABLE transaction and
// retries it when Postgres reports a serialization failure or deadlock.
type PostgresStore struct {
	pool       *pgxpool.Pool
	maxRetries int
	onRetry    func(attempt int, err error)
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps a pool.
func NewPostgresStore(pool *pgxpool.Pool, opts StoreOptions) *PostgresStore {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &PostgresStore{pool: pool, maxRetries: opts.MaxRetries, onRetry: opts.OnRetry}
}

func (s *PostgresStore) Repos() Repositories {
	return NewRepositories(s.pool)
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(Repositories) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := s.runTx(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if !IsSerializationFailure(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		if attempt <= s.maxRetries && s.onRetry != nil {
			s.onRetry(attempt, err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(uint(s.maxRetries)+1))
	return err
}

func (s *PostgresStore) runTx(ctx context.Context, fn func(Repositories) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(NewRepositories(tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return s.pool.Ping(ctx)
}

// Close is a no-op; the pool is owned by persistence.Postgres.
func (s *PostgresStore) Close() {}

// IsSerializationFailure reports whether err is a retryable transaction conflict.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}

func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateNumericOutOfRange
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
