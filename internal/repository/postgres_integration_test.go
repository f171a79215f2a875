package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/vaccine-scheduler/internal/config"
	"github.com/spec-kit/vaccine-scheduler/internal/domain"
	"github.com/spec-kit/vaccine-scheduler/internal/persistence"
	"github.com/spec-kit/vaccine-scheduler/internal/repository"
)

// openPool connects to POSTGRES_TEST_DSN, applies migrations and truncates
// every table. The test is skipped when the variable is unset.
func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set; skipping postgres integration test")
	}

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, config.PostgresConfig{DSN: dsn, MaxConns: 4}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pg.Pool, "../../migrations", zap.NewNop()))
	_, err = pg.Pool.Exec(ctx, `TRUNCATE appointments, availabilities, vaccines, patients, caregivers RESTART IDENTITY`)
	require.NoError(t, err)
	return pg.Pool
}

func openStore(t *testing.T) *repository.PostgresStore {
	t.Helper()
	return repository.NewPostgresStore(openPool(t), repository.StoreOptions{MaxRetries: 3})
}

func TestPostgresReservationRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	repos := store.Repos()

	date, err := domain.ParseDate("2024-05-01")
	require.NoError(t, err)

	require.NoError(t, repos.Users.Create(ctx, &domain.User{Kind: domain.UserKindCaregiver, Username: "amy", Salt: []byte{1}, Hash: []byte{2}}))
	require.NoError(t, repos.Users.Create(ctx, &domain.User{Kind: domain.UserKindPatient, Username: "pat", Salt: []byte{1}, Hash: []byte{2}}))
	assert.ErrorIs(t, repos.Users.Create(ctx, &domain.User{Kind: domain.UserKindPatient, Username: "pat", Salt: []byte{1}, Hash: []byte{2}}), repository.ErrDuplicate)

	_, err = repos.Availability.Create(ctx, "amy", date)
	require.NoError(t, err)
	_, err = repos.Availability.Create(ctx, "amy", date)
	require.NoError(t, err)
	v, err := repos.Vaccines.AddDoses(ctx, "Pfizer", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Doses)

	entries, err := repos.Availability.ListSchedule(ctx, date)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	var appt domain.Appointment
	require.NoError(t, store.WithinTx(ctx, func(r repository.Repositories) error {
		cg, err := r.Availability.FirstUnbooked(ctx, date)
		if err != nil {
			return err
		}
		appt = domain.Appointment{Patient: "pat", Caregiver: cg, Vaccine: "Pfizer", Date: date}
		if err := r.Appointments.Create(ctx, &appt); err != nil {
			return err
		}
		if err := r.Vaccines.DecrementOne(ctx, "Pfizer"); err != nil {
			return err
		}
		_, err = r.Availability.DeleteForCaregiver(ctx, cg, date)
		return err
	}))
	assert.Positive(t, appt.ID)

	assert.ErrorIs(t, repos.Vaccines.DecrementOne(ctx, "Pfizer"), repository.ErrInsufficientDoses)
	_, err = repos.Availability.FirstUnbooked(ctx, date)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := repos.Appointments.ListByCaregiver(ctx, "amy")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "pat", list[0].Patient)
	assert.True(t, domain.SameDay(date, list[0].Date))
}

func TestWithinTxRetriesSerializationFailures(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()

	var retries []int
	store := repository.NewPostgresStore(pool, repository.StoreOptions{
		MaxRetries: 3,
		OnRetry:    func(attempt int, _ error) { retries = append(retries, attempt) },
	})

	calls := 0
	err := store.WithinTx(ctx, func(r repository.Repositories) error {
		calls++
		if _, err := r.Vaccines.AddDoses(ctx, "Pfizer", 5); err != nil {
			return err
		}
		if calls == 1 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{1}, retries)

	v, err := store.Repos().Vaccines.Get(ctx, "Pfizer")
	require.NoError(t, err)
	assert.Equal(t, 5, v.Doses)
}

func TestWithinTxGivesUpAfterMaxRetries(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()

	retries := 0
	store := repository.NewPostgresStore(pool, repository.StoreOptions{
		MaxRetries: 2,
		OnRetry:    func(int, error) { retries++ },
	})

	calls := 0
	err := store.WithinTx(ctx, func(repository.Repositories) error {
		calls++
		return &pgconn.PgError{Code: "40P01"}
	})
	assert.True(t, repository.IsSerializationFailure(err))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries)

	calls = 0
	err = store.WithinTx(ctx, func(repository.Repositories) error {
		calls++
		return repository.ErrNotFound
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 1, calls)
}
