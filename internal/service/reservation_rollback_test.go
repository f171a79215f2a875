package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/vaccine-scheduler/internal/domain"
	"github.com/spec-kit/vaccine-scheduler/internal/events"
	"github.com/spec-kit/vaccine-scheduler/internal/repository"
	apperrors "github.com/spec-kit/vaccine-scheduler/pkg/util/errorutil"
)

var errDiskFull = errors.New("disk full")

// faultyStore fails one step of every unit of work it runs.
type faultyStore struct {
	repository.Store
	failDecrement bool
	failDelete    bool
}

func (s *faultyStore) WithinTx(ctx context.Context, fn func(repository.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(r repository.Repositories) error {
		if s.failDecrement {
			r.Vaccines = failingVaccines{r.Vaccines}
		}
		if s.failDelete {
			r.Availability = failingAvailability{r.Availability}
		}
		return fn(r)
	})
}

type failingVaccines struct {
	repository.VaccineRepository
}

func (failingVaccines) DecrementOne(context.Context, string) error {
	return errDiskFull
}

type failingAvailability struct {
	repository.AvailabilityRepository
}

func (failingAvailability) DeleteForCaregiver(context.Context, string, time.Time) (int64, error) {
	return 0, errDiskFull
}

func TestReserveFailureLeavesNoPartialEffects(t *testing.T) {
	cases := []struct {
		name  string
		store func(repository.Store) *faultyStore
	}{
		{"dose decrement fails", func(s repository.Store) *faultyStore { return &faultyStore{Store: s, failDecrement: true} }},
		{"availability delete fails", func(s repository.Store) *faultyStore { return &faultyStore{Store: s, failDelete: true} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			date := mustDate(t, "2024-05-01")
			amy := f.register(t, domain.UserKindCaregiver, "amy")
			pat := f.register(t, domain.UserKindPatient, "pat")
			_, err := f.schedule.AddDoses(ctx, amy, "Pfizer", 1)
			require.NoError(t, err)
			_, err = f.schedule.UploadAvailability(ctx, amy, date)
			require.NoError(t, err)
			*f.published = nil

			broken := NewReservationService(ReservationDependencies{
				Store:      tc.store(f.store),
				Dispatcher: f.dispatcher,
				Metrics:    f.metrics,
			})
			_, err = broken.Reserve(ctx, pat, date, "Pfizer")
			require.Error(t, err)
			assert.Equal(t, apperrors.KindStore, apperrors.ToDomainError(err).Kind)
			assert.ErrorIs(t, err, errDiskFull)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReservationCounter("error")))

			v, err := f.store.Repos().Vaccines.Get(ctx, "Pfizer")
			require.NoError(t, err)
			assert.Equal(t, 1, v.Doses)

			list, err := f.reservations.ListAppointments(ctx, pat)
			require.NoError(t, err)
			assert.Empty(t, list)

			schedule, err := f.schedule.Search(ctx, pat, date)
			require.NoError(t, err)
			require.Len(t, schedule, 1)
			assert.Equal(t, "amy", schedule[0].Caregiver)

			for _, e := range *f.published {
				assert.NotEqual(t, events.EventAppointmentReserved, e.Type)
			}

			appt, err := f.reservations.Reserve(ctx, pat, date, "Pfizer")
			require.NoError(t, err)
			assert.Equal(t, "amy", appt.Caregiver)
		})
	}
}
