package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/vaccine-scheduler/internal/auth"
	"github.com/spec-kit/vaccine-scheduler/internal/config"
	"github.com/spec-kit/vaccine-scheduler/internal/domain"
	"github.com/spec-kit/vaccine-scheduler/internal/events"
	"github.com/spec-kit/vaccine-scheduler/internal/observability"
	"github.com/spec-kit/vaccine-scheduler/internal/repository/memory"
)

type fixture struct {
	store        *memory.Store
	dispatcher   events.Dispatcher
	published    *[]events.Event
	metrics      *observability.Metrics
	auth         *AuthService
	schedule     *ScheduleService
	reservations *ReservationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	published := &[]events.Event{}
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			*published = append(*published, e)
			return nil
		})
	}
	metrics := observability.NewMetrics()

	return &fixture{
		store:      store,
		dispatcher: dispatcher,
		published:  published,
		metrics:    metrics,
		auth: NewAuthService(AuthDependencies{
			Store:      store,
			Hasher:     auth.NewHasher(config.AuthConfig{PBKDF2Iterations: 10}),
			Dispatcher: dispatcher,
		}),
		schedule: NewScheduleService(ScheduleDependencies{Store: store, Dispatcher: dispatcher}),
		reservations: NewReservationService(ReservationDependencies{
			Store:         store,
			Dispatcher:    dispatcher,
			Metrics:       metrics,
			CancelEnabled: true,
		}),
	}
}

func (f *fixture) register(t *testing.T, kind domain.UserKind, username string) *domain.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), kind, username, "Str0ng!pass")
	require.NoError(t, err)
	return u
}

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(raw)
	require.NoError(t, err)
	return d
}
