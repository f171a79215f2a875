package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/vaccine-scheduler/internal/auth"
	"github.com/spec-kit/vaccine-scheduler/internal/domain"
	"github.com/spec-kit/vaccine-scheduler/internal/events"
	"github.com/spec-kit/vaccine-scheduler/internal/repository"
	apperrors "github.com/spec-kit/vaccine-scheduler/pkg/util/errorutil"
)

// ScheduleService manages caregiver availability and dose inventory.
type ScheduleService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ScheduleDependencies bundles requirements for the schedule service.
type ScheduleDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(deps ScheduleDependencies) *ScheduleService {
	return &ScheduleService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
	}
}

// UploadAvailability records that the caregiver can administer doses on date.
// Uploading the same date again stores another entry.
func (s *ScheduleService) UploadAvailability(ctx context.Context, caregiver *domain.User, date time.Time) (*domain.Availability, error) {
	if err := auth.RequireCaregiver(caregiver); err != nil {
		return nil, err
	}

	a, err := s.store.Repos().Availability.Create(ctx, caregiver.Username, date)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventAvailabilityUploaded, events.ActorFor(caregiver),
		events.AvailabilityUploadedPayload{Date: domain.FormatDate(date)}))
	return a, nil
}

// Search lists every caregiver available on date paired with every vaccine.
func (s *ScheduleService) Search(ctx context.Context, user *domain.User, date time.Time) ([]domain.ScheduleEntry, error) {
	if err := auth.RequireAny(user); err != nil {
		return nil, err
	}

	entries, err := s.store.Repos().Availability.ListSchedule(ctx, date)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	return entries, nil
}

// AddDoses creates the vaccine on first use or increases its stock.
func (s *ScheduleService) AddDoses(ctx context.Context, caregiver *domain.User, vaccine string, count int) (*domain.Vaccine, error) {
	if err := auth.RequireCaregiver(caregiver); err != nil {
		return nil, err
	}
	if strings.TrimSpace(vaccine) == "" {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidArguments, "vaccine name is required", nil)
	}
	if count <= 0 {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidDoseCount, "dose count must be positive",
			map[string]any{"count": count})
	}

	v, err := s.store.Repos().Vaccines.AddDoses(ctx, vaccine, count)
	if err != nil {
		if errors.Is(err, repository.ErrOutOfRange) {
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidDoseCount, "dose count out of range",
				map[string]any{"count": count, "max": repository.MaxDoses})
		}
		return nil, apperrors.NewStoreError(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventDosesAdded, events.ActorFor(caregiver),
		events.DosesAddedPayload{Vaccine: v.Name, Added: count, Total: v.Doses}))
	return v, nil
}
