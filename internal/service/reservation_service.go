package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/vaccine-scheduler/internal/auth"
	"github.com/spec-kit/vaccine-scheduler/internal/domain"
	"github.com/spec-kit/vaccine-scheduler/internal/events"
	"github.com/spec-kit/vaccine-scheduler/internal/observability"
	"github.com/spec-kit/vaccine-scheduler/internal/repository"
	apperrors "github.com/spec-kit/vaccine-scheduler/pkg/util/errorutil"
)

// ReservationService books, cancels and lists appointments.
type ReservationService struct {
	store         repository.Store
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	cancelEnabled bool
}

// ReservationDependencies bundles requirements for the reservation service.
type ReservationDependencies struct {
	Store         repository.Store
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	CancelEnabled bool
}

// NewReservationService constructs the service.
func NewReservationService(deps ReservationDependencies) *ReservationService {
	return &ReservationService{
		store:         deps.Store,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        loggerOrNop(deps.Logger),
		cancelEnabled: deps.CancelEnabled,
	}
}

// Reserve books the first free caregiver on date for the named vaccine.
//
// Checks run in order: patient session, vaccine exists, a caregiver has an
// unclaimed availability on date, the vaccine has a dose left. The booking
// then inserts the appointment, takes one dose and removes the caregiver's
// availability for date in one unit of work.
func (s *ReservationService) Reserve(ctx context.Context, patient *domain.User, date time.Time, vaccine string) (*domain.Appointment, error) {
	if err := auth.RequirePatient(patient); err != nil {
		return nil, err
	}

	var appt domain.Appointment
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		v, err := r.Vaccines.GetForUpdate(ctx, vaccine)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("vaccine", map[string]any{"vaccine": vaccine})
			}
			return err
		}

		caregiver, err := r.Availability.FirstUnbooked(ctx, date)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return noAvailability(date, vaccine)
			}
			return err
		}

		if !v.HasDoses() {
			return insufficientDoses(vaccine)
		}

		appt = domain.Appointment{
			Patient:   patient.Username,
			Caregiver: caregiver,
			Vaccine:   v.Name,
			Date:      date,
		}
		if err := r.Appointments.Create(ctx, &appt); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return noAvailability(date, vaccine)
			}
			return err
		}
		if err := r.Vaccines.DecrementOne(ctx, v.Name); err != nil {
			if errors.Is(err, repository.ErrInsufficientDoses) {
				return insufficientDoses(vaccine)
			}
			return err
		}
		_, err = r.Availability.DeleteForCaregiver(ctx, caregiver, date)
		return err
	})
	if err != nil {
		err = asDomainError(err)
		s.metrics.RecordReservation(reservationOutcome(err))
		return nil, err
	}

	s.metrics.RecordReservation("booked")
	event := events.New(events.EventAppointmentReserved, events.ActorFor(patient), events.AppointmentPayloadFor(appt))
	event.AppointmentID = appt.ID
	publish(ctx, s.dispatcher, s.logger, event)
	return &appt, nil
}

// CancelEnabled reports whether Cancel is available.
func (s *ReservationService) CancelEnabled() bool {
	return s.cancelEnabled
}

// Cancel undoes a reservation: the appointment is removed, the caregiver's
// availability for that date is restored and the dose is returned to stock.
// Only the appointment's patient or caregiver may cancel it; to anyone else
// the appointment does not exist.
func (s *ReservationService) Cancel(ctx context.Context, actor *domain.User, id int64) (*domain.Appointment, error) {
	if !s.cancelEnabled {
		return nil, apperrors.NewUnsupported("cancel is not supported")
	}
	if err := auth.RequireAny(actor); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidID, "appointment id must be positive",
			map[string]any{"id": id})
	}

	var appt domain.Appointment
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		found, err := r.Appointments.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("appointment", map[string]any{"id": id})
			}
			return err
		}
		if !found.Involves(actor) {
			return apperrors.NewNotFound("appointment", map[string]any{"id": id})
		}
		appt = *found

		if err := r.Appointments.Delete(ctx, id); err != nil {
			return err
		}
		if _, err := r.Availability.Create(ctx, appt.Caregiver, appt.Date); err != nil {
			return err
		}
		_, err = r.Vaccines.AddDoses(ctx, appt.Vaccine, 1)
		return err
	})
	if err != nil {
		return nil, asDomainError(err)
	}

	event := events.New(events.EventAppointmentCancelled, events.ActorFor(actor), events.AppointmentPayloadFor(appt))
	event.AppointmentID = appt.ID
	publish(ctx, s.dispatcher, s.logger, event)
	return &appt, nil
}

// ListAppointments returns the user's appointments ordered by id.
func (s *ReservationService) ListAppointments(ctx context.Context, user *domain.User) ([]domain.Appointment, error) {
	if err := auth.RequireAny(user); err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	var (
		list []domain.Appointment
		err  error
	)
	if user.IsPatient() {
		list, err = repos.Appointments.ListByPatient(ctx, user.Username)
	} else {
		list, err = repos.Appointments.ListByCaregiver(ctx, user.Username)
	}
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	return list, nil
}

func noAvailability(date time.Time, vaccine string) error {
	return apperrors.NewConflict(apperrors.CodeNoAvailability, "no caregiver available",
		map[string]any{"date": domain.FormatDate(date), "vaccine": vaccine})
}

func insufficientDoses(vaccine string) error {
	return apperrors.NewConflict(apperrors.CodeInsufficientDoses, "not enough doses",
		map[string]any{"vaccine": vaccine})
}

// asDomainError keeps domain errors raised inside a unit of work and wraps
// everything else as a store failure.
func asDomainError(err error) error {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return de
	}
	return apperrors.NewStoreError(err)
}

func reservationOutcome(err error) string {
	de := apperrors.ToDomainError(err)
	switch de.Code {
	case apperrors.CodeVaccineNotFound:
		return "unknown_vaccine"
	case apperrors.CodeNoAvailability:
		return "no_availability"
	case apperrors.CodeInsufficientDoses:
		return "insufficient_doses"
	default:
		return "error"
	}
}
