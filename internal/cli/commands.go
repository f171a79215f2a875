package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/spec-kit/vaccine-scheduler/internal/domain"
	apperrors "github.com/spec-kit/vaccine-scheduler/pkg/util/errorutil"
)

func invalidArguments() error {
	return apperrors.NewValidationError(apperrors.CodeInvalidArguments, "wrong number of arguments", nil)
}

func parseDate(raw string) (time.Time, error) {
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(apperrors.CodeInvalidDate, "date must be yyyy-mm-dd",
			map[string]any{"input": raw})
	}
	return d, nil
}

func (s *Shell) createPatient(ctx context.Context, args []string) error {
	return s.createUser(ctx, domain.UserKindPatient, args)
}

func (s *Shell) createCaregiver(ctx context.Context, args []string) error {
	return s.createUser(ctx, domain.UserKindCaregiver, args)
}

func (s *Shell) createUser(ctx context.Context, kind domain.UserKind, args []string) error {
	if len(args) != 2 {
		return invalidArguments()
	}
	user, err := s.auth.Register(ctx, kind, args[0], args[1])
	if err != nil {
		return err
	}
	s.println("Created user " + user.Username)
	return nil
}

func (s *Shell) loginPatient(ctx context.Context, args []string) error {
	return s.login(ctx, domain.UserKindPatient, args)
}

func (s *Shell) loginCaregiver(ctx context.Context, args []string) error {
	return s.login(ctx, domain.UserKindCaregiver, args)
}

func (s *Shell) login(ctx context.Context, kind domain.UserKind, args []string) error {
	if err := s.session.EnsureAnonymous(); err != nil {
		return err
	}
	if len(args) != 2 {
		return invalidArguments()
	}
	user, err := s.auth.Authenticate(ctx, kind, args[0], args[1])
	if err != nil {
		return err
	}
	if err := s.session.Login(user); err != nil {
		return err
	}
	s.println("Logged in as: " + user.Username)
	return nil
}

func (s *Shell) searchCaregiverSchedule(ctx context.Context, args []string) error {
	user, err := s.session.RequireAny()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return invalidArguments()
	}
	date, err := parseDate(args[0])
	if err != nil {
		return err
	}

	entries, err := s.schedule.Search(ctx, user, date)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		s.println("No available caregivers for the given date.")
		return nil
	}
	s.println("Available caregivers for " + domain.FormatDate(date) + ":")
	for _, e := range entries {
		s.printf("%s %s %d\n", e.Caregiver, e.Vaccine, e.Doses)
	}
	return nil
}

func (s *Shell) reserve(ctx context.Context, args []string) error {
	patient, err := s.session.RequirePatient()
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return invalidArguments()
	}
	date, err := parseDate(args[0])
	if err != nil {
		return err
	}

	appt, err := s.reservations.Reserve(ctx, patient, date, args[1])
	if err != nil {
		return err
	}
	s.printf("Appointment ID: %d, Caregiver username: %s\n", appt.ID, appt.Caregiver)
	return nil
}

func (s *Shell) uploadAvailability(ctx context.Context, args []string) error {
	caregiver, err := s.session.RequireCaregiver()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return invalidArguments()
	}
	date, err := parseDate(args[0])
	if err != nil {
		return err
	}

	if _, err := s.schedule.UploadAvailability(ctx, caregiver, date); err != nil {
		return err
	}
	s.println("Availability uploaded!")
	return nil
}

func (s *Shell) cancel(ctx context.Context, args []string) error {
	if !s.reservations.CancelEnabled() {
		return apperrors.NewUnsupported("cancel is not supported")
	}
	user, err := s.session.RequireAny()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return invalidArguments()
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return apperrors.NewValidationError(apperrors.CodeInvalidID, "appointment id must be an integer",
			map[string]any{"input": args[0]})
	}

	appt, err := s.reservations.Cancel(ctx, user, id)
	if err != nil {
		return err
	}
	s.printf("Appointment %d cancelled.\n", appt.ID)
	return nil
}

func (s *Shell) addDoses(ctx context.Context, args []string) error {
	caregiver, err := s.session.RequireCaregiver()
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return invalidArguments()
	}
	count, err := strconv.Atoi(args[1])
	if err != nil {
		return apperrors.NewValidationError(apperrors.CodeInvalidDoseCount, "dose count must be an integer",
			map[string]any{"input": args[1]})
	}

	if _, err := s.schedule.AddDoses(ctx, caregiver, args[0], count); err != nil {
		return err
	}
	s.println("Doses updated!")
	return nil
}

func (s *Shell) showAppointments(ctx context.Context, _ []string) error {
	user, err := s.session.RequireAny()
	if err != nil {
		return err
	}

	list, err := s.reservations.ListAppointments(ctx, user)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		s.println("No appointments found for the current user.")
		return nil
	}

	label := "Patient: "
	if user.IsPatient() {
		label = "Caregiver: "
	}
	s.println("Appointments:")
	for _, a := range list {
		s.printf("Appointment ID: %d\n", a.ID)
		s.println("Vaccine: " + a.Vaccine)
		s.println("Date: " + domain.FormatDate(a.Date))
		s.println(label + a.Counterpart(user.Kind))
	}
	return nil
}

func (s *Shell) logout(_ context.Context, _ []string) error {
	if _, err := s.session.Logout(); err != nil {
		return err
	}
	s.println("Successfully logged out!")
	return nil
}
