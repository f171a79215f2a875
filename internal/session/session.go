// Package session tracks the identity authenticated in one interactive run.
package session

import (
	"github.com/spec-kit/vaccine-scheduler/internal/auth"
	"github.com/spec-kit/vaccine-scheduler/internal/domain"
	apperrors "github.com/spec-kit/vaccine-scheduler/pkg/util/errorutil"
)

// State is one of Anonymous, Patient or Caregiver.
type State int

const (
	Anonymous State = iota
	Patient
	Caregiver
)

func (s State) String() string {
	switch s {
	case Patient:
		return "patient"
	case Caregiver:
		return "caregiver"
	default:
		return "anonymous"
	}
}

// Session holds at most one user. It is owned by a single shell and is not
// safe for concurrent use.
type Session struct {
	user *domain.User
}

// New returns an anonymous session.
func New() *Session {
	return &Session{}
}

// State reports the current state.
func (s *Session) State() State {
	switch {
	case s.user.IsPatient():
		return Patient
	case s.user.IsCaregiver():
		return Caregiver
	default:
		return Anonymous
	}
}

// User returns the logged-in user or nil.
func (s *Session) User() *domain.User {
	return s.user
}

// EnsureAnonymous fails when someone is already logged in.
func (s *Session) EnsureAnonymous() error {
	if s.user != nil {
		return apperrors.NewUnauthorized(apperrors.CodeAlreadyLoggedIn, "user already logged in")
	}
	return nil
}

// Login moves an anonymous session to the user's role. A non-anonymous
// session is left untouched.
func (s *Session) Login(user *domain.User) error {
	if err := s.EnsureAnonymous(); err != nil {
		return err
	}
	if user == nil || !user.Kind.Valid() {
		return apperrors.NewValidationError(apperrors.CodeInvalidArguments, "user is required", nil)
	}
	s.user = user
	return nil
}

// Logout returns the session to Anonymous and reports who was logged out.
func (s *Session) Logout() (*domain.User, error) {
	if err := auth.RequireAny(s.user); err != nil {
		return nil, err
	}
	prev := s.user
	s.user = nil
	return prev, nil
}

// RequireAny returns the current user or a not-logged-in error.
func (s *Session) RequireAny() (*domain.User, error) {
	if err := auth.RequireAny(s.user); err != nil {
		return nil, err
	}
	return s.user, nil
}

// RequirePatient returns the current user when it is a patient.
func (s *Session) RequirePatient() (*domain.User, error) {
	if err := auth.RequirePatient(s.user); err != nil {
		return nil, err
	}
	return s.user, nil
}

// RequireCaregiver returns the current user when it is a caregiver.
func (s *Session) RequireCaregiver() (*domain.User, error) {
	if err := auth.RequireCaregiver(s.user); err != nil {
		return nil, err
	}
	return s.user, nil
}
