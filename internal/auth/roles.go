package auth

import (
	"github.com/spec-kit/vaccine-scheduler/internal/domain"
	apperrors "github.com/spec-kit/vaccine-scheduler/pkg/util/errorutil"
)

// RequireAny ensures some user is authenticated.
func RequireAny(user *domain.User) error {
	if user == nil {
		return apperrors.NewUnauthorized(apperrors.CodeNotLoggedIn, "login required")
	}
	return nil
}

// RequirePatient ensures a patient is authenticated.
func RequirePatient(user *domain.User) error {
	if err := RequireAny(user); err != nil {
		return err
	}
	if !user.IsPatient() {
		return apperrors.NewUnauthorized(apperrors.CodePatientRequired, "patient required")
	}
	return nil
}

// RequireCaregiver ensures a caregiver is authenticated.
func RequireCaregiver(user *domain.User) error {
	if err := RequireAny(user); err != nil {
		return err
	}
	if !user.IsCaregiver() {
		return apperrors.NewUnauthorized(apperrors.CodeCaregiverRequired, "caregiver required")
	}
	return nil
}
