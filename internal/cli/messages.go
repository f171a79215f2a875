package cli

import (
	apperrors "github.com/spec-kit/vaccine-scheduler/pkg/util/errorutil"
)

const msgTryAgain = "Please try again!"

// defaultMessages maps error codes to what every command prints unless the
// command overrides it.
var defaultMessages = map[string]string{
	apperrors.CodeInvalidArguments:    msgTryAgain,
	apperrors.CodeInvalidDoseCount:    msgTryAgain,
	apperrors.CodeStoreError:          msgTryAgain,
	apperrors.CodeInvalidDate:         "Invalid date format! Please enter a date in the format yyyy-mm-dd.",
	apperrors.CodeNotLoggedIn:         "Please login first!",
	apperrors.CodePatientRequired:     "Please login as a patient first!",
	apperrors.CodeCaregiverRequired:   "Please login as a caregiver first!",
	apperrors.CodeAlreadyLoggedIn:     "User already logged in.",
	apperrors.CodeVaccineNotFound:     "Invalid vaccine name! Please enter a valid vaccine.",
	apperrors.CodeNoAvailability:      "No available caregiver for the given date and vaccine.",
	apperrors.CodeInsufficientDoses:   "Not enough available doses!",
	apperrors.CodeAppointmentNotFound: "Appointment not found.",
	apperrors.CodeInvalidID:           "Invalid appointment id!",
	apperrors.CodeUnsupported:         "Cancel is not supported.",
}

var createUserMessages = map[string]string{
	apperrors.CodeInvalidArguments: "Failed to create user.",
	apperrors.CodeStoreError:       "Failed to create user.",
	apperrors.CodeUsernameTaken:    "Username taken, try again!",
	apperrors.CodeWeakPassword:     "Password is weak! Please choose a stronger password.",
}

var loginMessages = map[string]string{
	apperrors.CodeInvalidArguments: "Login failed.",
	apperrors.CodeStoreError:       "Login failed.",
	apperrors.CodeBadCredentials:   "Login failed.",
}

var uploadMessages = map[string]string{
	apperrors.CodeStoreError: "Error occurred when uploading availability",
}

var addDosesMessages = map[string]string{
	apperrors.CodeStoreError: "Error occurred when adding doses",
}

var logoutMessages = map[string]string{
	apperrors.CodeNotLoggedIn: "No user logged in.",
}

// messageFor resolves the line printed for a failed command.
func messageFor(overrides map[string]string, err error) string {
	code := apperrors.ToDomainError(err).Code
	if msg, ok := overrides[code]; ok {
		return msg
	}
	if msg, ok := defaultMessages[code]; ok {
		return msg
	}
	return msgTryAgain
}
