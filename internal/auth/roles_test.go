package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/vaccine-scheduler/internal/domain"
	apperrors "github.com/spec-kit/vaccine-scheduler/pkg/util/errorutil"
)

func TestRoleGuards(t *testing.T) {
	patient := &domain.User{Kind: domain.UserKindPatient, Username: "pat"}
	caregiver := &domain.User{Kind: domain.UserKindCaregiver, Username: "cg"}

	assert.True(t, apperrors.HasCode(RequireAny(nil), apperrors.CodeNotLoggedIn))
	assert.NoError(t, RequireAny(patient))

	assert.True(t, apperrors.HasCode(RequirePatient(nil), apperrors.CodeNotLoggedIn))
	assert.True(t, apperrors.HasCode(RequirePatient(caregiver), apperrors.CodePatientRequired))
	assert.NoError(t, RequirePatient(patient))

	assert.True(t, apperrors.HasCode(RequireCaregiver(nil), apperrors.CodeNotLoggedIn))
	assert.True(t, apperrors.HasCode(RequireCaregiver(patient), apperrors.CodeCaregiverRequired))
	assert.NoError(t, RequireCaregiver(caregiver))
}
