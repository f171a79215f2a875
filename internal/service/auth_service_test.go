package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/vaccine-scheduler/internal/domain"
	"github.com/spec-kit/vaccine-scheduler/internal/events"
	apperrors "github.com/spec-kit/vaccine-scheduler/pkg/util/errorutil"
)

func TestRegisterEnforcesPerKindUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, domain.UserKindPatient, "alice")
	assert.NotEmpty(t, user.Salt)
	assert.NotEmpty(t, user.Hash)

	_, err := f.auth.Register(ctx, domain.UserKindPatient, "alice", "Str0ng!pass")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUsernameTaken))

	_, err = f.auth.Register(ctx, domain.UserKindCaregiver, "alice", "Str0ng!pass")
	assert.NoError(t, err)

	require.Len(t, *f.published, 2)
	assert.Equal(t, events.EventUserRegistered, (*f.published)[0].Type)
}

func TestRegisterRejectsWeakPasswords(t *testing.T) {
	f := newFixture(t)
	for i, pw := range []string{"alllower1!", "ALLUPPER1!", "NoDigits!!", "NoSpecial12", "Sh0rt!"} {
		_, err := f.auth.Register(context.Background(), domain.UserKindPatient, fmt.Sprintf("user%d", i), pw)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeWeakPassword), pw)
	}

	_, err := f.auth.Register(context.Background(), domain.UserKindPatient, "bob", "short1!A")
	assert.NoError(t, err, "exactly eight characters is enough")
}

func TestRegisterChecksUsernameBeforePassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, domain.UserKindCaregiver, "carol")

	_, err := f.auth.Register(context.Background(), domain.UserKindCaregiver, "carol", "weak")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUsernameTaken))
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, domain.UserKindPatient, "alice")

	u, err := f.auth.Authenticate(ctx, domain.UserKindPatient, "alice", "Str0ng!pass")
	require.NoError(t, err)
	assert.True(t, u.IsPatient())

	tests := []struct {
		name     string
		kind     domain.UserKind
		username string
		password string
	}{
		{"wrong password", domain.UserKindPatient, "alice", "Wr0ng!pass"},
		{"unknown user", domain.UserKindPatient, "nobody", "Str0ng!pass"},
		{"wrong kind", domain.UserKindCaregiver, "alice", "Str0ng!pass"},
		{"case sensitive", domain.UserKindPatient, "Alice", "Str0ng!pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Authenticate(ctx, tt.kind, tt.username, tt.password)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeBadCredentials))
		})
	}
}
