package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/vaccine-scheduler/internal/domain"
	"github.com/spec-kit/vaccine-scheduler/internal/repository"
	apperrors "github.com/spec-kit/vaccine-scheduler/pkg/util/errorutil"
)

func TestUploadAvailabilityRequiresCaregiver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := mustDate(t, "2024-05-01")

	_, err := f.schedule.UploadAvailability(ctx, nil, date)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotLoggedIn))

	patient := f.register(t, domain.UserKindPatient, "pat")
	_, err = f.schedule.UploadAvailability(ctx, patient, date)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeCaregiverRequired))

	cg := f.register(t, domain.UserKindCaregiver, "amy")
	a, err := f.schedule.UploadAvailability(ctx, cg, date)
	require.NoError(t, err)
	assert.Equal(t, "amy", a.Caregiver)
}

func TestAddDosesCreatesThenIncrements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cg := f.register(t, domain.UserKindCaregiver, "amy")

	v, err := f.schedule.AddDoses(ctx, cg, "Pfizer", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, v.Doses)

	v, err = f.schedule.AddDoses(ctx, cg, "Pfizer", 3)
	require.NoError(t, err)
	assert.Equal(t, 8, v.Doses)

	for _, n := range []int{0, -1} {
		_, err = f.schedule.AddDoses(ctx, cg, "Pfizer", n)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidDoseCount))
	}
}

func TestSearchListsEveryCaregiverVaccinePair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := mustDate(t, "2024-05-01")
	amy := f.register(t, domain.UserKindCaregiver, "amy")
	bob := f.register(t, domain.UserKindCaregiver, "bob")

	_, err := f.schedule.Search(ctx, nil, date)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotLoggedIn))

	_, _ = f.schedule.UploadAvailability(ctx, bob, date)
	_, _ = f.schedule.UploadAvailability(ctx, amy, date)
	_, _ = f.schedule.UploadAvailability(ctx, amy, date)
	_, _ = f.schedule.AddDoses(ctx, amy, "Pfizer", 2)

	entries, err := f.schedule.Search(ctx, amy, date)
	require.NoError(t, err)
	assert.Equal(t, []domain.ScheduleEntry{
		{Caregiver: "amy", Vaccine: "Pfizer", Doses: 2},
		{Caregiver: "bob", Vaccine: "Pfizer", Doses: 2},
	}, entries)

	entries, err = f.schedule.Search(ctx, amy, mustDate(t, "2024-05-02"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAddDosesRejectsOverflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cg := f.register(t, domain.UserKindCaregiver, "amy")

	_, err := f.schedule.AddDoses(ctx, cg, "Pfizer", repository.MaxDoses)
	require.NoError(t, err)

	_, err = f.schedule.AddDoses(ctx, cg, "Pfizer", 2)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidDoseCount))

	v, err := f.store.Repos().Vaccines.Get(ctx, "Pfizer")
	require.NoError(t, err)
	assert.Equal(t, repository.MaxDoses, v.Doses)
}
