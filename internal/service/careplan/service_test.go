package careplan

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmetra/careplan-api/internal/model"
	apperrors "github.com/pharmetra/careplan-api/pkg/errors"
	"github.com/pharmetra/careplan-api/pkg/logger"
	"github.com/pharmetra/careplan-api/pkg/validator"
)

func newTestService(plans *fakePlanRepo, providers *fakeProviderRepo, planner *fakePlanner) *Service {
	engine := newTestEngine(plans, providers)
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewService(engine, plans, providers, validator.New(), planner, log)
}

func submitRequest() *model.CarePlanRequest {
	return &model.CarePlanRequest{
		PatientFirstName:     "John",
		PatientLastName:      "Doe",
		ReferringProvider:    "Dr. Smith",
		ReferringProviderNPI: "1234567890",
		PatientMRN:           "123456",
		PrimaryDiagnosis:     "e11.9",
		MedicationName:       "Humira",
	}
}

func TestSubmit_HappyPath(t *testing.T) {
	plans := &fakePlanRepo{}
	providers := &fakeProviderRepo{}
	planner := &fakePlanner{text: "generated plan"}
	svc := newTestService(plans, providers, planner)

	result, err := svc.Submit(context.Background(), submitRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.ID)
	assert.Equal(t, []string{}, result.Warnings)
	assert.Equal(t, "generated plan", result.GeneratedPlan)

	require.Len(t, plans.plans, 1)
	assert.Equal(t, "E11.9", plans.plans[0].PrimaryDiagnosis)
	assert.Equal(t, "generated plan", plans.plans[0].GeneratedPlan)

	require.Len(t, providers.providers, 1)
	assert.Equal(t, "1234567890", providers.providers[0].NPI)
}

func TestSubmit_ValidationFailureWritesNothing(t *testing.T) {
	plans := &fakePlanRepo{}
	providers := &fakeProviderRepo{}
	planner := &fakePlanner{text: "generated plan"}
	svc := newTestService(plans, providers, planner)

	req := submitRequest()
	req.PatientMRN = "12ab56"

	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)

	assert.Zero(t, planner.calls)
	assert.Empty(t, plans.plans)
	assert.Empty(t, providers.providers)
}

func TestSubmit_BlockedSkipsGenerationAndPersistence(t *testing.T) {
	plans := &fakePlanRepo{plans: []*model.CarePlan{
		storedPlan(engineNow.Add(-time.Hour)),
	}}
	providers := &fakeProviderRepo{}
	planner := &fakePlanner{text: "generated plan"}
	svc := newTestService(plans, providers, planner)

	_, err := svc.Submit(context.Background(), submitRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsBlocked(err))

	assert.Zero(t, planner.calls)
	assert.Len(t, plans.plans, 1)
	assert.Empty(t, providers.providers)
}

func TestSubmit_GenerationFailureWritesNothing(t *testing.T) {
	plans := &fakePlanRepo{}
	providers := &fakeProviderRepo{}
	planner := &fakePlanner{err: apperrors.NewGeneration("failed to generate care plan", assert.AnError)}
	svc := newTestService(plans, providers, planner)

	_, err := svc.Submit(context.Background(), submitRequest())
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrGeneration, appErr.Code)

	assert.Empty(t, plans.plans)
	assert.Empty(t, providers.providers)
}

func TestSubmit_WarningsCarriedThrough(t *testing.T) {
	plans := &fakePlanRepo{plans: []*model.CarePlan{
		storedPlan(engineNow.Add(-48 * time.Hour)),
	}}
	providers := &fakeProviderRepo{}
	planner := &fakePlanner{text: "generated plan"}
	svc := newTestService(plans, providers, planner)

	req := submitRequest()
	req.PatientMRN = "999888"
	req.MedicationName = "Ozempic"

	result, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "John Doe")
	assert.Len(t, plans.plans, 2)
}

func TestExport_ReturnsNewestFirst(t *testing.T) {
	plans := &fakePlanRepo{}
	svc := newTestService(plans, &fakeProviderRepo{}, &fakePlanner{text: "p"})

	older := storedPlan(engineNow.Add(-72 * time.Hour))
	older.ID = 0
	_, err := plans.Insert(context.Background(), older)
	require.NoError(t, err)

	out, err := svc.Export(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
}
