package careplan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmetra/careplan-api/internal/model"
	apperrors "github.com/pharmetra/careplan-api/pkg/errors"
)

var engineNow = time.Date(2026, 8, 24, 14, 30, 0, 0, time.UTC)

func newTestEngine(plans *fakePlanRepo, providers *fakeProviderRepo) *Engine {
	e := NewEngine(plans, providers)
	e.now = func() time.Time { return engineNow }
	return e
}

func engineRequest() *model.CarePlanRequest {
	return &model.CarePlanRequest{
		PatientFirstName:     "John",
		PatientLastName:      "Doe",
		ReferringProvider:    "Dr. Smith",
		ReferringProviderNPI: "1234567890",
		PatientMRN:           "123456",
		PrimaryDiagnosis:     "E11.9",
		MedicationName:       "Humira",
	}
}

func storedPlan(createdAt time.Time) *model.CarePlan {
	return &model.CarePlan{
		ID:                   1,
		PatientFirstName:     "John",
		PatientLastName:      "Doe",
		ReferringProvider:    "Dr. Smith",
		ReferringProviderNPI: "1234567890",
		PatientMRN:           "123456",
		PrimaryDiagnosis:     "E11.9",
		MedicationName:       "Humira",
		CreatedAt:            createdAt,
	}
}

func TestEvaluate_CleanSubmission(t *testing.T) {
	e := newTestEngine(&fakePlanRepo{}, &fakeProviderRepo{})

	decision, err := e.Evaluate(context.Background(), engineRequest())
	require.NoError(t, err)
	assert.Nil(t, decision.Block)
	assert.Empty(t, decision.Warnings)
}

func TestEvaluate_ExactDuplicateTodayBlocks(t *testing.T) {
	plans := &fakePlanRepo{plans: []*model.CarePlan{
		storedPlan(engineNow.Add(-2 * time.Hour)),
	}}
	e := newTestEngine(plans, &fakeProviderRepo{})

	decision, err := e.Evaluate(context.Background(), engineRequest())
	require.NoError(t, err)
	require.NotNil(t, decision.Block)
	assert.Equal(t, apperrors.ErrDuplicateSubmission, decision.Block.Code)
	assert.Contains(t, decision.Block.Message, "already submitted today")
	// Hard stop: no warnings accumulated.
	assert.Empty(t, decision.Warnings)
}

func TestEvaluate_DuplicateMatchIsCaseInsensitive(t *testing.T) {
	plans := &fakePlanRepo{plans: []*model.CarePlan{
		storedPlan(engineNow.Add(-time.Hour)),
	}}
	e := newTestEngine(plans, &fakeProviderRepo{})

	req := engineRequest()
	req.PatientFirstName = "JOHN"
	req.PatientLastName = "doe"
	req.MedicationName = "HUMIRA"

	decision, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, decision.Block)
	assert.Equal(t, apperrors.ErrDuplicateSubmission, decision.Block.Code)
}

func TestEvaluate_SameOrderYesterdayWarnsInstead(t *testing.T) {
	plans := &fakePlanRepo{plans: []*model.CarePlan{
		storedPlan(engineNow.Add(-24 * time.Hour)),
	}}
	e := newTestEngine(plans, &fakeProviderRepo{})

	decision, err := e.Evaluate(context.Background(), engineRequest())
	require.NoError(t, err)
	assert.Nil(t, decision.Block)
	// Patient-duplicate warning first, then the prior-medication warning.
	require.Len(t, decision.Warnings, 2)
	assert.Contains(t, decision.Warnings[0], "MRN 123456")
	assert.Contains(t, decision.Warnings[1], "Humira")
	assert.Contains(t, decision.Warnings[1], "123456")
}

func TestEvaluate_ProviderConflictByNPI(t *testing.T) {
	providers := &fakeProviderRepo{providers: []*model.Provider{
		{ID: 1, Name: "Dr. Smith", NPI: "1234567890"},
	}}
	e := newTestEngine(&fakePlanRepo{}, providers)

	req := engineRequest()
	req.ReferringProvider = "Dr. Jones"

	decision, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, decision.Block)
	assert.Equal(t, apperrors.ErrProviderConflict, decision.Block.Code)
	assert.Contains(t, decision.Block.Message, "Dr. Smith")
}

func TestEvaluate_ProviderConflictByName(t *testing.T) {
	providers := &fakeProviderRepo{providers: []*model.Provider{
		{ID: 1, Name: "Dr. Smith", NPI: "1234567890"},
	}}
	e := newTestEngine(&fakePlanRepo{}, providers)

	req := engineRequest()
	req.ReferringProviderNPI = "9999999999"

	decision, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, decision.Block)
	assert.Equal(t, apperrors.ErrProviderConflict, decision.Block.Code)
	assert.Contains(t, decision.Block.Message, "1234567890")
}

func TestEvaluate_NPIDirectionCheckedFirst(t *testing.T) {
	// Both directions conflict; the NPI-direction message must win.
	providers := &fakeProviderRepo{providers: []*model.Provider{
		{ID: 1, Name: "Dr. Smith", NPI: "1234567890"},
		{ID: 2, Name: "Dr. Jones", NPI: "2222222222"},
	}}
	e := newTestEngine(&fakePlanRepo{}, providers)

	req := engineRequest()
	req.ReferringProvider = "Dr. Jones"
	req.ReferringProviderNPI = "1234567890"

	decision, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, decision.Block)
	assert.Contains(t, decision.Block.Message, `NPI 1234567890 is already registered`)
}

func TestEvaluate_SameProviderDifferentCaseIsNotAConflict(t *testing.T) {
	providers := &fakeProviderRepo{providers: []*model.Provider{
		{ID: 1, Name: "Dr. Smith", NPI: "1234567890"},
	}}
	e := newTestEngine(&fakePlanRepo{}, providers)

	req := engineRequest()
	req.ReferringProvider = "DR. SMITH"

	decision, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, decision.Block)
}

func TestEvaluate_MRNMatchYieldsSingleWarning(t *testing.T) {
	// Different patient name, same MRN, earlier day: exactly one warning,
	// naming the MRN, never a second name-based one.
	plans := &fakePlanRepo{plans: []*model.CarePlan{
		storedPlan(engineNow.Add(-48 * time.Hour)),
	}}
	e := newTestEngine(plans, &fakeProviderRepo{})

	req := engineRequest()
	req.PatientFirstName = "Jane"
	req.PatientLastName = "Roe"
	req.MedicationName = "Ozempic"

	decision, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, decision.Block)
	require.Len(t, decision.Warnings, 1)
	assert.Contains(t, decision.Warnings[0], "MRN 123456")
}

func TestEvaluate_NameMatchWarnsWhenMRNDiffers(t *testing.T) {
	plans := &fakePlanRepo{plans: []*model.CarePlan{
		storedPlan(engineNow.Add(-48 * time.Hour)),
	}}
	e := newTestEngine(plans, &fakeProviderRepo{})

	req := engineRequest()
	req.PatientMRN = "999888"
	req.MedicationName = "Ozempic"

	decision, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, decision.Block)
	require.Len(t, decision.Warnings, 1)
	assert.Contains(t, decision.Warnings[0], "John Doe")
}

func TestEvaluate_StorageFailureSurfacesAsStorageError(t *testing.T) {
	plans := &fakePlanRepo{err: assert.AnError}
	e := newTestEngine(plans, &fakeProviderRepo{})

	_, err := e.Evaluate(context.Background(), engineRequest())
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrStorage, appErr.Code)
}
