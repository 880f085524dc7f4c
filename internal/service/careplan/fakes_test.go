package careplan

import (
	"context"
	"strings"
	"time"

	"github.com/pharmetra/careplan-api/internal/model"
)

// In-memory record store fakes mirroring the sqlite query semantics.

type fakePlanRepo struct {
	plans  []*model.CarePlan
	nextID int64
	err    error
}

func (r *fakePlanRepo) Insert(_ context.Context, plan *model.CarePlan) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.nextID++
	plan.ID = r.nextID
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	r.plans = append(r.plans, plan)
	return plan.ID, nil
}

func (r *fakePlanRepo) FindByMRN(_ context.Context, mrn string) (*model.CarePlan, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, p := range r.plans {
		if p.PatientMRN == mrn {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePlanRepo) FindByPatientName(_ context.Context, firstName, lastName string) (*model.CarePlan, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, p := range r.plans {
		if strings.EqualFold(p.PatientFirstName, firstName) && strings.EqualFold(p.PatientLastName, lastName) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePlanRepo) FindDuplicate(_ context.Context, firstName, lastName, mrn, medication string, from, to time.Time) (*model.CarePlan, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, p := range r.plans {
		if strings.EqualFold(p.PatientFirstName, firstName) &&
			strings.EqualFold(p.PatientLastName, lastName) &&
			p.PatientMRN == mrn &&
			strings.EqualFold(p.MedicationName, medication) &&
			!p.CreatedAt.Before(from) && p.CreatedAt.Before(to) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePlanRepo) FindPriorMedication(_ context.Context, mrn, medication string, before time.Time) (*model.CarePlan, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, p := range r.plans {
		if p.PatientMRN == mrn && strings.EqualFold(p.MedicationName, medication) && p.CreatedAt.Before(before) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePlanRepo) ListAll(_ context.Context) ([]*model.CarePlan, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*model.CarePlan, len(r.plans))
	copy(out, r.plans)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

type fakeProviderRepo struct {
	providers []*model.Provider
	err       error
}

func (r *fakeProviderRepo) FindByNPI(_ context.Context, npi string) (*model.Provider, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, p := range r.providers {
		if p.NPI == npi {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeProviderRepo) FindByName(_ context.Context, name string) (*model.Provider, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, p := range r.providers {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeProviderRepo) Insert(_ context.Context, provider *model.Provider) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	for _, p := range r.providers {
		if p.NPI == provider.NPI {
			return false, nil
		}
	}
	r.providers = append(r.providers, provider)
	return true, nil
}

type fakePlanner struct {
	text  string
	err   error
	calls int
}

func (p *fakePlanner) Generate(_ context.Context, _ *model.CarePlanRequest) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.text, nil
}
