package repository

import (
	"context"
	"time"

	"github.com/pharmetra/careplan-api/internal/model"
)

// Lookup methods return (nil, nil) when no row matches; errors are
// reserved for storage faults.

type CarePlanRepository interface {
	// Insert persists a care plan and returns its generated identifier.
	Insert(ctx context.Context, plan *model.CarePlan) (int64, error)

	// FindByMRN returns the most recent care plan for the given MRN.
	FindByMRN(ctx context.Context, mrn string) (*model.CarePlan, error)

	// FindByPatientName matches first/last name case-insensitively.
	FindByPatientName(ctx context.Context, firstName, lastName string) (*model.CarePlan, error)

	// FindDuplicate matches patient name (case-insensitive), MRN and
	// medication (case-insensitive) with created_at inside [from, to).
	FindDuplicate(ctx context.Context, firstName, lastName, mrn, medication string, from, to time.Time) (*model.CarePlan, error)

	// FindPriorMedication matches MRN and medication (case-insensitive)
	// created strictly before the given instant.
	FindPriorMedication(ctx context.Context, mrn, medication string, before time.Time) (*model.CarePlan, error)

	// ListAll returns every care plan, newest first.
	ListAll(ctx context.Context) ([]*model.CarePlan, error)
}

type ProviderRepository interface {
	FindByNPI(ctx context.Context, npi string) (*model.Provider, error)

	// FindByName matches the provider name case-insensitively.
	FindByName(ctx context.Context, name string) (*model.Provider, error)

	// Insert registers a provider unless the NPI is already taken.
	// First write wins; reports whether a row was inserted.
	Insert(ctx context.Context, provider *model.Provider) (bool, error)
}
