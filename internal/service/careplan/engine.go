package careplan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pharmetra/careplan-api/internal/model"
	"github.com/pharmetra/careplan-api/internal/repository"
	apperrors "github.com/pharmetra/careplan-api/pkg/errors"
)

// Decision is the outcome of evaluating a submission against prior state.
// A nil Block means the submission proceeds, carrying any warnings.
type Decision struct {
	Block    *apperrors.AppError
	Warnings []string
}

// Engine classifies submissions as blocked, warned or clean against the
// record store. It reads, never writes.
type Engine struct {
	plans     repository.CarePlanRepository
	providers repository.ProviderRepository
	now       func() time.Time
}

func NewEngine(plans repository.CarePlanRepository, providers repository.ProviderRepository) *Engine {
	return &Engine{
		plans:     plans,
		providers: providers,
		now:       time.Now,
	}
}

// Evaluate runs the blocking and warning checks in fixed order:
//
//  1. exact duplicate submitted today (hard block, short-circuits)
//  2. provider identity conflict, NPI direction before name direction (hard block)
//  3. duplicate-patient warning, MRN match taking precedence over name match
//  4. prior order of the same medication on an earlier day (warning)
//
// "Today" is the UTC calendar day.
func (e *Engine) Evaluate(ctx context.Context, req *model.CarePlanRequest) (*Decision, error) {
	now := e.now().UTC()
	dayStart := now.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	dup, err := e.plans.FindDuplicate(ctx, req.PatientFirstName, req.PatientLastName,
		req.PatientMRN, req.MedicationName, dayStart, dayEnd)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	if dup != nil {
		return &Decision{Block: apperrors.NewDuplicateSubmission(fmt.Sprintf(
			"a care plan for %s %s (MRN %s, %s) was already submitted today",
			req.PatientFirstName, req.PatientLastName, req.PatientMRN, req.MedicationName,
		))}, nil
	}

	if block, err := e.checkProviderConflict(ctx, req); err != nil {
		return nil, err
	} else if block != nil {
		return &Decision{Block: block}, nil
	}

	var warnings []string

	byMRN, err := e.plans.FindByMRN(ctx, req.PatientMRN)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	if byMRN != nil {
		warnings = append(warnings, fmt.Sprintf(
			"patient with MRN %s already exists in the system", req.PatientMRN))
	} else {
		// Name is the fuzzier identifier; only consulted when the MRN did
		// not match, so a known patient yields a single warning.
		byName, err := e.plans.FindByPatientName(ctx, req.PatientFirstName, req.PatientLastName)
		if err != nil {
			return nil, apperrors.NewStorage(err)
		}
		if byName != nil {
			warnings = append(warnings, fmt.Sprintf(
				"patient named %s %s may already exist in the system",
				req.PatientFirstName, req.PatientLastName))
		}
	}

	prior, err := e.plans.FindPriorMedication(ctx, req.PatientMRN, req.MedicationName, dayStart)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	if prior != nil {
		warnings = append(warnings, fmt.Sprintf(
			"a prior order of %s exists for MRN %s", req.MedicationName, req.PatientMRN))
	}

	return &Decision{Warnings: warnings}, nil
}

// checkProviderConflict enforces that the provider registry stays
// injective in both directions: one name per NPI, one NPI per name.
func (e *Engine) checkProviderConflict(ctx context.Context, req *model.CarePlanRequest) (*apperrors.AppError, error) {
	byNPI, err := e.providers.FindByNPI(ctx, req.ReferringProviderNPI)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	if byNPI != nil && !strings.EqualFold(byNPI.Name, req.ReferringProvider) {
		return apperrors.NewProviderConflict(fmt.Sprintf(
			"NPI %s is already registered to provider %q",
			req.ReferringProviderNPI, byNPI.Name)), nil
	}

	byName, err := e.providers.FindByName(ctx, req.ReferringProvider)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	if byName != nil && byName.NPI != req.ReferringProviderNPI {
		return apperrors.NewProviderConflict(fmt.Sprintf(
			"provider %q is already registered under a different NPI (%s)",
			req.ReferringProvider, byName.NPI)), nil
	}

	return nil, nil
}
