package careplan

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pharmetra/careplan-api/internal/model"
	"github.com/pharmetra/careplan-api/internal/repository"
	apperrors "github.com/pharmetra/careplan-api/pkg/errors"
	"github.com/pharmetra/careplan-api/pkg/logger"
	"github.com/pharmetra/careplan-api/pkg/validator"
)

// PlanGenerator produces the care plan text for an accepted submission.
type PlanGenerator interface {
	Generate(ctx context.Context, req *model.CarePlanRequest) (string, error)
}

var submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "careplan",
	Name:      "submissions_total",
	Help:      "Submission outcomes by category",
}, []string{"outcome"})

// Service orchestrates the intake pipeline:
// validate -> evaluate -> generate -> persist.
type Service struct {
	engine    *Engine
	plans     repository.CarePlanRepository
	providers repository.ProviderRepository
	validator *validator.Validator
	planner   PlanGenerator
	logger    *logger.Logger
}

func NewService(
	engine *Engine,
	plans repository.CarePlanRepository,
	providers repository.ProviderRepository,
	val *validator.Validator,
	planner PlanGenerator,
	log *logger.Logger,
) *Service {
	return &Service{
		engine:    engine,
		plans:     plans,
		providers: providers,
		validator: val,
		planner:   planner,
		logger:    log,
	}
}

// Submit runs the full intake pipeline. Nothing is written unless every
// blocking check passes and plan generation succeeds.
func (s *Service) Submit(ctx context.Context, req *model.CarePlanRequest) (*model.SubmitResult, error) {
	if err := s.validator.ValidateCarePlan(req); err != nil {
		submissionsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	decision, err := s.engine.Evaluate(ctx, req)
	if err != nil {
		submissionsTotal.WithLabelValues("storage_error").Inc()
		return nil, err
	}
	if decision.Block != nil {
		submissionsTotal.WithLabelValues("blocked").Inc()
		s.logger.Warn("submission blocked",
			"mrn", req.PatientMRN, "reason", decision.Block.Message)
		return nil, decision.Block
	}

	planText, err := s.planner.Generate(ctx, req)
	if err != nil {
		submissionsTotal.WithLabelValues("generation_failed").Inc()
		return nil, err
	}

	// Provider registration is insert-if-absent: conflicting assertions
	// were already blocked above, so a lost race here is harmless.
	if _, err := s.providers.Insert(ctx, &model.Provider{
		Name: req.ReferringProvider,
		NPI:  req.ReferringProviderNPI,
	}); err != nil {
		submissionsTotal.WithLabelValues("storage_error").Inc()
		return nil, apperrors.NewStorage(err)
	}

	plan := &model.CarePlan{
		PatientFirstName:     req.PatientFirstName,
		PatientLastName:      req.PatientLastName,
		ReferringProvider:    req.ReferringProvider,
		ReferringProviderNPI: req.ReferringProviderNPI,
		PatientMRN:           req.PatientMRN,
		PrimaryDiagnosis:     req.PrimaryDiagnosis,
		MedicationName:       req.MedicationName,
		AdditionalDiagnoses:  req.AdditionalDiagnoses,
		MedicationHistory:    req.MedicationHistory,
		PatientRecords:       req.PatientRecords,
		GeneratedPlan:        planText,
	}
	id, err := s.plans.Insert(ctx, plan)
	if err != nil {
		submissionsTotal.WithLabelValues("storage_error").Inc()
		return nil, apperrors.NewStorage(err)
	}

	submissionsTotal.WithLabelValues("accepted").Inc()
	s.logger.Info("care plan created",
		"id", id, "mrn", req.PatientMRN, "warnings", len(decision.Warnings))

	warnings := decision.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return &model.SubmitResult{
		ID:            id,
		Warnings:      warnings,
		GeneratedPlan: planText,
	}, nil
}

// Export returns every stored care plan, newest first.
func (s *Service) Export(ctx context.Context) ([]*model.CarePlan, error) {
	plans, err := s.plans.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return plans, nil
}
