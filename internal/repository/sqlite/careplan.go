package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pharmetra/careplan-api/internal/model"
	"github.com/pharmetra/careplan-api/internal/repository"
)

type carePlanRepository struct {
	db *sqlx.DB
}

func NewCarePlanRepository(db *sqlx.DB) repository.CarePlanRepository {
	return &carePlanRepository{db: db}
}

func (r *carePlanRepository) Insert(ctx context.Context, plan *model.CarePlan) (int64, error) {
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO care_plans (
			patient_first_name, patient_last_name, referring_provider,
			referring_provider_npi, patient_mrn, primary_diagnosis,
			medication_name, additional_diagnoses, medication_history,
			patient_records, generated_plan, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		plan.PatientFirstName,
		plan.PatientLastName,
		plan.ReferringProvider,
		plan.ReferringProviderNPI,
		plan.PatientMRN,
		plan.PrimaryDiagnosis,
		plan.MedicationName,
		plan.AdditionalDiagnoses,
		plan.MedicationHistory,
		plan.PatientRecords,
		plan.GeneratedPlan,
		plan.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert care plan: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read care plan id: %w", err)
	}
	plan.ID = id
	return id, nil
}

func (r *carePlanRepository) FindByMRN(ctx context.Context, mrn string) (*model.CarePlan, error) {
	query := `SELECT * FROM care_plans WHERE patient_mrn = ? ORDER BY created_at DESC, id DESC LIMIT 1`
	return r.findOne(ctx, query, mrn)
}

func (r *carePlanRepository) FindByPatientName(ctx context.Context, firstName, lastName string) (*model.CarePlan, error) {
	query := `
		SELECT * FROM care_plans
		WHERE LOWER(patient_first_name) = LOWER(?)
		AND LOWER(patient_last_name) = LOWER(?)
		ORDER BY created_at DESC, id DESC LIMIT 1
	`
	return r.findOne(ctx, query, firstName, lastName)
}

func (r *carePlanRepository) FindDuplicate(ctx context.Context, firstName, lastName, mrn, medication string, from, to time.Time) (*model.CarePlan, error) {
	query := `
		SELECT * FROM care_plans
		WHERE LOWER(patient_first_name) = LOWER(?)
		AND LOWER(patient_last_name) = LOWER(?)
		AND patient_mrn = ?
		AND LOWER(medication_name) = LOWER(?)
		AND created_at >= ? AND created_at < ?
		LIMIT 1
	`
	return r.findOne(ctx, query, firstName, lastName, mrn, medication, from, to)
}

func (r *carePlanRepository) FindPriorMedication(ctx context.Context, mrn, medication string, before time.Time) (*model.CarePlan, error) {
	query := `
		SELECT * FROM care_plans
		WHERE patient_mrn = ?
		AND LOWER(medication_name) = LOWER(?)
		AND created_at < ?
		ORDER BY created_at DESC, id DESC LIMIT 1
	`
	return r.findOne(ctx, query, mrn, medication, before)
}

func (r *carePlanRepository) ListAll(ctx context.Context) ([]*model.CarePlan, error) {
	query := `SELECT * FROM care_plans ORDER BY created_at DESC, id DESC`
	var plans []*model.CarePlan
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("failed to list care plans: %w", err)
	}
	return plans, nil
}

func (r *carePlanRepository) findOne(ctx context.Context, query string, args ...interface{}) (*model.CarePlan, error) {
	var plan model.CarePlan
	err := r.db.GetContext(ctx, &plan, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query care plan: %w", err)
	}
	return &plan, nil
}
