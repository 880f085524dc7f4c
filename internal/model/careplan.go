package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// StringList is an ordered list of strings persisted as comma-joined TEXT.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return strings.Join(l, ","), nil
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
	case string:
		*l = SplitList(v)
	case []byte:
		*l = SplitList(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	return nil
}

// SplitList normalizes comma-separated form input into an ordered list:
// split on commas, trim whitespace, drop empty segments. Order preserved,
// duplicates kept.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Provider is an assertion that an NPI maps to a provider name. Rows are
// first-write-wins and never updated.
type Provider struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	NPI       string    `db:"npi" json:"npi"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CarePlan is a persisted submission. Immutable once created.
type CarePlan struct {
	ID                   int64      `db:"id" json:"id"`
	PatientFirstName     string     `db:"patient_first_name" json:"patient_first_name"`
	PatientLastName      string     `db:"patient_last_name" json:"patient_last_name"`
	ReferringProvider    string     `db:"referring_provider" json:"referring_provider"`
	ReferringProviderNPI string     `db:"referring_provider_npi" json:"referring_provider_npi"`
	PatientMRN           string     `db:"patient_mrn" json:"patient_mrn"`
	PrimaryDiagnosis     string     `db:"primary_diagnosis" json:"primary_diagnosis"`
	MedicationName       string     `db:"medication_name" json:"medication_name"`
	AdditionalDiagnoses  StringList `db:"additional_diagnoses" json:"additional_diagnoses"`
	MedicationHistory    StringList `db:"medication_history" json:"medication_history"`
	PatientRecords       string     `db:"patient_records" json:"patient_records"`
	GeneratedPlan        string     `db:"generated_plan" json:"generated_plan"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
}

// SubmitRequest carries the raw intake form fields.
type SubmitRequest struct {
	PatientFirstName     string `form:"patient_first_name"`
	PatientLastName      string `form:"patient_last_name"`
	ReferringProvider    string `form:"referring_provider"`
	ReferringProviderNPI string `form:"referring_provider_npi"`
	PatientMRN           string `form:"patient_mrn"`
	PrimaryDiagnosis     string `form:"primary_diagnosis"`
	MedicationName       string `form:"medication_name"`
	AdditionalDiagnoses  string `form:"additional_diagnoses"`
	MedicationHistory    string `form:"medication_history"`
	PatientRecords       string `form:"patient_records"`
}

// ToCarePlan converts raw form input into the domain request, splitting the
// comma-separated list fields. Validation happens afterwards.
func (r *SubmitRequest) ToCarePlan() *CarePlanRequest {
	return &CarePlanRequest{
		PatientFirstName:     r.PatientFirstName,
		PatientLastName:      r.PatientLastName,
		ReferringProvider:    r.ReferringProvider,
		ReferringProviderNPI: r.ReferringProviderNPI,
		PatientMRN:           r.PatientMRN,
		PrimaryDiagnosis:     r.PrimaryDiagnosis,
		MedicationName:       r.MedicationName,
		AdditionalDiagnoses:  SplitList(r.AdditionalDiagnoses),
		MedicationHistory:    SplitList(r.MedicationHistory),
		PatientRecords:       r.PatientRecords,
	}
}

// CarePlanRequest is a validated, normalized submission request.
type CarePlanRequest struct {
	PatientFirstName     string   `validate:"required"`
	PatientLastName      string   `validate:"required"`
	ReferringProvider    string   `validate:"required"`
	ReferringProviderNPI string   `validate:"required,digits,len=10"`
	PatientMRN           string   `validate:"required,digits,len=6"`
	PrimaryDiagnosis     string   `validate:"required,icd10"`
	MedicationName       string   `validate:"required"`
	AdditionalDiagnoses  []string `validate:"dive,icd10"`
	MedicationHistory    []string `validate:"-"`
	PatientRecords       string   `validate:"-"`
}

// SubmitResult is the outcome of an accepted submission.
type SubmitResult struct {
	ID            int64    `json:"id"`
	Warnings      []string `json:"warnings"`
	GeneratedPlan string   `json:"generated_plan"`
}

// ExportColumns is the fixed CSV column order for /export.
var ExportColumns = []string{
	"id",
	"patient_first_name",
	"patient_last_name",
	"patient_mrn",
	"referring_provider",
	"referring_provider_npi",
	"primary_diagnosis",
	"medication_name",
	"additional_diagnoses",
	"medication_history",
	"patient_records",
	"generated_plan",
	"created_at",
}

// ExportRow renders a care plan in ExportColumns order.
func (p *CarePlan) ExportRow() []string {
	return []string{
		fmt.Sprintf("%d", p.ID),
		p.PatientFirstName,
		p.PatientLastName,
		p.PatientMRN,
		p.ReferringProvider,
		p.ReferringProviderNPI,
		p.PrimaryDiagnosis,
		p.MedicationName,
		strings.Join(p.AdditionalDiagnoses, ","),
		strings.Join(p.MedicationHistory, ","),
		p.PatientRecords,
		p.GeneratedPlan,
		p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
