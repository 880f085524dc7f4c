package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pharmetra/careplan-api/internal/model"
	apperrors "github.com/pharmetra/careplan-api/pkg/errors"
)

// icd10Pattern is the lexical ICD-10 form: letter, two digits, optional
// fractional part. Codes are uppercased during normalization, so the
// pattern only needs to match uppercase input.
var icd10Pattern = regexp.MustCompile(`^[A-Z]\d{2}(\.\d{1,4})?$`)

// Validator normalizes and validates care plan requests.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// digits: every byte is 0-9. Distinct from len so length and character
	// class failures surface as separate messages.
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return false
		}
		for i := 0; i < len(s); i++ {
			if s[i] < '0' || s[i] > '9' {
				return false
			}
		}
		return true
	})

	_ = v.RegisterValidation("icd10", func(fl validator.FieldLevel) bool {
		return icd10Pattern.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// ValidateCarePlan normalizes req in place and validates it. Normalization
// is idempotent: applying it to an already-validated request changes
// nothing. All field failures are collected into a single validation
// error; list-field failures name every offending code.
func (val *Validator) ValidateCarePlan(req *model.CarePlanRequest) error {
	normalize(req)

	err := val.v.Struct(req)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidation([]string{err.Error()})
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, messageFor(fe))
	}
	return apperrors.NewValidation(msgs)
}

func normalize(req *model.CarePlanRequest) {
	req.PatientFirstName = strings.TrimSpace(req.PatientFirstName)
	req.PatientLastName = strings.TrimSpace(req.PatientLastName)
	req.ReferringProvider = strings.TrimSpace(req.ReferringProvider)
	req.ReferringProviderNPI = strings.TrimSpace(req.ReferringProviderNPI)
	req.PatientMRN = strings.TrimSpace(req.PatientMRN)
	req.MedicationName = strings.TrimSpace(req.MedicationName)
	req.PrimaryDiagnosis = strings.ToUpper(strings.TrimSpace(req.PrimaryDiagnosis))
	for i, code := range req.AdditionalDiagnoses {
		req.AdditionalDiagnoses[i] = strings.ToUpper(strings.TrimSpace(code))
	}
	for i, med := range req.MedicationHistory {
		req.MedicationHistory[i] = strings.TrimSpace(med)
	}
}

var fieldLabels = map[string]string{
	"PatientFirstName":     "patient first name",
	"PatientLastName":      "patient last name",
	"ReferringProvider":    "referring provider",
	"ReferringProviderNPI": "NPI",
	"PatientMRN":           "MRN",
	"PrimaryDiagnosis":     "primary diagnosis",
	"MedicationName":       "medication name",
}

func messageFor(fe validator.FieldError) string {
	field := fe.StructField()

	// Dive errors over the additional diagnoses list carry an index suffix.
	if strings.HasPrefix(field, "AdditionalDiagnoses") {
		return fmt.Sprintf("additional diagnosis %q is not a valid ICD-10 code", fe.Value())
	}

	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "digits":
		return fmt.Sprintf("%s must contain only digits", label)
	case "len":
		return fmt.Sprintf("%s must be exactly %s digits", label, fe.Param())
	case "icd10":
		return fmt.Sprintf("%s must be a valid ICD-10 code (e.g. E11.9), got %q", label, fe.Value())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}
