// Package planner generates clinical care plan text through an OpenAI
// chat-completion backend. The adapter is stateless and retry-free;
// backend failures surface as generic generation errors so internal
// details never reach the caller.
package planner

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pharmetra/careplan-api/internal/model"
	apperrors "github.com/pharmetra/careplan-api/pkg/errors"
	"github.com/pharmetra/careplan-api/pkg/logger"
)

const systemPrompt = "You are a clinical pharmacist assistant helping to generate care plans for specialty pharmacy patients."

type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Planner struct {
	client chatCompleter
	cfg    Config
	logger *logger.Logger
}

// New builds the adapter. A missing API key is not fatal here: the service
// starts and every generation attempt fails with a configuration error.
func New(cfg Config, log *logger.Logger) *Planner {
	p := &Planner{cfg: cfg, logger: log}
	if cfg.APIKey != "" {
		p.client = openai.NewClient(cfg.APIKey)
	}
	return p
}

func (p *Planner) Generate(ctx context.Context, req *model.CarePlanRequest) (string, error) {
	if p.client == nil {
		return "", apperrors.NewGeneration(
			"care plan generation is not configured, please contact support", nil)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	})
	if err != nil {
		p.logger.Error(err, "care plan generation failed", "mrn", req.PatientMRN)
		return "", apperrors.NewGeneration(
			"failed to generate care plan, please try again or contact support", err)
	}
	if len(resp.Choices) == 0 {
		p.logger.Error(nil, "generation backend returned no choices", "mrn", req.PatientMRN)
		return "", apperrors.NewGeneration(
			"failed to generate care plan, please try again or contact support", nil)
	}

	return resp.Choices[0].Message.Content, nil
}

func buildPrompt(req *model.CarePlanRequest) string {
	additionalDx := "None"
	if len(req.AdditionalDiagnoses) > 0 {
		additionalDx = strings.Join(req.AdditionalDiagnoses, ", ")
	}
	medHistory := "None"
	if len(req.MedicationHistory) > 0 {
		medHistory = strings.Join(req.MedicationHistory, ", ")
	}
	records := req.PatientRecords
	if records == "" {
		records = "No additional records provided"
	}

	return fmt.Sprintf(`Generate a clinical care plan for the following patient:

Patient: %s %s
MRN: %s
Referring Provider: %s (NPI: %s)
Primary Diagnosis (ICD-10): %s
Medication: %s
Additional Diagnoses: %s
Medication History: %s

Patient Records:
%s

Please generate a care plan with ONLY the following four sections:

1. Problem List / Drug Therapy Problems (DTPs)
2. Goals (SMART)
3. Pharmacist Interventions / Plan
4. Monitoring Plan & Lab Schedule
`,
		req.PatientFirstName, req.PatientLastName,
		req.PatientMRN,
		req.ReferringProvider, req.ReferringProviderNPI,
		req.PrimaryDiagnosis,
		req.MedicationName,
		additionalDx,
		medHistory,
		records,
	)
}
