package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/pharmetra/careplan-api/pkg/errors"
)

// SubmitResponse is the success envelope for accepted submissions.
type SubmitResponse struct {
	Success       bool     `json:"success"`
	ID            int64    `json:"id"`
	Warnings      []string `json:"warnings"`
	GeneratedPlan string   `json:"generated_plan"`
}

// ErrorResponse is the failure envelope for every non-2xx outcome.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

func NewErrorResponse(errs ...string) ErrorResponse {
	return ErrorResponse{Success: false, Errors: errs}
}

// RespondWithError maps the error taxonomy onto HTTP statuses:
// validation 400, blocked decisions 409, generation 502, storage 500.
// Unclassified errors stay opaque.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
		return
	}

	var status int
	switch appErr.Code {
	case apperrors.ErrValidation:
		status = http.StatusBadRequest
	case apperrors.ErrDuplicateSubmission, apperrors.ErrProviderConflict:
		status = http.StatusConflict
	case apperrors.ErrGeneration:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	c.JSON(status, NewErrorResponse(appErr.Messages()...))
}
