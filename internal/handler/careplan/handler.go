package careplan

import (
	"context"
	"encoding/csv"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharmetra/careplan-api/internal/handler"
	"github.com/pharmetra/careplan-api/internal/model"
	"github.com/pharmetra/careplan-api/pkg/logger"
	"github.com/pharmetra/careplan-api/pkg/pdfextract"
)

// Service is the care plan intake pipeline consumed by this handler.
type Service interface {
	Submit(ctx context.Context, req *model.CarePlanRequest) (*model.SubmitResult, error)
	Export(ctx context.Context) ([]*model.CarePlan, error)
}

type Handler struct {
	service Service
	logger  *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Home)
	r.POST("/submit", h.Submit)
	r.GET("/export", h.Export)
}

func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

// Submit accepts the intake form. An optional PDF upload is extracted to
// text and merged into patient_records before validation.
func (h *Handler) Submit(c *gin.Context) {
	var form model.SubmitRequest
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if file, err := c.FormFile("patient_records_pdf"); err == nil && file != nil {
		text, err := h.extractPDF(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("uploaded PDF could not be read"))
			return
		}
		if form.PatientRecords != "" && text != "" {
			form.PatientRecords += "\n\n"
		}
		form.PatientRecords += text
	}

	result, err := h.service.Submit(c.Request.Context(), form.ToCarePlan())
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.SubmitResponse{
		Success:       true,
		ID:            result.ID,
		Warnings:      result.Warnings,
		GeneratedPlan: result.GeneratedPlan,
	})
}

// Export streams every care plan as a CSV attachment with a fixed column
// order. An empty store is a 404.
func (h *Handler) Export(c *gin.Context) {
	plans, err := h.service.Export(c.Request.Context())
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	if len(plans) == 0 {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("no care plans to export"))
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename=care_plans_export.csv`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(model.ExportColumns); err != nil {
		h.logger.Error(err, "failed to write export header")
		return
	}
	for _, plan := range plans {
		if err := w.Write(plan.ExportRow()); err != nil {
			h.logger.Error(err, "failed to write export row", "id", plan.ID)
			return
		}
	}
	w.Flush()
}

func (h *Handler) extractPDF(file *multipart.FileHeader) (string, error) {
	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return pdfextract.Text(data)
}
