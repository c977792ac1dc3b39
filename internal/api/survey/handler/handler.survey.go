// Package surveyhdl exposes the job intake and operator endpoints of the worker.
package surveyhdl

import (
	"context"
	"errors"

	surveysvc "store_audit/internal/api/survey/service"
	"store_audit/internal/common"
	"store_audit/internal/logger"
	"store_audit/internal/queue"

	"github.com/gofiber/fiber/v3"
)

// Reprocessor re-enqueues a company's surveys.
type Reprocessor interface {
	Reprocess(ctx context.Context, companyID, month string) (int, error)
}

// SurveyHandler accepts survey jobs over HTTP and publishes them to the job topic.
type SurveyHandler struct {
	pub         surveysvc.Publisher
	reprocessor Reprocessor
}

func NewSurveyHandler(pub surveysvc.Publisher, reprocessor Reprocessor) *SurveyHandler {
	return &SurveyHandler{pub: pub, reprocessor: reprocessor}
}

// HandleEnqueue accepts {survey_id, company_id, store_id} and publishes it. 202 on success.
func (h *SurveyHandler) HandleEnqueue(c fiber.Ctx) error {
	var job queue.SurveyJob
	if err := c.Bind().Body(&job); err != nil {
		return JSONError(c, common.Wrap(common.ErrInvalidJob, nil, err))
	}
	if err := common.Validator().Struct(job); err != nil {
		return JSONError(c, common.Wrap(common.ErrInvalidJob, job, err))
	}
	if err := h.pub.Publish(c.Context(), job); err != nil {
		return JSONError(c, err)
	}

	logger.WithContext(c.Context()).WithFields(map[string]interface{}{
		"surveyId":  job.SurveyID,
		"companyId": job.CompanyID,
		"storeId":   job.StoreID,
	}).Info("📥 [INTAKE] Survey job accepted")
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "accepted",
		"data":   job,
	})
}

// HandleReprocess re-enqueues every survey of :companyId, optionally limited by ?month=2006-01.
func (h *SurveyHandler) HandleReprocess(c fiber.Ctx) error {
	companyID := c.Params("companyId")
	month := c.Query("month")

	n, err := h.reprocessor.Reprocess(c.Context(), companyID, month)
	if err != nil {
		return JSONError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "accepted",
		"data":   fiber.Map{"companyId": companyID, "month": month, "jobs": n},
	})
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	var e *common.Error
	if !errors.As(err, &e) {
		return fiber.StatusInternalServerError
	}
	switch {
	case errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound
	case e.Code.Code == common.ErrCodeJobPayload.Code:
		return fiber.StatusBadRequest
	case e.Code.Category == common.ErrCodeConfig.Category:
		return fiber.StatusUnprocessableEntity
	case e.Code.Retryable:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// JSONError writes err in the service's error envelope.
func JSONError(c fiber.Ctx, err error) error {
	code := "INTERNAL"
	var e *common.Error
	if errors.As(err, &e) {
		code = e.Code.Code
	}
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.WithContext(c.Context()).WithFields(map[string]interface{}{
			"path":      c.Path(),
			"errorCode": code,
			"error":     err.Error(),
		}).Error("Request error")
	}
	return c.Status(status).JSON(fiber.Map{
		"code":    code,
		"message": err.Error(),
		"status":  "error",
	})
}
