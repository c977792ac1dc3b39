package surveyhdl

import (
	"store_audit/internal/metrics"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
)

// SetupRoutes registers the ops endpoints and, when h is non-nil, the job endpoints.
func SetupRoutes(app *fiber.App, h *SurveyHandler, m *metrics.Metrics) {
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}
	if h == nil {
		return
	}

	v1 := app.Group("/api/v1")
	v1.Post("/jobs/survey-processing", h.HandleEnqueue)
	v1.Post("/companies/:companyId/reprocess", h.HandleReprocess)
}
