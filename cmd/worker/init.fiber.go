package main

import (
	"fmt"
	"strings"
	"time"

	surveyhdl "store_audit/internal/api/survey/handler"
	"store_audit/internal/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

// InitFiberApp builds the ops server: health, metrics and job intake.
func InitFiberApp(a *App) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "Store Audit Worker",
		StrictRouting: true,
		CaseSensitive: true,
		BodyLimit:     1 * 1024 * 1024,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   120 * time.Second,

		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			} else {
				return surveyhdl.JSONError(c, err)
			}

			if code >= fiber.StatusInternalServerError {
				logger.WithContext(c.Context()).WithFields(map[string]interface{}{
					"code":    code,
					"path":    c.Path(),
					"message": message,
				}).Error("Request error")
			}
			return c.Status(code).JSON(fiber.Map{
				"code":    code,
				"message": message,
				"status":  "error",
			})
		},
	})

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return fmt.Sprintf("%d", time.Now().UnixNano())
		},
	}))

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			logger.GetErrorLogger().WithFields(map[string]interface{}{
				"panic": e,
				"path":  c.Path(),
			}).Error("Panic recovered")
		},
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/health" || strings.HasPrefix(c.Path(), "/metrics")
		},
	}))

	surveyhdl.SetupRoutes(app, a.handler, a.metrics)
	return app
}
