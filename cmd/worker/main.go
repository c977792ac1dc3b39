package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"store_audit/config"
	"store_audit/internal/logger"

	"github.com/gofiber/fiber/v3"
)

func initLogger() {
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger.GetAppLogger().Info("Logger system initialized successfully")
}

// runLoop runs fn on its own goroutine and logs a panic instead of crashing the process.
func runLoop(wg *sync.WaitGroup, name string, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.GetErrorLogger().WithFields(map[string]interface{}{
					"loop":  name,
					"panic": r,
				}).Error("Background loop panicked")
			}
		}()
		fn()
	}()
}

func main() {
	initLogger()
	defer logger.Close()
	log := logger.GetAppLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := InitApp(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize worker")
	}

	var wg sync.WaitGroup
	runLoop(&wg, "survey-job", func() { app.surveyWorker.Start(ctx) })
	runLoop(&wg, "segment-aggregate", func() { app.segmentWorker.Start(ctx) })

	server := InitFiberApp(app)
	go func() {
		<-ctx.Done()
		log.Info("Shutdown signal received")
		if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Warn("Fiber shutdown failed")
		}
	}()

	log.WithFields(map[string]interface{}{
		"address":  cfg.Address,
		"protocol": "HTTP",
	}).Info("Starting ops server")
	if err := server.Listen(cfg.Address, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.WithError(err).Error("Fiber listen failed")
		stop()
	}

	wg.Wait()
	closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	app.Close(closeCtx)
	log.Info("Worker stopped")
}
