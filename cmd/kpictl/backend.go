package main

import (
	"context"
	"fmt"
	"time"

	"store_audit/config"
	"store_audit/internal/database"
	"store_audit/internal/logger"
	"store_audit/internal/tenant"

	"go.mongodb.org/mongo-driver/mongo"
)

// backend is the slice of the worker's dependencies the online commands need.
type backend struct {
	cfg     *config.Configuration
	loc     *time.Location
	control *mongo.Client
	pool    *tenant.Pool
}

func openBackend(ctx context.Context) (*backend, error) {
	if err := logger.Init(nil); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("load REPORT_TIMEZONE %q: %w", cfg.ReportTimezone, err)
	}

	connectTimeout := time.Duration(cfg.MongoDB_ConnectTimeoutMs) * time.Millisecond
	control, err := database.GetInstance(ctx, cfg.MongoDB_ConnectionURI, database.ClientOptions{
		MaxPoolSize:    uint64(cfg.MongoDB_MaxPoolSize),
		ConnectTimeout: connectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect control database: %w", err)
	}
	pool := tenant.NewPool(
		tenant.NewMongoConnector(control.Database(cfg.MongoDB_DBName_Control), database.ClientOptions{
			MaxPoolSize:    uint64(cfg.MongoDB_TenantPoolSize),
			ConnectTimeout: connectTimeout,
		}),
		tenant.PoolOptions{Capacity: 4},
	)
	return &backend{cfg: cfg, loc: loc, control: control, pool: pool}, nil
}

func (b *backend) Close(ctx context.Context) {
	b.pool.Close()
	_ = database.CloseInstance(ctx, b.control)
	logger.Close()
}
