package main

import (
	"context"
	"fmt"
	"time"

	"store_audit/config"
	reportsvc "store_audit/internal/api/report/service"
	surveyhdl "store_audit/internal/api/survey/handler"
	surveysvc "store_audit/internal/api/survey/service"
	"store_audit/internal/database"
	"store_audit/internal/logger"
	"store_audit/internal/metrics"
	"store_audit/internal/queue"
	"store_audit/internal/registry"
	"store_audit/internal/tenant"
	"store_audit/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// App holds every long-lived dependency of the worker process.
type App struct {
	cfg      *config.Configuration
	metrics  *metrics.Metrics
	control  *mongo.Client
	pool     *tenant.Pool
	reader   *kafka.Reader
	producer *queue.Producer

	surveyWorker  *worker.SurveyJobWorker
	segmentWorker *worker.SegmentAggregateWorker
	handler       *surveyhdl.SurveyHandler
}

// InitApp connects the control-plane database and builds the pipeline from cfg.
func InitApp(ctx context.Context, cfg *config.Configuration) (*App, error) {
	log := logger.GetAppLogger()

	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("load REPORT_TIMEZONE %q: %w", cfg.ReportTimezone, err)
	}
	trendJoin, err := reportsvc.ParseJoinPolicy(cfg.TrendJoinKey)
	if err != nil {
		return nil, fmt.Errorf("TREND_JOIN_KEY: %w", err)
	}
	aggregateJoin, err := reportsvc.ParseJoinPolicy(cfg.AggregateJoinKey)
	if err != nil {
		return nil, fmt.Errorf("AGGREGATE_JOIN_KEY: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	connectTimeout := time.Duration(cfg.MongoDB_ConnectTimeoutMs) * time.Millisecond
	control, err := database.GetInstance(ctx, cfg.MongoDB_ConnectionURI, database.ClientOptions{
		MaxPoolSize:    uint64(cfg.MongoDB_MaxPoolSize),
		ConnectTimeout: connectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect control database: %w", err)
	}
	controlDB := control.Database(cfg.MongoDB_DBName_Control)
	if err := database.EnsureControlIndexes(ctx, controlDB); err != nil {
		log.WithError(err).Warn("Control-plane index bootstrap failed")
	}

	pool := tenant.NewPool(
		tenant.NewMongoConnector(controlDB, database.ClientOptions{
			MaxPoolSize:    uint64(cfg.MongoDB_TenantPoolSize),
			ConnectTimeout: connectTimeout,
		}),
		tenant.PoolOptions{
			Capacity: uint64(cfg.TenantCacheCapacity),
			IdleTTL:  time.Duration(cfg.TenantCacheIdleMinute) * time.Minute,
			Metrics:  m,
		},
	)

	dirty := reportsvc.NewSegmentDirtyService(controlDB)
	tenants := surveysvc.NewPoolTenants(pool)
	processor := surveysvc.NewSurveyProcessor(tenants, dirty, surveysvc.Options{
		Location:  loc,
		TrendJoin: trendJoin,
		Metrics:   m,
	})

	brokers := cfg.Brokers()
	reader := queue.NewReader(brokers, cfg.Kafka_SurveyTopic, cfg.Kafka_ConsumerGroup)
	producer := queue.NewProducer(brokers, cfg.Kafka_SurveyTopic)

	handlers := registry.NewRegistry[worker.JobHandler]()
	if _, err := handlers.Register(cfg.Kafka_SurveyTopic, worker.SurveyJobHandler(processor)); err != nil {
		return nil, fmt.Errorf("register survey job handler: %w", err)
	}

	app := &App{
		cfg:          cfg,
		metrics:      m,
		control:      control,
		pool:         pool,
		reader:       reader,
		producer:     producer,
		surveyWorker: worker.NewSurveyJobWorker(reader, handlers, cfg.JobMaxAttempts, m),
		segmentWorker: worker.NewSegmentAggregateWorker(
			dirty,
			worker.PoolAggregateRepos(pool),
			reportsvc.NewAggregateProcessor(aggregateJoin, cfg.AggregatePageSize, loc, m),
			loc,
			time.Duration(cfg.AggregateIntervalSec)*time.Second,
			cfg.AggregateBatchSize,
		),
		handler: surveyhdl.NewSurveyHandler(producer, surveysvc.NewReprocessor(tenants, producer, loc)),
	}

	log.WithFields(map[string]interface{}{
		"controlDb":     cfg.MongoDB_DBName_Control,
		"topic":         cfg.Kafka_SurveyTopic,
		"group":         cfg.Kafka_ConsumerGroup,
		"timezone":      loc.String(),
		"trendJoin":     trendJoin,
		"aggregateJoin": aggregateJoin,
	}).Info("Worker dependencies initialized")
	return app, nil
}

// Close releases the consumers, the tenant handles and the control client, in that order.
func (a *App) Close(ctx context.Context) {
	log := logger.GetAppLogger()
	if err := a.reader.Close(); err != nil {
		log.WithError(err).Warn("Kafka reader close failed")
	}
	if err := a.producer.Close(); err != nil {
		log.WithError(err).Warn("Kafka producer close failed")
	}
	a.pool.Close()
	_ = database.CloseInstance(ctx, a.control)
}
