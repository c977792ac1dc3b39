package worker

import (
	"context"
	"time"

	auditsvc "store_audit/internal/api/audit/service"
	reportmodels "store_audit/internal/api/report/models"
	reportsvc "store_audit/internal/api/report/service"
	"store_audit/internal/logger"
	"store_audit/internal/tenant"
)

// AggregateRepos opens the tenant repository an aggregate is computed from.
// release must be called once the aggregate is written.
type AggregateRepos func(ctx context.Context, companyID string) (repo reportsvc.AggregateRepository, release func(), err error)

// PoolAggregateRepos opens repositories through the tenant handle pool.
func PoolAggregateRepos(pool *tenant.Pool) AggregateRepos {
	return func(ctx context.Context, companyID string) (reportsvc.AggregateRepository, func(), error) {
		h, err := pool.Get(ctx, companyID)
		if err != nil {
			return nil, nil, err
		}
		release := func() { _ = h.Release(context.WithoutCancel(ctx)) }
		return auditsvc.NewRepository(h.Database()), release, nil
	}
}

// SegmentAggregateWorker drains the pending-segment set: every interval it reads a batch
// of unprocessed marks, recomputes each segment month and stamps it processed.
type SegmentAggregateWorker struct {
	queue     reportsvc.DirtyQueue
	repos     AggregateRepos
	processor *reportsvc.AggregateProcessor
	loc       *time.Location
	interval  time.Duration
	batchSize int
}

// NewSegmentAggregateWorker creates the drain. interval defaults to 5 minutes, batchSize to 50.
func NewSegmentAggregateWorker(queue reportsvc.DirtyQueue, repos AggregateRepos, processor *reportsvc.AggregateProcessor, loc *time.Location, interval time.Duration, batchSize int) *SegmentAggregateWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SegmentAggregateWorker{
		queue:     queue,
		repos:     repos,
		processor: processor,
		loc:       loc,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start runs the drain until ctx is cancelled.
func (w *SegmentAggregateWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval":  w.interval.String(),
		"batchSize": w.batchSize,
	}).Info("📊 [SEGMENT_DIRTY] Starting Segment Aggregate Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("📊 [SEGMENT_DIRTY] Segment Aggregate Worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce processes one batch and returns how many marks were stamped.
// Failed marks stay pending for the next run.
func (w *SegmentAggregateWorker) RunOnce(ctx context.Context) (processed int) {
	log := logger.GetAppLogger()
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(map[string]interface{}{
				"panic": r,
			}).Error("📊 [SEGMENT_DIRTY] Panic while draining segments, will resume next run")
		}
	}()

	list, err := w.queue.GetUnprocessed(ctx, w.batchSize)
	if err != nil {
		log.WithError(err).Error("📊 [SEGMENT_DIRTY] Failed to load pending segments")
		return 0
	}
	if len(list) == 0 {
		return 0
	}

	for i := range list {
		d := &list[i]
		if err := w.recompute(ctx, d); err != nil {
			log.WithError(err).WithFields(map[string]interface{}{
				"companyId": d.CompanyID.Hex(),
				"month":     d.Month,
				"queryHash": d.QueryHash,
			}).Warn("📊 [SEGMENT_DIRTY] Recompute failed, will retry next run")
			continue
		}
		if err := w.queue.SetProcessed(ctx, d); err != nil {
			log.WithError(err).WithFields(map[string]interface{}{
				"month":     d.Month,
				"queryHash": d.QueryHash,
			}).Warn("📊 [SEGMENT_DIRTY] SetProcessed failed")
			continue
		}
		processed++
	}

	if processed > 0 {
		log.WithFields(map[string]interface{}{
			"processed": processed,
			"total":     len(list),
		}).Info("📊 [SEGMENT_DIRTY] Segments recomputed")
	}
	return processed
}

func (w *SegmentAggregateWorker) recompute(ctx context.Context, d *reportmodels.SegmentDirtyPeriod) error {
	from, to, err := reportsvc.MonthWindow(d.Month, w.loc)
	if err != nil {
		return err
	}
	repo, release, err := w.repos(ctx, d.CompanyID.Hex())
	if err != nil {
		return err
	}
	defer release()
	_, err = w.processor.Aggregate(ctx, repo, reportsvc.AggregateRequest{
		CompanyID: d.CompanyID,
		Filter:    d.Filter,
		From:      from,
		To:        to,
	})
	return err
}
