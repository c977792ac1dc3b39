// Package worker runs the background loops of the pipeline: the survey job consumer
// and the segment aggregate drain.
package worker

import (
	"context"
	"errors"
	"time"

	surveysvc "store_audit/internal/api/survey/service"
	"store_audit/internal/common"
	"store_audit/internal/logger"
	"store_audit/internal/metrics"
	"store_audit/internal/queue"
	"store_audit/internal/registry"

	"github.com/segmentio/kafka-go"
)

// JobHandler handles one consumed message.
type JobHandler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// JobHandlerFunc adapts a function to JobHandler.
type JobHandlerFunc func(ctx context.Context, msg kafka.Message) error

func (f JobHandlerFunc) Handle(ctx context.Context, msg kafka.Message) error {
	return f(ctx, msg)
}

// SurveyRunner runs the pipeline for one job. *surveysvc.SurveyProcessor implements it.
type SurveyRunner interface {
	Process(ctx context.Context, job queue.SurveyJob) (*surveysvc.Result, error)
}

// SurveyJobHandler decodes survey jobs and hands them to r.
func SurveyJobHandler(r SurveyRunner) JobHandler {
	return JobHandlerFunc(func(ctx context.Context, msg kafka.Message) error {
		job, err := queue.DecodeSurveyJob(msg.Value)
		if err != nil {
			return err
		}
		_, err = r.Process(ctx, job)
		return err
	})
}

// SurveyJobWorker consumes job messages, routes them to handlers by topic and retries
// transient failures with exponential backoff. A message is committed once it
// succeeded or failed for good.
type SurveyJobWorker struct {
	fetcher     queue.Fetcher
	handlers    *registry.Registry[JobHandler]
	maxAttempts int
	metrics     *metrics.Metrics
	backoff     func(attempt int) time.Duration
}

// NewSurveyJobWorker creates the consumer. maxAttempts defaults to 5.
func NewSurveyJobWorker(fetcher queue.Fetcher, handlers *registry.Registry[JobHandler], maxAttempts int, m *metrics.Metrics) *SurveyJobWorker {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &SurveyJobWorker{
		fetcher:     fetcher,
		handlers:    handlers,
		maxAttempts: maxAttempts,
		metrics:     m,
		backoff:     func(attempt int) time.Duration { return time.Duration(1<<attempt) * time.Second },
	}
}

// Start consumes until ctx is cancelled.
func (w *SurveyJobWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()
	log.WithFields(map[string]interface{}{
		"topics":      w.handlers.Names(),
		"maxAttempts": w.maxAttempts,
	}).Info("📨 [SURVEY_JOB] Starting Survey Job Worker...")

	for {
		msg, err := w.fetcher.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("📨 [SURVEY_JOB] Survey Job Worker stopped")
				return
			}
			log.WithError(err).Error("📨 [SURVEY_JOB] Fetch failed, retrying")
			if sleepCtx(ctx, time.Second) != nil {
				return
			}
			continue
		}

		if err := w.handle(ctx, msg); err != nil && ctx.Err() != nil {
			// cancelled mid-retry: leave the offset for redelivery
			log.Info("📨 [SURVEY_JOB] Survey Job Worker stopped")
			return
		}
		if err := w.fetcher.CommitMessages(ctx, msg); err != nil {
			log.WithError(err).WithFields(map[string]interface{}{
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Error("📨 [SURVEY_JOB] Commit failed")
		}
	}
}

// handle runs the message's handler until it succeeds, fails permanently or runs out of attempts.
func (w *SurveyJobWorker) handle(ctx context.Context, msg kafka.Message) error {
	log := logger.GetAppLogger().WithFields(map[string]interface{}{
		"topic":  msg.Topic,
		"key":    string(msg.Key),
		"offset": msg.Offset,
	})

	h, ok := w.handlers.Get(msg.Topic)
	if !ok {
		log.Error("📨 [SURVEY_JOB] No handler registered for topic, dropping message")
		w.metrics.JobFailed()
		return nil
	}

	for attempt := 1; ; attempt++ {
		err := h.Handle(ctx, msg)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return err
		}

		entry := log.WithError(err).WithField("attempt", attempt)
		if common.IsConfigError(err) || !common.IsRetryable(err) {
			w.metrics.JobFailed()
			entry.Error("📨 [SURVEY_JOB] Job failed permanently, not retrying")
			return nil
		}
		if attempt >= w.maxAttempts {
			w.metrics.JobFailed()
			entry.Error("📨 [SURVEY_JOB] Job failed after final attempt")
			return nil
		}

		delay := w.backoff(attempt)
		w.metrics.JobRetried()
		entry.WithField("retryIn", delay.String()).Warn("📨 [SURVEY_JOB] Job failed, retrying")
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
