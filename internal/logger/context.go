package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

// ContextKey is the type of logging context keys.
type ContextKey string

const (
	RunIDKey     ContextKey = "runID"
	CompanyIDKey ContextKey = "companyID"
	JobKey       ContextKey = "job"
)

// WithContext returns an app logger entry carrying the ids stored in ctx.
func WithContext(ctx context.Context) *logrus.Entry {
	entry := GetAppLogger().WithContext(ctx)

	if runID := ctx.Value(RunIDKey); runID != nil {
		entry = entry.WithField("runId", runID)
	}
	if companyID := ctx.Value(CompanyIDKey); companyID != nil {
		entry = entry.WithField("companyId", companyID)
	}
	if job := ctx.Value(JobKey); job != nil {
		entry = entry.WithField("job", job)
	}
	return entry
}

// ContextWithRun stores the run correlation id and tenant on ctx.
func ContextWithRun(ctx context.Context, runID, companyID string) context.Context {
	ctx = context.WithValue(ctx, RunIDKey, runID)
	return context.WithValue(ctx, CompanyIDKey, companyID)
}
