package surveysvc

import (
	"context"
	"fmt"
	"time"

	reportsvc "store_audit/internal/api/report/service"
	"store_audit/internal/common"
	"store_audit/internal/logger"
	"store_audit/internal/queue"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const reprocessPageSize = 500

// Reprocessor re-enqueues every survey of a company. Running it twice is harmless
// because every stage downstream of the job is an idempotent upsert or append.
type Reprocessor struct {
	tenants  TenantSource
	pub      Publisher
	loc      *time.Location
	pageSize int
}

func NewReprocessor(tenants TenantSource, pub Publisher, loc *time.Location) *Reprocessor {
	if loc == nil {
		loc = time.UTC
	}
	return &Reprocessor{tenants: tenants, pub: pub, loc: loc, pageSize: reprocessPageSize}
}

// Reprocess publishes one job per survey of the company, optionally limited to a month (2006-01).
// It returns the number of jobs published.
func (r *Reprocessor) Reprocess(ctx context.Context, companyID, month string) (int, error) {
	oid, err := primitive.ObjectIDFromHex(companyID)
	if err != nil {
		return 0, common.Wrap(common.ErrInvalidJob, companyID, err)
	}
	var from, to time.Time
	if month != "" {
		if from, to, err = reportsvc.MonthWindow(month, r.loc); err != nil {
			return 0, err
		}
	}

	t, err := r.tenants.Open(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("open tenant %s: %w", companyID, err)
	}
	defer t.Release()

	published := 0
	after := primitive.NilObjectID
	for {
		page, err := t.Repo.ListSurveys(ctx, oid, from, to, after, r.pageSize)
		if err != nil {
			return published, fmt.Errorf("list surveys after %s: %w", after.Hex(), err)
		}
		if len(page) == 0 {
			break
		}

		jobs := make([]queue.SurveyJob, 0, len(page))
		for _, s := range page {
			if s.StoreID.IsZero() {
				continue
			}
			jobs = append(jobs, queue.SurveyJob{
				SurveyID:  s.ID.Hex(),
				CompanyID: companyID,
				StoreID:   s.StoreID.Hex(),
			})
		}
		if err := r.pub.Publish(ctx, jobs...); err != nil {
			return published, err
		}
		published += len(jobs)

		if len(page) < r.pageSize {
			break
		}
		after = page[len(page)-1].ID
	}

	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"companyId": companyID,
		"month":     month,
		"jobs":      published,
	}).Info("🔁 [REPROCESS] Surveys re-enqueued")
	return published, nil
}
