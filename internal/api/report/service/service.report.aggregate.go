package reportsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	reportmodels "store_audit/internal/api/report/models"
	"store_audit/internal/common"
	"store_audit/internal/logger"
	"store_audit/internal/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultPageSize is the number of processed surveys merged per page.
const DefaultPageSize = 500

// AggregateRequest selects a segment and a window. A zero From means the current calendar month.
type AggregateRequest struct {
	CompanyID primitive.ObjectID
	Filter    reportmodels.SegmentFilter
	From      time.Time
	To        time.Time
}

// AggregateProcessor recomputes segment aggregates from processed surveys.
type AggregateProcessor struct {
	join     JoinPolicy
	pageSize int
	loc      *time.Location
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewAggregateProcessor(join JoinPolicy, pageSize int, loc *time.Location, m *metrics.Metrics) *AggregateProcessor {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AggregateProcessor{join: join, pageSize: pageSize, loc: loc, metrics: m, now: time.Now}
}

// Aggregate merges every processed survey of the matching stores in the window into one tree
// and writes it keyed by (query_hash, surveyed_month). Running it twice stores the same document.
func (p *AggregateProcessor) Aggregate(ctx context.Context, repo AggregateRepository, req AggregateRequest) (*reportmodels.SegmentAggregate, error) {
	start := p.now()
	from, to := req.From, req.To
	if from.IsZero() {
		from = MonthStart(start, p.loc)
	}
	if to.IsZero() || !to.After(from) {
		to = MonthStart(from, p.loc).AddDate(0, 1, 0)
	}

	agg := &reportmodels.SegmentAggregate{
		CompanyID:     req.CompanyID,
		QueryHash:     QueryHash(req.Filter),
		SurveyedMonth: MonthKey(from, p.loc),
		Filter:        req.Filter,
		From:          from.UTC(),
		To:            to.UTC(),
		Result:        emptyTotal(),
	}

	storeIDs, err := repo.FindStoreIDs(ctx, req.CompanyID, req.Filter)
	if err != nil {
		return nil, fmt.Errorf("resolve segment stores: %w", err)
	}
	agg.StoreCount = len(storeIDs)

	if len(storeIDs) > 0 {
		after := primitive.NilObjectID
		for {
			page, err := repo.PageProcessedSurveys(ctx, storeIDs, from, to, after, p.pageSize)
			if err != nil {
				return nil, fmt.Errorf("page processed surveys: %w", err)
			}
			for i := range page {
				MergeTree(&agg.Result, page[i].Result, p.join)
				agg.SurveyCount++
			}
			if len(page) < p.pageSize {
				break
			}
			after = page[len(page)-1].ID
		}
	}
	RecomputeScores(&agg.Result)

	path := "insert"
	agg.CreatedAt = start.UTC()
	err = repo.InsertAggregate(ctx, agg)
	if errors.Is(err, common.ErrDuplicate) {
		path = "update"
		err = repo.UpdateAggregate(ctx, agg)
	}
	if err != nil {
		return nil, fmt.Errorf("write aggregate %s/%s: %w", agg.QueryHash, agg.SurveyedMonth, err)
	}
	p.metrics.AggregateWritten(path, p.now().Sub(start))

	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"queryHash": agg.QueryHash,
		"month":     agg.SurveyedMonth,
		"stores":    agg.StoreCount,
		"surveys":   agg.SurveyCount,
		"writePath": path,
	}).Info("📊 [AGGREGATE] Segment recomputed")
	return agg, nil
}
