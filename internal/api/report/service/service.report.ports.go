package reportsvc

import (
	"context"
	"time"

	reportmodels "store_audit/internal/api/report/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrendRepository is the tenant storage used by the StoreMapReducer.
type TrendRepository interface {
	// FindPreviousProcessedSurvey returns the latest processed survey of the store added before
	// the given time, or nil when there is none.
	FindPreviousProcessedSurvey(ctx context.Context, storeID primitive.ObjectID, before time.Time) (*reportmodels.ProcessedSurvey, error)
	InsertTrendSnapshot(ctx context.Context, snap *reportmodels.StoreTrendSnapshot) error
}

// AggregateRepository is the tenant storage used by the AggregateProcessor.
type AggregateRepository interface {
	FindStoreIDs(ctx context.Context, companyID primitive.ObjectID, filter reportmodels.SegmentFilter) ([]primitive.ObjectID, error)
	// PageProcessedSurveys returns up to limit processed surveys of the stores added in [from, to),
	// ordered by _id and starting after afterID.
	PageProcessedSurveys(ctx context.Context, storeIDs []primitive.ObjectID, from, to time.Time, afterID primitive.ObjectID, limit int) ([]reportmodels.ProcessedSurvey, error)
	// InsertAggregate fails with common.ErrDuplicate when (query_hash, surveyed_month) exists.
	InsertAggregate(ctx context.Context, agg *reportmodels.SegmentAggregate) error
	// UpdateAggregate replaces every computed field of the existing document, keeping created_at.
	UpdateAggregate(ctx context.Context, agg *reportmodels.SegmentAggregate) error
}

// DirtyMarker records segment months that need recomputation.
type DirtyMarker interface {
	MarkDirty(ctx context.Context, companyID primitive.ObjectID, month string, filters []reportmodels.SegmentFilter) error
}

// DirtyQueue is the draining side of the pending-segment set.
type DirtyQueue interface {
	GetUnprocessed(ctx context.Context, limit int) ([]reportmodels.SegmentDirtyPeriod, error)
	SetProcessed(ctx context.Context, d *reportmodels.SegmentDirtyPeriod) error
}
