package database

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type indexSpec struct {
	collection string
	model      mongo.IndexModel
}

func tenantIndexes() []indexSpec {
	return []indexSpec{
		// processed_surveys: one result per survey, rewritten on re-scoring
		{ColNames.ProcessedSurveys, mongo.IndexModel{
			Keys:    bson.D{{Key: "store_id", Value: 1}, {Key: "survey_id", Value: 1}},
			Options: options.Index().SetName("processed_store_survey").SetUnique(true),
		}},
		// processed_surveys: previous-period lookup and aggregate window scans
		{ColNames.ProcessedSurveys, mongo.IndexModel{
			Keys:    bson.D{{Key: "store_id", Value: 1}, {Key: "survey_added_at", Value: -1}},
			Options: options.Index().SetName("processed_store_added_at"),
		}},
		// store_trend_snapshots: latest snapshot per store
		{ColNames.StoreTrendSnapshots, mongo.IndexModel{
			Keys:    bson.D{{Key: "store_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("trend_store_created_at"),
		}},
		// segment_aggregates: one document per segment and month
		{ColNames.SegmentAggregates, mongo.IndexModel{
			Keys:    bson.D{{Key: "query_hash", Value: 1}, {Key: "surveyed_month", Value: 1}},
			Options: options.Index().SetName("aggregate_hash_month").SetUnique(true),
		}},
	}
}

func controlIndexes() []indexSpec {
	return []indexSpec{
		{ColNames.SegmentDirtyPeriods, mongo.IndexModel{
			Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "month", Value: 1}, {Key: "query_hash", Value: 1}},
			Options: options.Index().SetName("dirty_company_month_hash").SetUnique(true),
		}},
		// drain order for the segment worker
		{ColNames.SegmentDirtyPeriods, mongo.IndexModel{
			Keys:    bson.D{{Key: "processed_at", Value: 1}, {Key: "marked_at", Value: 1}},
			Options: options.Index().SetName("dirty_processed_marked"),
		}},
		{ColNames.Tenants, mongo.IndexModel{
			Keys:    bson.D{{Key: "company_id", Value: 1}},
			Options: options.Index().SetName("tenant_company").SetUnique(true),
		}},
	}
}

// EnsureTenantIndexes creates the output indexes in a tenant database. Existing indexes are left alone.
func EnsureTenantIndexes(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db, tenantIndexes())
}

// EnsureControlIndexes creates the control-plane indexes.
func EnsureControlIndexes(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db, controlIndexes())
}

func ensure(ctx context.Context, db *mongo.Database, specs []indexSpec) error {
	for _, s := range specs {
		if _, err := db.Collection(s.collection).Indexes().CreateOne(ctx, s.model); err != nil && !isIndexExistsError(err) {
			return fmt.Errorf("create index on %s: %w", s.collection, err)
		}
	}
	return nil
}

func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "already exists") || strings.Contains(s, "duplicate")
}
