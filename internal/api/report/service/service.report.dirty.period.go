package reportsvc

import (
	"context"
	"time"

	reportmodels "store_audit/internal/api/report/models"
	"store_audit/internal/common"
	"store_audit/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SegmentDirtyService is the pending-segment set kept in the control-plane database.
type SegmentDirtyService struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewSegmentDirtyService uses the segment_dirty_periods collection of the control database.
func NewSegmentDirtyService(control *mongo.Database) *SegmentDirtyService {
	return &SegmentDirtyService{
		coll: control.Collection(database.ColNames.SegmentDirtyPeriods),
		now:  time.Now,
	}
}

// MarkDirty upserts one mark per filter. Re-marking a processed segment makes it pending again,
// and every mark carries a fresh token so a drain that read an older mark cannot clear it.
func (s *SegmentDirtyService) MarkDirty(ctx context.Context, companyID primitive.ObjectID, month string, filters []reportmodels.SegmentFilter) error {
	if len(filters) == 0 {
		return nil
	}
	now := s.now().Unix()
	writes := make([]mongo.WriteModel, 0, len(filters))
	for _, f := range filters {
		hash := QueryHash(f)
		doc := reportmodels.SegmentDirtyPeriod{
			CompanyID:   companyID,
			Month:       month,
			QueryHash:   hash,
			Filter:      f,
			MarkedAt:    now,
			MarkToken:   primitive.NewObjectID(),
			ProcessedAt: nil,
		}
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"company_id": companyID, "month": month, "query_hash": hash}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	_, err := s.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return common.ConvertMongoError(err)
}

// GetUnprocessed returns up to limit pending marks, oldest first.
func (s *SegmentDirtyService) GetUnprocessed(ctx context.Context, limit int) ([]reportmodels.SegmentDirtyPeriod, error) {
	if limit <= 0 {
		limit = 50
	}
	filter := bson.M{"processed_at": nil}
	opts := options.Find().SetSort(bson.D{{Key: "marked_at", Value: 1}}).SetLimit(int64(limit))
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var list []reportmodels.SegmentDirtyPeriod
	if err := cursor.All(ctx, &list); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	if list == nil {
		list = []reportmodels.SegmentDirtyPeriod{}
	}
	return list, nil
}

// SetProcessed stamps processed_at unless the mark was renewed after d was read.
func (s *SegmentDirtyService) SetProcessed(ctx context.Context, d *reportmodels.SegmentDirtyPeriod) error {
	filter := bson.M{
		"company_id": d.CompanyID,
		"month":      d.Month,
		"query_hash": d.QueryHash,
		"mark_token": d.MarkToken,
	}
	update := bson.M{"$set": bson.M{"processed_at": s.now().Unix()}}
	_, err := s.coll.UpdateOne(ctx, filter, update)
	return common.ConvertMongoError(err)
}
