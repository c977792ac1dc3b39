package auditsvc

import (
	"context"
	"errors"
	"time"

	auditmodels "store_audit/internal/api/audit/models"
	reportmodels "store_audit/internal/api/report/models"
	"store_audit/internal/common"
	"store_audit/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository reads the audit inputs and writes the pipeline outputs of one tenant database.
type Repository struct {
	companies  *baseMongo[auditmodels.Company]
	stores     *baseMongo[auditmodels.Store]
	surveys    *baseMongo[auditmodels.Survey]
	kpis       *baseMongo[auditmodels.KpiDefinition]
	skus       *baseMongo[auditmodels.Sku]
	processed  *baseMongo[reportmodels.ProcessedSurvey]
	snapshots  *baseMongo[reportmodels.StoreTrendSnapshot]
	aggregates *baseMongo[reportmodels.SegmentAggregate]
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		companies:  newBaseMongo[auditmodels.Company](db.Collection(database.ColNames.Companies)),
		stores:     newBaseMongo[auditmodels.Store](db.Collection(database.ColNames.Stores)),
		surveys:    newBaseMongo[auditmodels.Survey](db.Collection(database.ColNames.Surveys)),
		kpis:       newBaseMongo[auditmodels.KpiDefinition](db.Collection(database.ColNames.Kpis)),
		skus:       newBaseMongo[auditmodels.Sku](db.Collection(database.ColNames.Skus)),
		processed:  newBaseMongo[reportmodels.ProcessedSurvey](db.Collection(database.ColNames.ProcessedSurveys)),
		snapshots:  newBaseMongo[reportmodels.StoreTrendSnapshot](db.Collection(database.ColNames.StoreTrendSnapshots)),
		aggregates: newBaseMongo[reportmodels.SegmentAggregate](db.Collection(database.ColNames.SegmentAggregates)),
	}
}

// ====================================
// INPUTS
// ====================================

func (r *Repository) GetCompany(ctx context.Context, id primitive.ObjectID) (*auditmodels.Company, error) {
	c, err := r.companies.FindOneById(ctx, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) GetStore(ctx context.Context, id primitive.ObjectID) (*auditmodels.Store, error) {
	s, err := r.stores.FindOneById(ctx, id)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) GetSurvey(ctx context.Context, id primitive.ObjectID) (*auditmodels.Survey, error) {
	s, err := r.surveys.FindOneById(ctx, id)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListKpis returns the top-level KPI definitions of a channel in declared order.
func (r *Repository) ListKpis(ctx context.Context, companyID, channelID primitive.ObjectID) ([]auditmodels.KpiDefinition, error) {
	filter := bson.M{"company_id": companyID, "channel_id": channelID}
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})
	return r.kpis.Find(ctx, filter, opts)
}

// ListSkus returns the company's SKU catalog.
func (r *Repository) ListSkus(ctx context.Context, companyID primitive.ObjectID) ([]auditmodels.Sku, error) {
	return r.skus.Find(ctx, bson.M{"company_id": companyID})
}

// ListSurveys pages through a company's surveys in _id order, loading only the fields a
// processing job needs. A zero from disables the added_at window.
func (r *Repository) ListSurveys(ctx context.Context, companyID primitive.ObjectID, from, to time.Time, afterID primitive.ObjectID, limit int) ([]auditmodels.Survey, error) {
	filter := bson.M{"company_id": companyID}
	if !from.IsZero() {
		filter["added_at"] = bson.M{"$gte": from, "$lt": to}
	}
	if !afterID.IsZero() {
		filter["_id"] = bson.M{"$gt": afterID}
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "company_id": 1, "store_id": 1, "added_at": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return r.surveys.Find(ctx, filter, opts)
}

// ====================================
// PROCESSED SURVEYS AND TRENDS
// ====================================

// UpsertProcessedSurvey replaces the result of (store_id, survey_id), creating it on first run.
func (r *Repository) UpsertProcessedSurvey(ctx context.Context, ps *reportmodels.ProcessedSurvey) error {
	filter := bson.M{"store_id": ps.StoreID, "survey_id": ps.SurveyID}
	doc := *ps
	doc.ID = primitive.NilObjectID
	res, err := r.processed.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return common.ConvertMongoError(err)
	}
	if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
		ps.ID = id
	}
	return nil
}

// FindPreviousProcessedSurvey returns the latest result of the store added before the given time, or nil.
func (r *Repository) FindPreviousProcessedSurvey(ctx context.Context, storeID primitive.ObjectID, before time.Time) (*reportmodels.ProcessedSurvey, error) {
	filter := bson.M{"store_id": storeID, "survey_added_at": bson.M{"$lt": before}}
	opts := options.FindOne().SetSort(bson.D{{Key: "survey_added_at", Value: -1}, {Key: "_id", Value: -1}})
	ps, err := r.processed.FindOne(ctx, filter, opts)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ps, nil
}

func (r *Repository) InsertTrendSnapshot(ctx context.Context, snap *reportmodels.StoreTrendSnapshot) error {
	id, err := r.snapshots.InsertOne(ctx, snap)
	if err != nil {
		return err
	}
	snap.ID = id
	return nil
}

// LatestSnapshot returns the most recent trend snapshot of a store, or ErrNotFound.
func (r *Repository) LatestSnapshot(ctx context.Context, storeID primitive.ObjectID) (*reportmodels.StoreTrendSnapshot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	snap, err := r.snapshots.FindOne(ctx, bson.M{"store_id": storeID}, opts)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ====================================
// SEGMENT AGGREGATES
// ====================================

var segmentFields = []struct {
	field string
	value func(reportmodels.SegmentFilter) string
}{
	{"channel_id", func(f reportmodels.SegmentFilter) string { return f.Channel }},
	{"sub_channel_id", func(f reportmodels.SegmentFilter) string { return f.SubChannel }},
	{"region_id", func(f reportmodels.SegmentFilter) string { return f.Region }},
	{"sub_region_id", func(f reportmodels.SegmentFilter) string { return f.SubRegion }},
}

// FindStoreIDs resolves the stores of a segment. A dimension that is not an ObjectID matches no store.
func (r *Repository) FindStoreIDs(ctx context.Context, companyID primitive.ObjectID, filter reportmodels.SegmentFilter) ([]primitive.ObjectID, error) {
	q := bson.M{"company_id": companyID}
	for _, sf := range segmentFields {
		v := sf.value(filter)
		if v == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return []primitive.ObjectID{}, nil
		}
		q[sf.field] = id
	}
	return r.stores.distinctIDs(ctx, q)
}

func (r *Repository) PageProcessedSurveys(ctx context.Context, storeIDs []primitive.ObjectID, from, to time.Time, afterID primitive.ObjectID, limit int) ([]reportmodels.ProcessedSurvey, error) {
	filter := bson.M{
		"store_id":        bson.M{"$in": storeIDs},
		"survey_added_at": bson.M{"$gte": from, "$lt": to},
	}
	if !afterID.IsZero() {
		filter["_id"] = bson.M{"$gt": afterID}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit))
	return r.processed.Find(ctx, filter, opts)
}

func (r *Repository) InsertAggregate(ctx context.Context, agg *reportmodels.SegmentAggregate) error {
	id, err := r.aggregates.InsertOne(ctx, agg)
	if err != nil {
		return err
	}
	agg.ID = id
	return nil
}

// UpdateAggregate overwrites every computed field of (query_hash, surveyed_month). created_at is kept.
func (r *Repository) UpdateAggregate(ctx context.Context, agg *reportmodels.SegmentAggregate) error {
	filter := bson.M{"query_hash": agg.QueryHash, "surveyed_month": agg.SurveyedMonth}
	update := bson.M{"$set": bson.M{
		"company_id":   agg.CompanyID,
		"filter":       agg.Filter,
		"from":         agg.From,
		"to":           agg.To,
		"store_count":  agg.StoreCount,
		"survey_count": agg.SurveyCount,
		"result":       agg.Result,
	}}
	res, err := r.aggregates.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return common.ConvertMongoError(err)
	}
	if res.MatchedCount == 0 {
		return common.Wrap(common.ErrNotFound, filter, nil)
	}
	return nil
}

// GetAggregate reads one stored segment aggregate.
func (r *Repository) GetAggregate(ctx context.Context, queryHash, month string) (*reportmodels.SegmentAggregate, error) {
	agg, err := r.aggregates.FindOne(ctx, bson.M{"query_hash": queryHash, "surveyed_month": month})
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
