package reportsvc

import (
	"context"
	"sort"
	"sync"
	"time"

	reportmodels "store_audit/internal/api/report/models"
	"store_audit/internal/common"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memRepo is an in-memory TrendRepository and AggregateRepository.
type memRepo struct {
	mu         sync.Mutex
	stores     map[primitive.ObjectID]reportmodels.SegmentFilter
	processed  []reportmodels.ProcessedSurvey
	snapshots  []reportmodels.StoreTrendSnapshot
	aggregates map[string]reportmodels.SegmentAggregate
	pageCalls  int
}

func newMemRepo() *memRepo {
	return &memRepo{
		stores:     map[primitive.ObjectID]reportmodels.SegmentFilter{},
		aggregates: map[string]reportmodels.SegmentAggregate{},
	}
}

func (m *memRepo) FindPreviousProcessedSurvey(_ context.Context, storeID primitive.ObjectID, before time.Time) (*reportmodels.ProcessedSurvey, error) {
	var best *reportmodels.ProcessedSurvey
	for i := range m.processed {
		ps := &m.processed[i]
		if ps.StoreID != storeID || !ps.SurveyAddedAt.Before(before) {
			continue
		}
		if best == nil || ps.SurveyAddedAt.After(best.SurveyAddedAt) {
			best = ps
		}
	}
	return best, nil
}

func (m *memRepo) InsertTrendSnapshot(_ context.Context, snap *reportmodels.StoreTrendSnapshot) error {
	snap.ID = primitive.NewObjectID()
	m.snapshots = append(m.snapshots, *snap)
	return nil
}

func matches(f, store reportmodels.SegmentFilter) bool {
	return (f.Channel == "" || f.Channel == store.Channel) &&
		(f.SubChannel == "" || f.SubChannel == store.SubChannel) &&
		(f.Region == "" || f.Region == store.Region) &&
		(f.SubRegion == "" || f.SubRegion == store.SubRegion)
}

func (m *memRepo) FindStoreIDs(_ context.Context, _ primitive.ObjectID, filter reportmodels.SegmentFilter) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for id, dims := range m.stores {
		if matches(filter, dims) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memRepo) PageProcessedSurveys(_ context.Context, storeIDs []primitive.ObjectID, from, to time.Time, afterID primitive.ObjectID, limit int) ([]reportmodels.ProcessedSurvey, error) {
	m.pageCalls++
	allowed := map[primitive.ObjectID]bool{}
	for _, id := range storeIDs {
		allowed[id] = true
	}
	var out []reportmodels.ProcessedSurvey
	for _, ps := range m.processed {
		if !allowed[ps.StoreID] || ps.SurveyAddedAt.Before(from) || !ps.SurveyAddedAt.Before(to) {
			continue
		}
		if !afterID.IsZero() && ps.ID.Hex() <= afterID.Hex() {
			continue
		}
		out = append(out, ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func aggKey(a *reportmodels.SegmentAggregate) string {
	return a.QueryHash + "/" + a.SurveyedMonth
}

func (m *memRepo) InsertAggregate(_ context.Context, agg *reportmodels.SegmentAggregate) error {
	if _, ok := m.aggregates[aggKey(agg)]; ok {
		return common.Wrap(common.ErrDuplicate, aggKey(agg), nil)
	}
	stored := *agg
	stored.Result = agg.Result.Clone()
	m.aggregates[aggKey(agg)] = stored
	return nil
}

func (m *memRepo) UpdateAggregate(_ context.Context, agg *reportmodels.SegmentAggregate) error {
	existing, ok := m.aggregates[aggKey(agg)]
	if !ok {
		return common.ErrNotFound
	}
	stored := *agg
	stored.ID = existing.ID
	stored.CreatedAt = existing.CreatedAt
	stored.Result = agg.Result.Clone()
	m.aggregates[aggKey(agg)] = stored
	return nil
}
