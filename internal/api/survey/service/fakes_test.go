package surveysvc

import (
	"context"
	"sort"
	"time"

	auditmodels "store_audit/internal/api/audit/models"
	filesvc "store_audit/internal/api/files/service"
	reportmodels "store_audit/internal/api/report/models"
	"store_audit/internal/common"
	"store_audit/internal/queue"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeRepo struct {
	company   *auditmodels.Company
	stores    map[primitive.ObjectID]*auditmodels.Store
	surveys   map[primitive.ObjectID]*auditmodels.Survey
	kpis      []auditmodels.KpiDefinition
	skus      []auditmodels.Sku
	skuCalls  int
	upsertErr error

	processed map[string]reportmodels.ProcessedSurvey
	snapshots []reportmodels.StoreTrendSnapshot
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		stores:    map[primitive.ObjectID]*auditmodels.Store{},
		surveys:   map[primitive.ObjectID]*auditmodels.Survey{},
		processed: map[string]reportmodels.ProcessedSurvey{},
	}
}

func (f *fakeRepo) GetCompany(_ context.Context, id primitive.ObjectID) (*auditmodels.Company, error) {
	if f.company == nil || f.company.ID != id {
		return nil, common.ErrNotFound
	}
	return f.company, nil
}

func (f *fakeRepo) GetStore(_ context.Context, id primitive.ObjectID) (*auditmodels.Store, error) {
	if s, ok := f.stores[id]; ok {
		return s, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeRepo) GetSurvey(_ context.Context, id primitive.ObjectID) (*auditmodels.Survey, error) {
	if s, ok := f.surveys[id]; ok {
		return s, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeRepo) ListKpis(_ context.Context, _, channelID primitive.ObjectID) ([]auditmodels.KpiDefinition, error) {
	var out []auditmodels.KpiDefinition
	for _, k := range f.kpis {
		if k.ChannelID == channelID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListSkus(context.Context, primitive.ObjectID) ([]auditmodels.Sku, error) {
	f.skuCalls++
	return f.skus, nil
}

func (f *fakeRepo) ListSurveys(_ context.Context, _ primitive.ObjectID, from, to time.Time, afterID primitive.ObjectID, limit int) ([]auditmodels.Survey, error) {
	var out []auditmodels.Survey
	for _, s := range f.surveys {
		if !from.IsZero() && (s.AddedAt.Before(from) || !s.AddedAt.Before(to)) {
			continue
		}
		if !afterID.IsZero() && s.ID.Hex() <= afterID.Hex() {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) UpsertProcessedSurvey(_ context.Context, ps *reportmodels.ProcessedSurvey) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	key := ps.StoreID.Hex() + "/" + ps.SurveyID.Hex()
	if existing, ok := f.processed[key]; ok {
		ps.ID = existing.ID
	} else {
		ps.ID = primitive.NewObjectID()
	}
	f.processed[key] = *ps
	return nil
}

func (f *fakeRepo) FindPreviousProcessedSurvey(_ context.Context, storeID primitive.ObjectID, before time.Time) (*reportmodels.ProcessedSurvey, error) {
	var best *reportmodels.ProcessedSurvey
	for _, ps := range f.processed {
		ps := ps
		if ps.StoreID != storeID || !ps.SurveyAddedAt.Before(before) {
			continue
		}
		if best == nil || ps.SurveyAddedAt.After(best.SurveyAddedAt) {
			best = &ps
		}
	}
	return best, nil
}

func (f *fakeRepo) InsertTrendSnapshot(_ context.Context, snap *reportmodels.StoreTrendSnapshot) error {
	snap.ID = primitive.NewObjectID()
	f.snapshots = append(f.snapshots, *snap)
	return nil
}

type fakeFiles struct {
	calls [][]filesvc.QuestionFile
}

func (f *fakeFiles) Resolve(_ context.Context, files []filesvc.QuestionFile) (reportmodels.ProcessedFiles, error) {
	f.calls = append(f.calls, files)
	out := reportmodels.ProcessedFiles{Items: []auditmodels.FileRecord{}}
	for _, qf := range files {
		out.Items = append(out.Items, auditmodels.FileRecord{ID: "f-" + qf.Ref.Name, Name: qf.Ref.Name, QuestionID: qf.QuestionID})
	}
	return out, nil
}

type fakeTenants struct {
	tenants map[string]*Tenant
}

func (f *fakeTenants) Open(_ context.Context, companyID string) (*Tenant, error) {
	if t, ok := f.tenants[companyID]; ok {
		return t, nil
	}
	return nil, common.Wrap(common.ErrTenantUnknown, companyID, nil)
}

type markCall struct {
	companyID primitive.ObjectID
	month     string
	filters   []reportmodels.SegmentFilter
}

type fakeMarker struct {
	calls []markCall
}

func (f *fakeMarker) MarkDirty(_ context.Context, companyID primitive.ObjectID, month string, filters []reportmodels.SegmentFilter) error {
	f.calls = append(f.calls, markCall{companyID, month, filters})
	return nil
}

type fakePublisher struct {
	batches [][]queue.SurveyJob
}

func (f *fakePublisher) Publish(_ context.Context, jobs ...queue.SurveyJob) error {
	f.batches = append(f.batches, jobs)
	return nil
}
