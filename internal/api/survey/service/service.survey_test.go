package surveysvc

import (
	"context"
	"errors"
	"testing"
	"time"

	auditmodels "store_audit/internal/api/audit/models"
	"store_audit/internal/common"
	"store_audit/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	repo    *fakeRepo
	files   *fakeFiles
	marker  *fakeMarker
	proc    *SurveyProcessor
	company primitive.ObjectID
	store   *auditmodels.Store
}

func newFixture() *fixture {
	f := &fixture{
		repo:    newFakeRepo(),
		files:   &fakeFiles{},
		marker:  &fakeMarker{},
		company: primitive.NewObjectID(),
	}
	f.repo.company = &auditmodels.Company{ID: f.company, Name: "Acme"}
	f.store = &auditmodels.Store{
		ID: primitive.NewObjectID(), CompanyID: f.company,
		ChannelID: primitive.NewObjectID(), RegionID: primitive.NewObjectID(),
	}
	f.repo.stores[f.store.ID] = f.store
	f.repo.kpis = []auditmodels.KpiDefinition{{
		ID: "cooler", ChannelID: f.store.ChannelID, Title: "Cooler", Weight: 60, From: "questions",
		Questions: []auditmodels.KpiQuestion{{
			ID: "q1", Title: "Cooler present", Type: "boolean", Weight: 60,
			Conditions: []auditmodels.Condition{{Operator: "=", Value: 1, Weight: 60}},
		}},
	}}

	tenants := &fakeTenants{tenants: map[string]*Tenant{
		f.company.Hex(): {Repo: f.repo, Files: f.files},
	}}
	f.proc = NewSurveyProcessor(tenants, f.marker, Options{})
	return f
}

func (f *fixture) addSurvey(at time.Time, cooler string) queue.SurveyJob {
	s := &auditmodels.Survey{
		ID: primitive.NewObjectID(), CompanyID: f.company, StoreID: f.store.ID, AddedAt: at,
		Questions: []auditmodels.SurveyAnswer{
			{ID: "q1", Type: "boolean", Answer: map[string]interface{}{"title": cooler}},
			{ID: "q9", Type: "photo", Answer: []interface{}{"cooler.jpg"}},
		},
	}
	f.repo.surveys[s.ID] = s
	return queue.SurveyJob{SurveyID: s.ID.Hex(), CompanyID: f.company.Hex(), StoreID: f.store.ID.Hex()}
}

func TestSurveyProcessor_Process(t *testing.T) {
	f := newFixture()
	job := f.addSurvey(time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC), "Yes")

	res, err := f.proc.Process(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	ps := res.Processed
	assert.Equal(t, res.RunID, ps.RunID)
	assert.Equal(t, "2024-05", ps.SurveyedMonth)
	assert.Equal(t, auditmodels.TotalTitle, ps.Result.Title)
	assert.Equal(t, 60.0, ps.Result.Points.Obtained)
	assert.Equal(t, 1.0, ps.Result.Score)
	require.Len(t, ps.Files.Items, 1)
	assert.Equal(t, "q9", ps.Files.Items[0].QuestionID)
	assert.Len(t, f.repo.processed, 1)
	assert.Zero(t, f.repo.skuCalls)

	require.Len(t, f.repo.snapshots, 1)
	assert.Nil(t, res.Snapshot.PreviousSurveyID)
	assert.Equal(t, "100", res.Snapshot.Trend.Score.Display)

	require.Len(t, f.marker.calls, 1)
	assert.Equal(t, "2024-05", f.marker.calls[0].month)
	assert.Equal(t, f.company, f.marker.calls[0].companyID)
	assert.Len(t, f.marker.calls[0].filters, 4)
}

func TestSurveyProcessor_RerunOverwritesResult(t *testing.T) {
	f := newFixture()
	job := f.addSurvey(time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC), "Yes")

	first, err := f.proc.Process(context.Background(), job)
	require.NoError(t, err)
	second, err := f.proc.Process(context.Background(), job)
	require.NoError(t, err)

	assert.Len(t, f.repo.processed, 1)
	assert.Equal(t, first.Processed.ID, second.Processed.ID)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Len(t, f.repo.snapshots, 2)
}

func TestSurveyProcessor_ComparesWithEarlierMonth(t *testing.T) {
	f := newFixture()
	april := f.addSurvey(time.Date(2024, 4, 20, 9, 0, 0, 0, time.UTC), "No")
	may := f.addSurvey(time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC), "Yes")

	_, err := f.proc.Process(context.Background(), april)
	require.NoError(t, err)
	res, err := f.proc.Process(context.Background(), may)
	require.NoError(t, err)

	require.NotNil(t, res.Snapshot.PreviousSurveyID)
	assert.Equal(t, april.SurveyID, res.Snapshot.PreviousSurveyID.Hex())
	assert.Equal(t, 100, res.Snapshot.Trend.Score.Current)
	assert.Equal(t, 0, res.Snapshot.Trend.Score.Previous)
}

func TestSurveyProcessor_NoKpisIsConfigError(t *testing.T) {
	f := newFixture()
	f.repo.kpis = nil
	job := f.addSurvey(time.Now(), "Yes")

	_, err := f.proc.Process(context.Background(), job)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoKpiDefinitions)
	assert.True(t, common.IsConfigError(err))
	assert.False(t, common.IsRetryable(err))
	assert.Empty(t, f.repo.processed)
	assert.Empty(t, f.marker.calls)
}

func TestSurveyProcessor_LoadsCatalogForSkuKpis(t *testing.T) {
	f := newFixture()
	f.repo.kpis = append(f.repo.kpis, auditmodels.KpiDefinition{
		ID: "mpa", ChannelID: f.store.ChannelID, Title: "MPA", Weight: 40, From: "skus", SkuMode: "mpa",
	})
	f.repo.skus = []auditmodels.Sku{{ID: "m1", IsMpa: true}}
	job := f.addSurvey(time.Now(), "Yes")
	id, _ := primitive.ObjectIDFromHex(job.SurveyID)
	f.repo.surveys[id].Pocs = []auditmodels.SurveyPoc{{ID: "p1", Skus: []auditmodels.PocSku{{ID: "m1"}}}}

	res, err := f.proc.Process(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.skuCalls)
	assert.Equal(t, 100.0, res.Processed.Result.Points.Obtained)
}

func TestSurveyProcessor_EmptyCatalogIsConfigError(t *testing.T) {
	f := newFixture()
	f.repo.kpis = append(f.repo.kpis, auditmodels.KpiDefinition{
		ID: "mpa", ChannelID: f.store.ChannelID, Title: "MPA", Weight: 40, From: "skus", SkuMode: "mpa",
	})
	f.repo.skus = nil
	job := f.addSurvey(time.Now(), "Yes")

	_, err := f.proc.Process(context.Background(), job)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingCatalog)
	assert.True(t, common.IsConfigError(err))
	assert.False(t, common.IsRetryable(err))
	assert.Equal(t, 1, f.repo.skuCalls)
	assert.Empty(t, f.repo.processed)
	assert.Empty(t, f.repo.snapshots)
	assert.Empty(t, f.marker.calls)
}

func TestSurveyProcessor_RejectsSurveyOfAnotherStore(t *testing.T) {
	f := newFixture()
	other := &auditmodels.Store{
		ID: primitive.NewObjectID(), CompanyID: f.company,
		ChannelID: f.store.ChannelID, RegionID: primitive.NewObjectID(),
	}
	f.repo.stores[other.ID] = other

	job := f.addSurvey(time.Now(), "Yes")
	job.StoreID = other.ID.Hex()
	_, err := f.proc.Process(context.Background(), job)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidJob)
	assert.False(t, common.IsRetryable(err))
	assert.Empty(t, f.repo.processed)
	assert.Empty(t, f.repo.snapshots)
	assert.Empty(t, f.marker.calls)

	// a survey filed under another company of the same tenant
	job = f.addSurvey(time.Now(), "Yes")
	id, _ := primitive.ObjectIDFromHex(job.SurveyID)
	f.repo.surveys[id].CompanyID = primitive.NewObjectID()
	_, err = f.proc.Process(context.Background(), job)
	assert.ErrorIs(t, err, common.ErrInvalidJob)

	// a store registered under another company
	foreign := &auditmodels.Store{ID: primitive.NewObjectID(), CompanyID: primitive.NewObjectID(), ChannelID: f.store.ChannelID}
	f.repo.stores[foreign.ID] = foreign
	job = f.addSurvey(time.Now(), "Yes")
	id, _ = primitive.ObjectIDFromHex(job.SurveyID)
	f.repo.surveys[id].StoreID = foreign.ID
	job.StoreID = foreign.ID.Hex()
	_, err = f.proc.Process(context.Background(), job)
	assert.ErrorIs(t, err, common.ErrInvalidJob)
	assert.Empty(t, f.repo.processed)
}

func TestSurveyProcessor_FailedWriteSkipsTriggers(t *testing.T) {
	f := newFixture()
	f.repo.upsertErr = common.Wrap(common.ErrConnection, nil, errors.New("socket closed"))
	job := f.addSurvey(time.Now(), "Yes")

	_, err := f.proc.Process(context.Background(), job)
	require.Error(t, err)
	assert.True(t, common.IsRetryable(err))
	assert.Empty(t, f.repo.snapshots)
	assert.Empty(t, f.marker.calls)
}

func TestSurveyProcessor_BadJobs(t *testing.T) {
	f := newFixture()

	_, err := f.proc.Process(context.Background(), queue.SurveyJob{SurveyID: "x", CompanyID: f.company.Hex(), StoreID: f.store.ID.Hex()})
	assert.ErrorIs(t, err, common.ErrInvalidJob)

	job := f.addSurvey(time.Now(), "Yes")
	job.CompanyID = primitive.NewObjectID().Hex()
	_, err = f.proc.Process(context.Background(), job)
	assert.ErrorIs(t, err, common.ErrTenantUnknown)
	assert.True(t, common.IsConfigError(err))
}

func TestReprocessor_PublishesEverySurvey(t *testing.T) {
	f := newFixture()
	for day := 1; day <= 5; day++ {
		f.addSurvey(time.Date(2024, 5, day, 9, 0, 0, 0, time.UTC), "Yes")
	}
	f.addSurvey(time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC), "Yes")

	pub := &fakePublisher{}
	r := NewReprocessor(&fakeTenants{tenants: map[string]*Tenant{f.company.Hex(): {Repo: f.repo}}}, pub, time.UTC)
	r.pageSize = 2

	n, err := r.Reprocess(context.Background(), f.company.Hex(), "2024-05")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, pub.batches, 3)
	for _, batch := range pub.batches {
		for _, j := range batch {
			assert.Equal(t, f.store.ID.Hex(), j.StoreID)
			_, err := j.Encode()
			assert.NoError(t, err)
		}
	}

	pub.batches = nil
	n, err = r.Reprocess(context.Background(), f.company.Hex(), "")
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	_, err = r.Reprocess(context.Background(), f.company.Hex(), "May")
	assert.Error(t, err)
}
