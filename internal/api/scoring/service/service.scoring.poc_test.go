package scoringsvc

import (
	"context"
	"testing"
	"time"

	auditmodels "store_audit/internal/api/audit/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func boolp(v bool) *bool     { return &v }

func obsSku(id string, fronts float64) auditmodels.PocSku {
	return auditmodels.PocSku{ID: id, Fronts: f64(fronts)}
}

func TestPocProcessor_Mpa(t *testing.T) {
	catalog := IndexCatalog([]auditmodels.Sku{
		{ID: "m1", IsMpa: true}, {ID: "m2", IsMpa: true}, {ID: "m3", IsMpa: true}, {ID: "m4", IsMpa: true},
		{ID: "x1"},
	})
	survey := &auditmodels.Survey{Pocs: []auditmodels.SurveyPoc{
		{ID: "p1", Skus: []auditmodels.PocSku{{ID: "m1"}, {ID: "x1"}}},
		{ID: "p2", Skus: []auditmodels.PocSku{{ID: "m1"}, {ID: "m2"}, {ID: "m3", Selected: boolp(false)}}},
	}}
	kpi := &auditmodels.KpiDefinition{ID: "mpa", Title: "MPA", Weight: 40, From: "skus", SkuMode: "mpa"}

	node, err := NewPocProcessor(nil).Process(context.Background(), kpi, survey, catalog)
	require.NoError(t, err)
	assert.Equal(t, 0.5, node.Score)
	assert.Equal(t, 20.0, node.Points.Obtained)
	assert.Equal(t, 40.0, node.Points.Possible)
}

func TestPocProcessor_MpaEmptySets(t *testing.T) {
	kpi := &auditmodels.KpiDefinition{ID: "mpa", Weight: 10, SkuMode: "mpa"}
	survey := &auditmodels.Survey{Pocs: []auditmodels.SurveyPoc{{ID: "p1", Skus: []auditmodels.PocSku{{ID: "x1"}}}}}

	node, err := NewPocProcessor(nil).Process(context.Background(), kpi, survey, IndexCatalog(nil))
	require.NoError(t, err)
	assert.Equal(t, 0.0, node.Score)

	node, err = NewPocProcessor(nil).Process(context.Background(), kpi, &auditmodels.Survey{}, IndexCatalog([]auditmodels.Sku{{ID: "m1", IsMpa: true}}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, node.Score)
}

func TestPocProcessor_Sovi(t *testing.T) {
	catalog := IndexCatalog([]auditmodels.Sku{{ID: "own1"}, {ID: "own2"}, {ID: "comp1", IsCompetitor: true}})
	kpi := &auditmodels.KpiDefinition{ID: "sovi", Weight: 20, SkuMode: "sovi"}

	survey := &auditmodels.Survey{Pocs: []auditmodels.SurveyPoc{
		{ID: "p1", Skus: []auditmodels.PocSku{obsSku("own1", 20), obsSku("comp1", 10)}},
		{ID: "p2", Skus: []auditmodels.PocSku{obsSku("own2", 10)}},
	}}
	node, err := NewPocProcessor(nil).Process(context.Background(), kpi, survey, catalog)
	require.NoError(t, err)
	assert.Equal(t, 0.75, node.Score)
	assert.Equal(t, 15.0, node.Points.Obtained)

	empty := &auditmodels.Survey{Pocs: []auditmodels.SurveyPoc{{ID: "p1", Skus: []auditmodels.PocSku{obsSku("own1", 0), obsSku("comp1", 0)}}}}
	node, err = NewPocProcessor(nil).Process(context.Background(), kpi, empty, catalog)
	require.NoError(t, err)
	assert.Equal(t, 0.0, node.Score)
}

func TestPocProcessor_Freshness(t *testing.T) {
	surveyed := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	catalog := IndexCatalog([]auditmodels.Sku{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}})
	survey := &auditmodels.Survey{AddedAt: surveyed, Pocs: []auditmodels.SurveyPoc{
		{ID: "p1", Skus: []auditmodels.PocSku{
			{ID: "a", Expiry: surveyed.Add(24 * time.Hour).Unix()},
			{ID: "b", Expiry: surveyed.Add(-24 * time.Hour).UnixMilli()},
			{ID: "c", Expiry: "2024-06-01"},
			{ID: "d", Expiry: "soon"},
			{ID: "e"},
		}},
	}}
	kpi := &auditmodels.KpiDefinition{ID: "fresh", Weight: 9, SkuMode: "fresh"}

	node, err := NewPocProcessor(nil).Process(context.Background(), kpi, survey, catalog)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, node.Score, 1e-9)
	assert.InDelta(t, 6.0, node.Points.Obtained, 1e-9)
}

func TestPocProcessor_CatalogValuesWinOverObservation(t *testing.T) {
	catalog := IndexCatalog([]auditmodels.Sku{{ID: "a", Expiry: "2000-01-01"}})
	survey := &auditmodels.Survey{
		AddedAt: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Pocs: []auditmodels.SurveyPoc{{ID: "p1", Skus: []auditmodels.PocSku{{ID: "a", Expiry: "2030-01-01"}}}},
	}
	obs := observations(survey, catalog)
	require.Len(t, obs, 1)
	assert.Equal(t, "2000-01-01", obs[0].Expiry)
}

func TestPocProcessor_CatalogFrontsFixSovi(t *testing.T) {
	catalog := IndexCatalog([]auditmodels.Sku{
		{ID: "own", Fronts: f64(3)},
		{ID: "comp", IsCompetitor: true},
	})
	kpi := &auditmodels.KpiDefinition{ID: "sovi", Weight: 10, SkuMode: "sovi"}

	for _, counted := range []float64{1, 30, 300} {
		survey := &auditmodels.Survey{Pocs: []auditmodels.SurveyPoc{
			{ID: "p1", Skus: []auditmodels.PocSku{obsSku("own", counted), obsSku("comp", 1)}},
		}}
		node, err := NewPocProcessor(nil).Process(context.Background(), kpi, survey, catalog)
		require.NoError(t, err)
		assert.Equal(t, 0.75, node.Score, "counted %g", counted)
	}
}

func TestPocProcessor_SubKpisByPoc(t *testing.T) {
	catalog := IndexCatalog([]auditmodels.Sku{{ID: "own"}, {ID: "comp", IsCompetitor: true}})
	survey := &auditmodels.Survey{Pocs: []auditmodels.SurveyPoc{
		{ID: "shelf", Skus: []auditmodels.PocSku{obsSku("own", 30), obsSku("comp", 10)}},
		{ID: "cooler", Skus: []auditmodels.PocSku{obsSku("own", 0), obsSku("comp", 20)}},
	}}
	kpi := &auditmodels.KpiDefinition{
		ID: "sovi", Title: "SOVI", Weight: 20, From: "skus", SkuMode: "sovi", SubKpisBy: "poc",
		SubKpis: []auditmodels.KpiDefinition{
			{ID: "s1", Title: "Shelf", Weight: 10, PocIDs: []string{"shelf"}},
			{ID: "s2", Title: "Cooler", Weight: 10, PocIDs: []string{"cooler"}},
			{ID: "s3", Title: "Broken", Weight: 10, SkuMode: "volume"},
		},
	}

	node, err := NewPocProcessor(nil).Process(context.Background(), kpi, survey, catalog)
	require.NoError(t, err)
	assert.True(t, node.HasSubKpis)
	assert.Equal(t, 0.5, node.Score)
	require.Len(t, node.SubKpis, 2)
	assert.Equal(t, 0.75, node.SubKpis[0].Score)
	assert.Equal(t, 7.5, node.SubKpis[0].Points.Obtained)
	assert.Equal(t, 0.0, node.SubKpis[1].Score)
}

func TestExpiryUnix(t *testing.T) {
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in   interface{}
		want int64
		ok   bool
	}{
		{ts, ts.Unix(), true},
		{ts.Unix(), ts.Unix(), true},
		{ts.UnixMilli(), ts.Unix(), true},
		{float64(ts.Unix()), ts.Unix(), true},
		{"2024-01-02", ts.Unix(), true},
		{"2024-01-02T00:00:00Z", ts.Unix(), true},
		{"1704153600", ts.Unix(), true},
		{"tomorrow", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := expiryUnix(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}
