package reportsvc

import (
	"context"
	"testing"
	"time"

	auditmodels "store_audit/internal/api/audit/models"
	reportmodels "store_audit/internal/api/report/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func scored(id, title string, possible, obtained float64, children ...auditmodels.ScoredNode) auditmodels.ScoredNode {
	n := auditmodels.ScoredNode{
		ID: id, Title: title, Weight: possible,
		Points:  auditmodels.Points{Possible: possible, Obtained: obtained},
		Score:   auditmodels.Ratio(obtained, possible),
		SubKpis: children,
	}
	if n.SubKpis == nil {
		n.SubKpis = []auditmodels.ScoredNode{}
	}
	n.HasSubKpis = len(children) > 0
	return n
}

func TestStoreMapReducer_CompareByTitle(t *testing.T) {
	current := scored("", "Total", 100, 80,
		scored("k1", "Cooler", 50, 40),
		scored("k2", "Shelf", 50, 40),
		scored("k3", "New KPI", 0, 0),
	)
	previous := scored("", "Total", 100, 55,
		scored("other-id", "Cooler", 50, 10),
		scored("k2", "Shelf", 50, 45),
	)

	r := NewStoreMapReducer(JoinByTitle, time.UTC)
	trend := r.Compare(current, &previous)

	assert.Equal(t, reportmodels.Vspp{Current: 80, Previous: 55, Delta: 25, Display: "25", Direction: "up", Color: "#8BC34A"}, trend.Score)
	require.Len(t, trend.SubKpis, 3)
	assert.Equal(t, []float64{0.8, 0.2}, trend.SubKpis[0].History)
	assert.Equal(t, "60", trend.SubKpis[0].Score.Display)
	assert.Equal(t, "(10)", trend.SubKpis[1].Score.Display)
	assert.Equal(t, []float64{0, 0}, trend.SubKpis[2].History)
}

func TestStoreMapReducer_CompareByIDTitle(t *testing.T) {
	current := scored("", "Total", 50, 40, scored("k1", "Cooler", 50, 40))
	previous := scored("", "Total", 50, 10, scored("other-id", "Cooler", 50, 10))

	trend := NewStoreMapReducer(JoinByIDTitle, time.UTC).Compare(current, &previous)
	assert.Equal(t, 0, trend.SubKpis[0].Score.Previous)
}

func TestStoreMapReducer_NoPreviousComparesAgainstZero(t *testing.T) {
	current := scored("", "Total", 10, 5, scored("k1", "A", 10, 5))
	trend := NewStoreMapReducer(JoinByTitle, time.UTC).Compare(current, nil)

	assert.Equal(t, []float64{0.5, 0}, trend.History)
	assert.Equal(t, "50", trend.Score.Display)
	assert.Equal(t, []float64{0.5, 0}, trend.SubKpis[0].History)
}

func TestStoreMapReducer_ReduceUsesStrictlyEarlierMonth(t *testing.T) {
	repo := newMemRepo()
	store := primitive.NewObjectID()
	may := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

	april := reportmodels.ProcessedSurvey{StoreID: store, SurveyID: primitive.NewObjectID(), SurveyAddedAt: may.AddDate(0, -1, 0), Result: scored("", "Total", 10, 2)}
	earlyMay := reportmodels.ProcessedSurvey{StoreID: store, SurveyID: primitive.NewObjectID(), SurveyAddedAt: may.AddDate(0, 0, -10), Result: scored("", "Total", 10, 9)}
	repo.processed = append(repo.processed, april, earlyMay)

	current := &reportmodels.ProcessedSurvey{StoreID: store, SurveyID: primitive.NewObjectID(), SurveyAddedAt: may, Result: scored("", "Total", 10, 6)}
	r := NewStoreMapReducer(JoinByTitle, time.UTC)
	snap, err := r.Reduce(context.Background(), repo, current, "run-1")
	require.NoError(t, err)

	require.NotNil(t, snap.PreviousSurveyID)
	assert.Equal(t, april.SurveyID, *snap.PreviousSurveyID)
	assert.Equal(t, "2024-05", snap.SurveyedMonth)
	assert.Equal(t, 20, snap.Trend.Score.Previous)
	assert.Equal(t, 0.6, snap.Current.Score)
	assert.Len(t, repo.snapshots, 1)

	// append-only: a second run adds another snapshot
	_, err = r.Reduce(context.Background(), repo, current, "run-2")
	require.NoError(t, err)
	assert.Len(t, repo.snapshots, 2)
}
