//go:build database

package auditsvc

import (
	"context"
	"fmt"
	"testing"
	"time"

	auditmodels "store_audit/internal/api/audit/models"
	reportmodels "store_audit/internal/api/report/models"
	reportsvc "store_audit/internal/api/report/service"
	"store_audit/internal/common"
	"store_audit/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
	}
	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mongoC.Terminate(ctx) })

	host, err := mongoC.Host(ctx)
	require.NoError(t, err)
	port, err := mongoC.MappedPort(ctx, "27017")
	require.NoError(t, err)

	client, err := database.GetInstance(ctx, fmt.Sprintf("mongodb://%s:%s", host, port.Port()), database.ClientOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseInstance(ctx, client) })

	db := client.Database("tenant_test")
	require.NoError(t, database.EnsureTenantIndexes(ctx, db))
	return db
}

func TestRepository_PipelineRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := startMongo(t)
	repo := NewRepository(db)

	company := primitive.NewObjectID()
	channel := primitive.NewObjectID()
	store := auditmodels.Store{ID: primitive.NewObjectID(), CompanyID: company, Name: "Kiosk 1", ChannelID: channel}
	_, err := db.Collection(database.ColNames.Stores).InsertOne(ctx, store)
	require.NoError(t, err)

	_, err = db.Collection(database.ColNames.Kpis).InsertMany(ctx, []interface{}{
		auditmodels.KpiDefinition{ID: "b", CompanyID: company, ChannelID: channel, Order: 2, Title: "Second", Weight: 10, From: "questions"},
		auditmodels.KpiDefinition{ID: "a", CompanyID: company, ChannelID: channel, Order: 1, Title: "First", Weight: 10, From: "questions"},
		auditmodels.KpiDefinition{ID: "c", CompanyID: company, ChannelID: primitive.NewObjectID(), Title: "Other channel", Weight: 10},
	})
	require.NoError(t, err)

	kpis, err := repo.ListKpis(ctx, company, channel)
	require.NoError(t, err)
	require.Len(t, kpis, 2)
	assert.Equal(t, "a", kpis[0].ID)

	_, err = repo.GetSurvey(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, common.ErrNotFound)

	april := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	may := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{april, may} {
		ps := &reportmodels.ProcessedSurvey{
			CompanyID: company, StoreID: store.ID, SurveyID: primitive.NewObjectID(), SurveyAddedAt: at,
			Result: auditmodels.ScoredNode{Title: auditmodels.TotalTitle, Weight: 10, Points: auditmodels.Points{Possible: 10, Obtained: 5}, Score: 0.5, SubKpis: []auditmodels.ScoredNode{}},
		}
		require.NoError(t, repo.UpsertProcessedSurvey(ctx, ps))
		require.NoError(t, repo.UpsertProcessedSurvey(ctx, ps))
	}
	n, err := db.Collection(database.ColNames.ProcessedSurveys).CountDocuments(ctx, map[string]interface{}{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	prev, err := repo.FindPreviousProcessedSurvey(ctx, store.ID, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.True(t, prev.SurveyAddedAt.Equal(april))

	none, err := repo.FindPreviousProcessedSurvey(ctx, store.ID, april)
	require.NoError(t, err)
	assert.Nil(t, none)

	proc := reportsvc.NewAggregateProcessor(reportsvc.JoinByIDTitle, 1, time.UTC, nil)
	req := reportsvc.AggregateRequest{
		CompanyID: company,
		Filter:    reportmodels.SegmentFilter{Channel: channel.Hex()},
		From:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	first, err := proc.Aggregate(ctx, repo, req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.SurveyCount)

	_, err = proc.Aggregate(ctx, repo, req)
	require.NoError(t, err)
	stored, err := repo.GetAggregate(ctx, first.QueryHash, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, 1, stored.StoreCount)
	assert.Equal(t, 0.5, stored.Result.Score)
	count, err := db.Collection(database.ColNames.SegmentAggregates).CountDocuments(ctx, map[string]interface{}{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRepository_LatestSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(startMongo(t))
	store := primitive.NewObjectID()

	_, err := repo.LatestSnapshot(ctx, store)
	assert.ErrorIs(t, err, common.ErrNotFound)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		snap := &reportmodels.StoreTrendSnapshot{
			StoreID: store, SurveyID: primitive.NewObjectID(), RunID: fmt.Sprintf("run-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Trend:     reportmodels.TrendNode{Title: auditmodels.TotalTitle, Score: reportsvc.ComputeVspp(0.5, 0.25)},
		}
		require.NoError(t, repo.InsertTrendSnapshot(ctx, snap))
		assert.False(t, snap.ID.IsZero())
	}

	latest, err := repo.LatestSnapshot(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)
	assert.Equal(t, "25", latest.Trend.Score.Display)
}
