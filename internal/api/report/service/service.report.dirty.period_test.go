//go:build database

package reportsvc

import (
	"context"
	"fmt"
	"testing"
	"time"

	reportmodels "store_audit/internal/api/report/models"
	"store_audit/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func startControlDB(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
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

	db := client.Database("control_test")
	require.NoError(t, database.EnsureControlIndexes(ctx, db))
	return db
}

func TestSegmentDirtyService_RemarkWithinSameSecondStaysPending(t *testing.T) {
	ctx := context.Background()
	svc := NewSegmentDirtyService(startControlDB(t))

	base := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	clock := base
	svc.now = func() time.Time { return clock }

	company := primitive.NewObjectID()
	region := reportmodels.SegmentFilter{Region: primitive.NewObjectID().Hex()}
	all := reportmodels.SegmentFilter{}

	clock = base.Add(5 * time.Second)
	require.NoError(t, svc.MarkDirty(ctx, company, "2024-05", []reportmodels.SegmentFilter{all}))
	clock = base
	require.NoError(t, svc.MarkDirty(ctx, company, "2024-05", []reportmodels.SegmentFilter{region}))
	require.NoError(t, svc.MarkDirty(ctx, company, "2024-05", []reportmodels.SegmentFilter{region}))

	// repeated marks collapse into one document per segment month
	n, err := svc.coll.CountDocuments(ctx, bson.M{"company_id": company})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	list, err := svc.GetUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, QueryHash(region), list[0].QueryHash)
	assert.Equal(t, QueryHash(all), list[1].QueryHash)

	// a survey lands in the region while the drain is recomputing, in the same second
	require.NoError(t, svc.MarkDirty(ctx, company, "2024-05", []reportmodels.SegmentFilter{region}))

	require.NoError(t, svc.SetProcessed(ctx, &list[0]))
	require.NoError(t, svc.SetProcessed(ctx, &list[1]))

	pending, err := svc.GetUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, QueryHash(region), pending[0].QueryHash)
	assert.Equal(t, list[0].MarkedAt, pending[0].MarkedAt)
	assert.NotEqual(t, list[0].MarkToken, pending[0].MarkToken)

	require.NoError(t, svc.SetProcessed(ctx, &pending[0]))
	pending, err = svc.GetUnprocessed(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
