// Package database opens MongoDB clients and bootstraps the pipeline's indexes.
package database

import (
	"context"
	"fmt"
	"time"

	"store_audit/internal/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClientOptions tunes a client opened by GetInstance.
type ClientOptions struct {
	MaxPoolSize    uint64
	MinPoolSize    uint64
	ConnectTimeout time.Duration
}

// GetInstance connects to uri and pings the primary before returning the client.
// Used both for the control-plane client and for each tenant's client.
func GetInstance(ctx context.Context, uri string, o ClientOptions) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("database connection URL is empty")
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 5 * time.Second
	}

	clientOptions := options.Client().ApplyURI(uri).
		SetConnectTimeout(o.ConnectTimeout).
		SetSocketTimeout(30 * time.Second)
	if o.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		clientOptions.SetMinPoolSize(o.MinPoolSize)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 2*o.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancelPing()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.GetAppLogger().Debug("Successfully connected to MongoDB")
	return client, nil
}

// CloseInstance disconnects the client.
func CloseInstance(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		logger.GetAppLogger().WithError(err).Error("Failed to disconnect MongoDB client")
		return err
	}
	logger.GetAppLogger().Debug("Successfully disconnected from MongoDB")
	return nil
}
