// Package tenant resolves a company id to a live handle on that company's database.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"store_audit/internal/common"
	"store_audit/internal/database"
	"store_audit/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Handle is a live connection to one tenant database. Handles returned by Pool.Get are
// held until Release; an evicted handle disconnects when its last holder releases it.
type Handle struct {
	CompanyID  string
	db         *mongo.Database
	disconnect func(ctx context.Context) error

	mu      sync.Mutex
	refs    int
	retired bool
	closed  bool
}

// NewHandle wraps db. disconnect may be nil when the client is shared.
func NewHandle(companyID string, db *mongo.Database, disconnect func(ctx context.Context) error) *Handle {
	return &Handle{CompanyID: companyID, db: db, disconnect: disconnect}
}

// Database returns the tenant database.
func (h *Handle) Database() *mongo.Database {
	return h.db
}

// Disconnect releases the underlying client. Later calls are no-ops.
func (h *Handle) Disconnect(ctx context.Context) error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()
	if h.disconnect == nil {
		return nil
	}
	return h.disconnect(ctx)
}

// acquire adds a holder. It fails once the handle has been retired.
func (h *Handle) acquire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.retired {
		return false
	}
	h.refs++
	return true
}

// retire marks the handle evicted and reports whether nobody holds it any more.
func (h *Handle) retire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.retired = true
	return h.refs == 0
}

// Release drops a holder taken by Pool.Get. The last release of a retired handle disconnects it.
func (h *Handle) Release(ctx context.Context) error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	if h.refs > 0 {
		h.refs--
	}
	last := h.retired && h.refs == 0
	h.mu.Unlock()
	if !last {
		return nil
	}
	return h.Disconnect(ctx)
}

// Holders returns the number of unreleased Pool.Get calls.
func (h *Handle) Holders() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refs
}

// Connector opens a handle for a company.
type Connector interface {
	Connect(ctx context.Context, companyID string) (*Handle, error)
}

// Record is a tenant registration in the control-plane database.
type Record struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	CompanyID     primitive.ObjectID `bson:"company_id"`
	ConnectionURI string             `bson:"connection_uri,omitempty"`
	DBName        string             `bson:"db_name"`
}

// MongoConnector looks tenants up in the control-plane tenants collection.
// Tenants without their own connection URI share the control-plane client.
type MongoConnector struct {
	control *mongo.Database
	options database.ClientOptions
}

func NewMongoConnector(control *mongo.Database, o database.ClientOptions) *MongoConnector {
	return &MongoConnector{control: control, options: o}
}

// Connect implements Connector.
func (c *MongoConnector) Connect(ctx context.Context, companyID string) (*Handle, error) {
	oid, err := primitive.ObjectIDFromHex(companyID)
	if err != nil {
		return nil, common.Wrap(common.ErrTenantUnknown, companyID, err)
	}

	var rec Record
	err = c.control.Collection(database.ColNames.Tenants).
		FindOne(ctx, bson.M{"company_id": oid}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.Wrap(common.ErrTenantUnknown, companyID, err)
		}
		return nil, fmt.Errorf("load tenant %s: %w", companyID, common.ConvertMongoError(err))
	}
	if rec.DBName == "" {
		return nil, common.Wrap(common.ErrTenantUnknown, companyID, errors.New("tenant has no db_name"))
	}

	var h *Handle
	if rec.ConnectionURI == "" {
		h = NewHandle(companyID, c.control.Client().Database(rec.DBName), nil)
	} else {
		client, err := database.GetInstance(ctx, rec.ConnectionURI, c.options)
		if err != nil {
			return nil, fmt.Errorf("connect tenant %s: %w", companyID, common.Wrap(common.ErrConnection, companyID, err))
		}
		h = NewHandle(companyID, client.Database(rec.DBName), func(ctx context.Context) error {
			return database.CloseInstance(ctx, client)
		})
	}

	idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := database.EnsureTenantIndexes(idxCtx, h.Database()); err != nil {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"companyId": companyID,
			"error":     err.Error(),
		}).Warn("🏢 [TENANT] Index bootstrap failed")
	}

	return h, nil
}
