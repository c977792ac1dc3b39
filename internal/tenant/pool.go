package tenant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"store_audit/internal/common"
	"store_audit/internal/logger"
	"store_audit/internal/metrics"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
)

const (
	disconnectTimeout = 10 * time.Second
	acquireAttempts   = 3
)

// PoolOptions bounds the handle cache.
type PoolOptions struct {
	Capacity uint64        // maximum cached handles; least recently used is evicted first
	IdleTTL  time.Duration // idle time before a handle expires; refreshed on every hit
	Metrics  *metrics.Metrics
}

// Pool caches tenant handles. Evicted handles are disconnected once every holder released them.
type Pool struct {
	connector Connector
	cache     *ttlcache.Cache[string, *Handle]
	group     singleflight.Group
	metrics   *metrics.Metrics

	unsubscribe func()
	closeOnce   sync.Once
}

// NewPool starts the cache expiry loop. Call Close to stop it and release every handle.
func NewPool(connector Connector, o PoolOptions) *Pool {
	if o.Capacity == 0 {
		o.Capacity = 64
	}
	if o.IdleTTL <= 0 {
		o.IdleTTL = 30 * time.Minute
	}

	p := &Pool{
		connector: connector,
		metrics:   o.Metrics,
		cache: ttlcache.New[string, *Handle](
			ttlcache.WithTTL[string, *Handle](o.IdleTTL),
			ttlcache.WithCapacity[string, *Handle](o.Capacity),
		),
	}

	// Each eviction callback runs on its own goroutine.
	p.unsubscribe = p.cache.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Handle]) {
		p.metrics.TenantEvicted()
		if !item.Value().retire() {
			logger.GetAppLogger().WithFields(map[string]interface{}{
				"companyId": item.Key(),
				"reason":    reason,
				"holders":   item.Value().Holders(),
			}).Debug("🏢 [TENANT] Handle evicted while in use, disconnect deferred to last release")
			return
		}
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
		defer cancel()
		if err := item.Value().Disconnect(dctx); err != nil {
			logger.GetAppLogger().WithFields(map[string]interface{}{
				"companyId": item.Key(),
				"reason":    reason,
				"error":     err.Error(),
			}).Warn("🏢 [TENANT] Disconnect after eviction failed")
			return
		}
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"companyId": item.Key(),
			"reason":    reason,
		}).Debug("🏢 [TENANT] Handle evicted")
	})

	go p.cache.Start()
	return p
}

// Get returns the cached handle for companyID, connecting on a miss, and holds it for the
// caller. Every successful Get must be paired with Handle.Release.
// Concurrent misses for the same company share one connect.
func (p *Pool) Get(ctx context.Context, companyID string) (*Handle, error) {
	for i := 0; i < acquireAttempts; i++ {
		h, err := p.lookup(ctx, companyID)
		if err != nil {
			return nil, err
		}
		if h.acquire() {
			return h, nil
		}
	}
	return nil, common.Wrap(common.ErrConnection, companyID, fmt.Errorf("tenant %s: handle evicted %d times while acquiring", companyID, acquireAttempts))
}

func (p *Pool) lookup(ctx context.Context, companyID string) (*Handle, error) {
	if item := p.cache.Get(companyID); item != nil {
		return item.Value(), nil
	}

	v, err, _ := p.group.Do(companyID, func() (interface{}, error) {
		if item := p.cache.Get(companyID); item != nil {
			return item.Value(), nil
		}
		h, err := p.connector.Connect(context.WithoutCancel(ctx), companyID)
		if err != nil {
			return nil, err
		}
		p.cache.Set(companyID, h, ttlcache.DefaultTTL)
		return h, nil
	})
	if err != nil {
		return nil, fmt.Errorf("tenant %s: %w", companyID, err)
	}
	p.metrics.TenantCacheSize(p.cache.Len())
	return v.(*Handle), nil
}

// Evict drops and disconnects the handle for companyID.
func (p *Pool) Evict(companyID string) {
	p.cache.Delete(companyID)
}

// Len returns the number of cached handles.
func (p *Pool) Len() int {
	return p.cache.Len()
}

// Close retires every cached handle and stops the expiry loop. Handles still held are
// disconnected by their last Release.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.cache.DeleteAll()
		p.cache.Stop()
		p.unsubscribe() // waits for pending disconnects
		p.metrics.TenantCacheSize(0)
	})
}
