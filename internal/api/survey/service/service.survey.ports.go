// Package surveysvc runs the scoring pipeline for one survey and re-enqueues surveys for reprocessing.
package surveysvc

import (
	"context"
	"time"

	auditmodels "store_audit/internal/api/audit/models"
	auditsvc "store_audit/internal/api/audit/service"
	filesvc "store_audit/internal/api/files/service"
	reportmodels "store_audit/internal/api/report/models"
	reportsvc "store_audit/internal/api/report/service"
	"store_audit/internal/queue"
	"store_audit/internal/tenant"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository is the tenant storage used by one processing run.
type Repository interface {
	GetCompany(ctx context.Context, id primitive.ObjectID) (*auditmodels.Company, error)
	GetStore(ctx context.Context, id primitive.ObjectID) (*auditmodels.Store, error)
	GetSurvey(ctx context.Context, id primitive.ObjectID) (*auditmodels.Survey, error)
	ListKpis(ctx context.Context, companyID, channelID primitive.ObjectID) ([]auditmodels.KpiDefinition, error)
	ListSkus(ctx context.Context, companyID primitive.ObjectID) ([]auditmodels.Sku, error)
	ListSurveys(ctx context.Context, companyID primitive.ObjectID, from, to time.Time, afterID primitive.ObjectID, limit int) ([]auditmodels.Survey, error)
	UpsertProcessedSurvey(ctx context.Context, ps *reportmodels.ProcessedSurvey) error
	reportsvc.TrendRepository
}

// Tenant bundles the collaborators bound to one company's database.
// Release it once the run is over.
type Tenant struct {
	Repo  Repository
	Files filesvc.Resolver

	release func()
}

// Release hands the tenant's database handle back to the pool.
func (t *Tenant) Release() {
	if t != nil && t.release != nil {
		t.release()
	}
}

// TenantSource opens the collaborators of a company.
type TenantSource interface {
	Open(ctx context.Context, companyID string) (*Tenant, error)
}

// Publisher enqueues survey jobs. *queue.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, jobs ...queue.SurveyJob) error
}

// PoolTenants opens tenants through the shared handle pool.
type PoolTenants struct {
	pool *tenant.Pool
}

func NewPoolTenants(pool *tenant.Pool) *PoolTenants {
	return &PoolTenants{pool: pool}
}

// Open implements TenantSource.
func (t *PoolTenants) Open(ctx context.Context, companyID string) (*Tenant, error) {
	h, err := t.pool.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	db := h.Database()
	return &Tenant{
		Repo:  auditsvc.NewRepository(db),
		Files: filesvc.NewMongoResolver(db),
		release: func() {
			_ = h.Release(context.WithoutCancel(ctx))
		},
	}, nil
}
