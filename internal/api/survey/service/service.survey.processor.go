package surveysvc

import (
	"context"
	"fmt"
	"time"

	auditmodels "store_audit/internal/api/audit/models"
	filesvc "store_audit/internal/api/files/service"
	reportmodels "store_audit/internal/api/report/models"
	reportsvc "store_audit/internal/api/report/service"
	scoringsvc "store_audit/internal/api/scoring/service"
	"store_audit/internal/common"
	"store_audit/internal/logger"
	"store_audit/internal/metrics"
	"store_audit/internal/queue"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Options configures a SurveyProcessor.
type Options struct {
	Location  *time.Location
	TrendJoin reportsvc.JoinPolicy
	Metrics   *metrics.Metrics
}

// SurveyProcessor scores one survey, persists the result, appends the store trend
// and marks the store's segments for recomputation.
type SurveyProcessor struct {
	tenants TenantSource
	marker  reportsvc.DirtyMarker
	scorer  *scoringsvc.Scorer
	reducer *reportsvc.StoreMapReducer
	loc     *time.Location
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewSurveyProcessor(tenants TenantSource, marker reportsvc.DirtyMarker, o Options) *SurveyProcessor {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.TrendJoin == "" {
		o.TrendJoin = reportsvc.JoinByTitle
	}
	return &SurveyProcessor{
		tenants: tenants,
		marker:  marker,
		scorer:  scoringsvc.NewScorer(o.Metrics),
		reducer: reportsvc.NewStoreMapReducer(o.TrendJoin, o.Location),
		loc:     o.Location,
		metrics: o.Metrics,
		now:     time.Now,
	}
}

// Result is what one run produced.
type Result struct {
	RunID     string
	Processed *reportmodels.ProcessedSurvey
	Snapshot  *reportmodels.StoreTrendSnapshot
	Failures  []scoringsvc.NodeError
}

// Process runs the pipeline for job. Configuration errors are returned unchanged so
// the consumer can tell them apart from transient failures.
func (p *SurveyProcessor) Process(ctx context.Context, job queue.SurveyJob) (*Result, error) {
	start := p.now()
	runID := uuid.NewString()
	ctx = logger.ContextWithRun(ctx, runID, job.CompanyID)

	res, err := p.process(ctx, runID, job)

	outcome := metrics.OutcomeSuccess
	switch {
	case common.IsConfigError(err):
		outcome = metrics.OutcomeConfigError
	case err != nil:
		outcome = metrics.OutcomeFailed
	}
	p.metrics.RunFinished(outcome, p.now().Sub(start))

	log := logger.WithContext(ctx).WithFields(map[string]interface{}{
		"surveyId": job.SurveyID,
		"storeId":  job.StoreID,
		"outcome":  outcome,
		"duration": p.now().Sub(start).String(),
	})
	if err != nil {
		log.WithError(err).Error("❌ [SURVEY] Processing failed")
		return nil, err
	}
	log.WithField("droppedKpis", len(res.Failures)).Info("✅ [SURVEY] Survey processed")
	return res, nil
}

func (p *SurveyProcessor) process(ctx context.Context, runID string, job queue.SurveyJob) (*Result, error) {
	companyID, storeID, surveyID, err := parseJobIDs(job)
	if err != nil {
		return nil, err
	}

	t, err := p.tenants.Open(ctx, job.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("open tenant %s: %w", job.CompanyID, err)
	}
	defer t.Release()
	repo := t.Repo

	if _, err := repo.GetCompany(ctx, companyID); err != nil {
		return nil, fmt.Errorf("load company %s: %w", job.CompanyID, err)
	}
	survey, err := repo.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("load survey %s: %w", job.SurveyID, err)
	}
	if survey.CompanyID != companyID || survey.StoreID != storeID {
		return nil, common.Wrap(common.ErrInvalidJob, job, fmt.Errorf("survey belongs to company %s store %s",
			survey.CompanyID.Hex(), survey.StoreID.Hex()))
	}
	store, err := repo.GetStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("load store %s: %w", job.StoreID, err)
	}
	if store.CompanyID != companyID {
		return nil, common.Wrap(common.ErrInvalidJob, job, fmt.Errorf("store belongs to company %s", store.CompanyID.Hex()))
	}

	kpis, err := repo.ListKpis(ctx, companyID, store.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("load KPI definitions: %w", err)
	}
	if len(kpis) == 0 {
		return nil, common.Wrap(common.ErrNoKpiDefinitions, map[string]string{
			"companyId": job.CompanyID,
			"channelId": store.ChannelID.Hex(),
		}, nil)
	}

	var catalog []auditmodels.Sku
	if scoringsvc.NeedsCatalog(kpis) {
		if catalog, err = repo.ListSkus(ctx, companyID); err != nil {
			return nil, fmt.Errorf("load SKU catalog: %w", err)
		}
		if len(catalog) == 0 {
			return nil, common.Wrap(common.ErrMissingCatalog, map[string]string{
				"companyId": job.CompanyID,
			}, nil)
		}
	}

	total, failures := p.scorer.Score(ctx, survey, kpis, catalog)

	files := reportmodels.ProcessedFiles{Items: []auditmodels.FileRecord{}}
	if refs := filesvc.ExtractFileRefs(survey.Questions); len(refs) > 0 && t.Files != nil {
		if files, err = t.Files.Resolve(ctx, refs); err != nil {
			return nil, fmt.Errorf("resolve survey files: %w", err)
		}
	}

	month := reportsvc.MonthKey(survey.AddedAt, p.loc)
	ps := &reportmodels.ProcessedSurvey{
		CompanyID:     companyID,
		StoreID:       store.ID,
		SurveyID:      survey.ID,
		SurveyAddedAt: survey.AddedAt,
		SurveyedMonth: month,
		GPS:           survey.GPS,
		Files:         files,
		Result:        total,
		RunID:         runID,
		ProcessedAt:   p.now().UTC(),
	}
	if err := repo.UpsertProcessedSurvey(ctx, ps); err != nil {
		return nil, fmt.Errorf("save processed survey: %w", err)
	}

	snap, err := p.reducer.Reduce(ctx, repo, ps, runID)
	if err != nil {
		return nil, err
	}

	filters := reportsvc.SegmentFiltersForStore(store)
	if err := p.marker.MarkDirty(ctx, companyID, month, filters); err != nil {
		return nil, fmt.Errorf("mark %d segments dirty for %s: %w", len(filters), month, err)
	}

	return &Result{RunID: runID, Processed: ps, Snapshot: snap, Failures: failures}, nil
}

func parseJobIDs(job queue.SurveyJob) (companyID, storeID, surveyID primitive.ObjectID, err error) {
	if companyID, err = primitive.ObjectIDFromHex(job.CompanyID); err != nil {
		return companyID, storeID, surveyID, common.Wrap(common.ErrInvalidJob, job, err)
	}
	if storeID, err = primitive.ObjectIDFromHex(job.StoreID); err != nil {
		return companyID, storeID, surveyID, common.Wrap(common.ErrInvalidJob, job, err)
	}
	if surveyID, err = primitive.ObjectIDFromHex(job.SurveyID); err != nil {
		return companyID, storeID, surveyID, common.Wrap(common.ErrInvalidJob, job, err)
	}
	return companyID, storeID, surveyID, nil
}
