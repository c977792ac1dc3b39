package reportsvc

import (
	"context"
	"fmt"
	"time"

	auditmodels "store_audit/internal/api/audit/models"
	reportmodels "store_audit/internal/api/report/models"
	scoringsvc "store_audit/internal/api/scoring/service"
	"store_audit/internal/logger"
)

// StoreMapReducer compares a store's latest scored tree with its previous period
// and appends a trend snapshot.
type StoreMapReducer struct {
	join JoinPolicy
	loc  *time.Location
	now  func() time.Time
}

func NewStoreMapReducer(join JoinPolicy, loc *time.Location) *StoreMapReducer {
	if loc == nil {
		loc = time.UTC
	}
	return &StoreMapReducer{join: join, loc: loc, now: time.Now}
}

// Reduce loads the latest tree from a strictly earlier month and appends the snapshot.
func (r *StoreMapReducer) Reduce(ctx context.Context, repo TrendRepository, current *reportmodels.ProcessedSurvey, runID string) (*reportmodels.StoreTrendSnapshot, error) {
	before := MonthStart(current.SurveyAddedAt, r.loc)
	prev, err := repo.FindPreviousProcessedSurvey(ctx, current.StoreID, before)
	if err != nil {
		return nil, fmt.Errorf("load previous period for store %s: %w", current.StoreID.Hex(), err)
	}

	snap := &reportmodels.StoreTrendSnapshot{
		CompanyID:     current.CompanyID,
		StoreID:       current.StoreID,
		SurveyID:      current.SurveyID,
		SurveyedMonth: MonthKey(current.SurveyAddedAt, r.loc),
		Current:       current.Result.Clone(),
		RunID:         runID,
		CreatedAt:     r.now().UTC(),
	}
	var prevTree *auditmodels.ScoredNode
	if prev != nil {
		id := prev.SurveyID
		snap.PreviousSurveyID = &id
		prevTree = &prev.Result
	}
	snap.Trend = r.Compare(current.Result, prevTree)

	if err := repo.InsertTrendSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("insert trend snapshot for store %s: %w", current.StoreID.Hex(), err)
	}

	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"storeId":     current.StoreID.Hex(),
		"surveyId":    current.SurveyID.Hex(),
		"hasPrevious": prev != nil,
		"score":       snap.Trend.Score.Current,
	}).Info("📈 [TREND] Snapshot appended")
	return snap, nil
}

// Compare builds the trend tree of current against previous. A nil previous compares against zeros.
func (r *StoreMapReducer) Compare(current auditmodels.ScoredNode, previous *auditmodels.ScoredNode) reportmodels.TrendNode {
	return r.compare(&current, previous, 0)
}

func (r *StoreMapReducer) compare(cur, prev *auditmodels.ScoredNode, depth int) reportmodels.TrendNode {
	var prevScore float64
	if prev != nil {
		prevScore = prev.Score
	}

	node := reportmodels.TrendNode{
		ID:         cur.ID,
		Title:      cur.Title,
		Weight:     cur.Weight,
		Points:     cur.Points,
		Score:      ComputeVspp(cur.Score, prevScore),
		History:    []float64{cur.Score, prevScore},
		HasSubKpis: cur.HasSubKpis,
		SubKpis:    []reportmodels.TrendNode{},
	}
	if depth >= scoringsvc.MaxTreeDepth {
		return node
	}

	var prevIdx map[string]int
	if prev != nil {
		prevIdx = r.join.index(prev.SubKpis)
	}
	for i := range cur.SubKpis {
		child := &cur.SubKpis[i]
		var prevChild *auditmodels.ScoredNode
		if pos, ok := prevIdx[r.join.Key(child)]; ok {
			prevChild = &prev.SubKpis[pos]
		}
		node.SubKpis = append(node.SubKpis, r.compare(child, prevChild, depth+1))
	}
	return node
}
