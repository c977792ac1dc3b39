package scoringsvc

import (
	"context"
	"sort"

	auditmodels "store_audit/internal/api/audit/models"
	"store_audit/internal/logger"
	"store_audit/internal/metrics"
)

// Scorer scores a survey against a KPI tree and sums the top-level nodes into the Total root.
type Scorer struct {
	questions *QuestionProcessor
	pocs      *PocProcessor
	metrics   *metrics.Metrics
}

func NewScorer(m *metrics.Metrics) *Scorer {
	return &Scorer{
		questions: NewQuestionProcessor(m),
		pocs:      NewPocProcessor(m),
		metrics:   m,
	}
}

// NodeError records a top-level KPI that could not be scored.
type NodeError struct {
	KpiID string
	Title string
	Err   error
}

// Score scores every top-level KPI in declared order. Failing KPIs are left out of the Total
// and returned for reporting; they never fail the whole tree.
func (s *Scorer) Score(ctx context.Context, survey *auditmodels.Survey, kpis []auditmodels.KpiDefinition, catalog []auditmodels.Sku) (auditmodels.ScoredNode, []NodeError) {
	ordered := make([]*auditmodels.KpiDefinition, len(kpis))
	for i := range kpis {
		ordered[i] = &kpis[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	answers := indexAnswers(survey.Questions)
	var skus map[string]auditmodels.Sku

	nodes := make([]auditmodels.ScoredNode, 0, len(ordered))
	var failures []NodeError
	for _, kpi := range ordered {
		var (
			node auditmodels.ScoredNode
			err  error
		)
		if Source(kpi) == auditmodels.KpiFromSkus {
			if skus == nil {
				skus = IndexCatalog(catalog)
			}
			node, err = s.pocs.Process(ctx, kpi, survey, skus)
		} else {
			node, err = s.questions.Process(ctx, kpi, answers)
		}
		if err != nil {
			s.metrics.NodeDropped("kpi")
			logger.WithContext(ctx).WithFields(map[string]interface{}{
				"kpiId": kpi.ID,
				"kpi":   kpi.Title,
				"error": err.Error(),
			}).Warn("🧮 [SCORING] KPI dropped from total")
			failures = append(failures, NodeError{KpiID: kpi.ID, Title: kpi.Title, Err: err})
			continue
		}
		nodes = append(nodes, node)
	}

	return NewTotal(nodes), failures
}

// Source returns where a KPI takes its input from. Nodes without an explicit source
// are SKU nodes when they declare a SKU mode.
func Source(kpi *auditmodels.KpiDefinition) string {
	switch kpi.From {
	case auditmodels.KpiFromQuestions, auditmodels.KpiFromSkus:
		return kpi.From
	}
	if kpi.SkuMode != "" {
		return auditmodels.KpiFromSkus
	}
	return auditmodels.KpiFromQuestions
}

// NeedsCatalog reports whether any top-level KPI is scored from SKUs.
func NeedsCatalog(kpis []auditmodels.KpiDefinition) bool {
	for i := range kpis {
		if Source(&kpis[i]) == auditmodels.KpiFromSkus {
			return true
		}
	}
	return false
}
