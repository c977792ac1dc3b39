package scoringsvc

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	auditmodels "store_audit/internal/api/audit/models"
	"store_audit/internal/common"
	"store_audit/internal/logger"
	"store_audit/internal/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// observation is one observed SKU on one POC, joined with the catalog.
type observation struct {
	SkuID        string
	PocID        string
	IsMpa        bool
	IsCompetitor bool
	Fronts       *float64
	Expiry       interface{}
}

// PocProcessor scores KPI nodes computed from the SKUs observed on the store's POCs.
type PocProcessor struct {
	metrics *metrics.Metrics
}

func NewPocProcessor(m *metrics.Metrics) *PocProcessor {
	return &PocProcessor{metrics: m}
}

// observations flattens the survey's POC/SKU pairs and enriches each with its catalog entry.
// The first present value wins, in catalog, POC, observation order. A catalog fronts value
// therefore replaces the fronts counted in the survey.
// Unselected observations and SKUs missing from the catalog are skipped.
func observations(survey *auditmodels.Survey, catalog map[string]auditmodels.Sku) []observation {
	var out []observation
	for _, poc := range survey.Pocs {
		for _, obs := range poc.Skus {
			if obs.Selected != nil && !*obs.Selected {
				continue
			}
			sku, ok := catalog[obs.ID]
			if !ok {
				continue
			}
			out = append(out, observation{
				SkuID:        obs.ID,
				PocID:        poc.ID,
				IsMpa:        sku.IsMpa,
				IsCompetitor: sku.IsCompetitor,
				Fronts:       firstFloat(sku.Fronts, obs.Fronts),
				Expiry:       firstValue(sku.Expiry, poc.Expiry, obs.Expiry),
			})
		}
	}
	return out
}

// IndexCatalog maps catalog SKUs by id.
func IndexCatalog(skus []auditmodels.Sku) map[string]auditmodels.Sku {
	out := make(map[string]auditmodels.Sku, len(skus))
	for _, s := range skus {
		out[s.ID] = s
	}
	return out
}

// Process scores a SKU node. The node's own ratio is computed over every observation;
// sub-KPIs keyed by POC re-run the formula over their POCs only.
func (p *PocProcessor) Process(ctx context.Context, kpi *auditmodels.KpiDefinition, survey *auditmodels.Survey, catalog map[string]auditmodels.Sku) (auditmodels.ScoredNode, error) {
	return p.process(ctx, kpi, kpi.SkuMode, survey, observations(survey, catalog), catalog, 1)
}

func (p *PocProcessor) process(ctx context.Context, kpi *auditmodels.KpiDefinition, mode string, survey *auditmodels.Survey, obs []observation, catalog map[string]auditmodels.Sku, depth int) (auditmodels.ScoredNode, error) {
	if err := checkDepth(depth, kpi); err != nil {
		return auditmodels.ScoredNode{}, err
	}
	if kpi.SkuMode != "" {
		mode = kpi.SkuMode
	}

	ratio, err := skuRatio(mode, survey, obs, catalog)
	if err != nil {
		return auditmodels.ScoredNode{}, fmt.Errorf("kpi %s: %w", kpi.ID, err)
	}

	node := newNode(kpi.ID, kpi.Title, kpi.Weight)
	node.HasSubKpis = kpi.HasSubKpis()
	node.SubKpis = []auditmodels.ScoredNode{}
	settle(&node, ratio*node.Points.Possible)

	for i := range kpi.SubKpis {
		sub := &kpi.SubKpis[i]
		subObs := obs
		if kpi.SubKpisBy == auditmodels.SubKpisByPoc {
			subObs = filterByPoc(obs, sub.PocIDs)
		}
		entry, err := p.process(ctx, sub, mode, survey, subObs, catalog, depth+1)
		if err != nil {
			p.metrics.NodeDropped(auditmodels.KpiFromSkus)
			logger.WithContext(ctx).WithFields(map[string]interface{}{
				"kpiId":      kpi.ID,
				"kpi":        kpi.Title,
				"entryId":    sub.ID,
				"entryTitle": sub.Title,
				"error":      err.Error(),
			}).Warn("🧮 [SCORING] SKU entry dropped")
			continue
		}
		node.SubKpis = append(node.SubKpis, entry)
	}
	return node, nil
}

func skuRatio(mode string, survey *auditmodels.Survey, obs []observation, catalog map[string]auditmodels.Sku) (float64, error) {
	switch mode {
	case auditmodels.SkuModeMpa:
		return mpaRatio(obs, catalog), nil
	case auditmodels.SkuModeSovi:
		return soviRatio(obs), nil
	case auditmodels.SkuModeFresh:
		return freshnessRatio(obs, survey.AddedAt), nil
	}
	return 0, common.Wrap(common.ErrMalformedKpi, mode, fmt.Errorf("unknown sku mode %q", mode))
}

// mpaRatio is distinct observed MPA SKUs over catalog MPA SKUs.
func mpaRatio(obs []observation, catalog map[string]auditmodels.Sku) float64 {
	var required int
	for _, s := range catalog {
		if s.IsMpa {
			required++
		}
	}
	seen := make(map[string]struct{})
	for _, o := range obs {
		if o.IsMpa {
			seen[o.SkuID] = struct{}{}
		}
	}
	if required == 0 || len(seen) == 0 {
		return 0
	}
	return float64(len(seen)) / float64(required)
}

// soviRatio is own fronts over own plus competitor fronts.
func soviRatio(obs []observation) float64 {
	var own, competitor float64
	for _, o := range obs {
		if o.Fronts == nil || *o.Fronts < 0 {
			continue
		}
		if o.IsCompetitor {
			competitor += *o.Fronts
		} else {
			own += *o.Fronts
		}
	}
	return auditmodels.Ratio(own, own+competitor)
}

// freshnessRatio is observations expiring on or after the survey date over observations with a parseable expiry.
func freshnessRatio(obs []observation, surveyed time.Time) float64 {
	cutoff := surveyed.Unix()
	var fresh, dated float64
	for _, o := range obs {
		exp, ok := expiryUnix(o.Expiry)
		if !ok {
			continue
		}
		dated++
		if exp >= cutoff {
			fresh++
		}
	}
	return auditmodels.Ratio(fresh, dated)
}

var expiryLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "02/01/2006"}

// expiryUnix parses an expiry as unix seconds. Numbers above 1e12 are taken as milliseconds.
func expiryUnix(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case time.Time:
		return t.Unix(), !t.IsZero()
	case primitive.DateTime:
		return t.Time().Unix(), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return unixFromNumber(f), true
		}
		for _, layout := range expiryLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.Unix(), true
			}
		}
		return 0, false
	}
	if f, ok := toFloat(v); ok {
		return unixFromNumber(f), true
	}
	return 0, false
}

func unixFromNumber(f float64) int64 {
	if f > 1e12 {
		return int64(f / 1000)
	}
	return int64(f)
}

func filterByPoc(obs []observation, pocIDs []string) []observation {
	allowed := make(map[string]struct{}, len(pocIDs))
	for _, id := range pocIDs {
		allowed[id] = struct{}{}
	}
	out := make([]observation, 0, len(obs))
	for _, o := range obs {
		if _, ok := allowed[o.PocID]; ok {
			out = append(out, o)
		}
	}
	return out
}

func firstFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstValue(values ...interface{}) interface{} {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
