package scoringsvc

import (
	"context"
	"fmt"

	auditmodels "store_audit/internal/api/audit/models"
	"store_audit/internal/logger"
	"store_audit/internal/metrics"
)

// questionResult is the outcome of matching one question reference.
type questionResult struct {
	present  bool    // an answer exists
	matched  bool    // some condition held
	obtained float64 // weight of the first matching condition
}

// QuestionProcessor scores KPI nodes built from survey question answers.
type QuestionProcessor struct {
	metrics *metrics.Metrics
}

func NewQuestionProcessor(m *metrics.Metrics) *QuestionProcessor {
	return &QuestionProcessor{metrics: m}
}

// Process scores kpi against the survey answers indexed by question id.
// Entries that fail are logged and left out; the node itself fails only on a depth violation.
func (p *QuestionProcessor) Process(ctx context.Context, kpi *auditmodels.KpiDefinition, answers map[string]auditmodels.SurveyAnswer) (auditmodels.ScoredNode, error) {
	return p.process(ctx, kpi, answers, 1)
}

func (p *QuestionProcessor) process(ctx context.Context, kpi *auditmodels.KpiDefinition, answers map[string]auditmodels.SurveyAnswer, depth int) (auditmodels.ScoredNode, error) {
	if err := checkDepth(depth, kpi); err != nil {
		return auditmodels.ScoredNode{}, err
	}

	node := newNode(kpi.ID, kpi.Title, kpi.Weight)
	node.HasSubKpis = kpi.HasSubKpis()
	node.SubKpis = []auditmodels.ScoredNode{}

	results := make(map[string]questionResult, len(kpi.Questions))
	failed := make(map[string]error)
	for i := range kpi.Questions {
		q := &kpi.Questions[i]
		res, err := scoreQuestion(q, answers)
		if err != nil {
			failed[q.ID] = err
			continue
		}
		results[q.ID] = res
	}

	var obtained float64
	if !kpi.HasSubKpis() {
		for i := range kpi.Questions {
			q := &kpi.Questions[i]
			if err, ok := failed[q.ID]; ok {
				p.dropped(ctx, kpi, q.ID, q.Title, err)
				continue
			}
			res := results[q.ID]
			if !res.present {
				continue
			}
			entry := newNode(q.ID, q.Title, q.Weight)
			entry.SubKpis = []auditmodels.ScoredNode{}
			settle(&entry, res.obtained)
			node.SubKpis = append(node.SubKpis, entry)
			obtained += entry.Points.Obtained
		}
		settle(&node, obtained)
		return node, nil
	}

	for i := range kpi.SubKpis {
		sub := &kpi.SubKpis[i]

		if len(sub.Questions) > 0 {
			entry, err := p.process(ctx, sub, answers, depth+1)
			if err != nil {
				p.dropped(ctx, kpi, sub.ID, sub.Title, err)
				continue
			}
			node.SubKpis = append(node.SubKpis, entry)
			obtained += entry.Points.Obtained
			continue
		}

		questionID := sub.QuestionID
		if questionID == "" {
			questionID = sub.ID
		}
		if err, ok := failed[questionID]; ok {
			p.dropped(ctx, kpi, sub.ID, sub.Title, err)
			continue
		}

		entry := newNode(sub.ID, sub.Title, sub.Weight)
		entry.SubKpis = []auditmodels.ScoredNode{}
		// no answer or no matching condition contributes 0
		if res := results[questionID]; res.matched {
			settle(&entry, res.obtained)
		}
		node.SubKpis = append(node.SubKpis, entry)
		obtained += entry.Points.Obtained
	}
	settle(&node, obtained)
	return node, nil
}

func (p *QuestionProcessor) dropped(ctx context.Context, kpi *auditmodels.KpiDefinition, entryID, entryTitle string, err error) {
	p.metrics.NodeDropped(auditmodels.KpiFromQuestions)
	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"kpiId":      kpi.ID,
		"kpi":        kpi.Title,
		"entryId":    entryID,
		"entryTitle": entryTitle,
		"error":      err.Error(),
	}).Warn("🧮 [SCORING] Question entry dropped")
}

// scoreQuestion matches the survey answer for q against its ordered conditions.
func scoreQuestion(q *auditmodels.KpiQuestion, answers map[string]auditmodels.SurveyAnswer) (questionResult, error) {
	ans, ok := answers[q.ID]
	if !ok {
		return questionResult{}, nil
	}
	qType := ans.Type
	if qType == "" {
		qType = q.Type
	}
	value, present := normalizeAnswer(qType, ans.Answer)
	if !present {
		return questionResult{}, nil
	}

	weight, matched, err := matchConditions(value, q.Conditions)
	if err != nil {
		return questionResult{}, fmt.Errorf("question %s: %w", q.ID, err)
	}
	return questionResult{present: true, matched: matched, obtained: weight}, nil
}

// indexAnswers maps answers by question id. The first answer for an id wins.
func indexAnswers(answers []auditmodels.SurveyAnswer) map[string]auditmodels.SurveyAnswer {
	out := make(map[string]auditmodels.SurveyAnswer, len(answers))
	for _, a := range answers {
		if _, ok := out[a.ID]; !ok {
			out[a.ID] = a
		}
	}
	return out
}
