package reportsvc

import (
	auditmodels "store_audit/internal/api/audit/models"
	scoringsvc "store_audit/internal/api/scoring/service"
)

// MergeTree adds src into acc: weights and points are summed and children are merged
// recursively by join key. Children missing from acc are appended as copies. Scores are
// left stale; call RecomputeScores once merging is done.
func MergeTree(acc *auditmodels.ScoredNode, src auditmodels.ScoredNode, policy JoinPolicy) {
	mergeNode(acc, &src, policy, 0)
}

func mergeNode(acc, src *auditmodels.ScoredNode, policy JoinPolicy, depth int) {
	acc.Weight += src.Weight
	acc.Points.Possible += src.Points.Possible
	acc.Points.Obtained += src.Points.Obtained
	acc.HasSubKpis = acc.HasSubKpis || src.HasSubKpis

	if depth >= scoringsvc.MaxTreeDepth || len(src.SubKpis) == 0 {
		return
	}
	if acc.SubKpis == nil {
		acc.SubKpis = []auditmodels.ScoredNode{}
	}
	idx := policy.index(acc.SubKpis)
	for i := range src.SubKpis {
		child := &src.SubKpis[i]
		if pos, ok := idx[policy.Key(child)]; ok {
			mergeNode(&acc.SubKpis[pos], child, policy, depth+1)
			continue
		}
		idx[policy.Key(child)] = len(acc.SubKpis)
		acc.SubKpis = append(acc.SubKpis, child.Clone())
	}
}

// RecomputeScores sets score = obtained/possible on every node, depth-first.
func RecomputeScores(n *auditmodels.ScoredNode) {
	recompute(n, 0)
}

func recompute(n *auditmodels.ScoredNode, depth int) {
	if depth < scoringsvc.MaxTreeDepth {
		for i := range n.SubKpis {
			recompute(&n.SubKpis[i], depth+1)
		}
	}
	n.Score = auditmodels.Ratio(n.Points.Obtained, n.Points.Possible)
}

// emptyTotal is the accumulator root of an aggregation.
func emptyTotal() auditmodels.ScoredNode {
	return auditmodels.ScoredNode{
		Title:      auditmodels.TotalTitle,
		HasSubKpis: true,
		SubKpis:    []auditmodels.ScoredNode{},
	}
}
