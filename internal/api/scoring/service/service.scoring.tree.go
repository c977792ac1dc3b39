package scoringsvc

import (
	"fmt"

	auditmodels "store_audit/internal/api/audit/models"
	"store_audit/internal/common"
)

// MaxTreeDepth bounds recursion over KPI and result trees. The Total root is depth 0.
const MaxTreeDepth = 16

func checkDepth(depth int, kpi *auditmodels.KpiDefinition) error {
	if depth > MaxTreeDepth {
		return common.Wrap(common.ErrTreeTooDeep, kpi.ID, fmt.Errorf("node %q at depth %d exceeds %d", kpi.Title, depth, MaxTreeDepth))
	}
	return nil
}

// newNode starts a result node whose possible points equal the declared weight.
func newNode(id, title string, weight float64) auditmodels.ScoredNode {
	if weight < 0 {
		weight = 0
	}
	return auditmodels.ScoredNode{
		ID:     id,
		Title:  title,
		Weight: weight,
		Points: auditmodels.Points{Possible: weight},
	}
}

// settle clamps obtained into [0, possible] and derives the score.
func settle(n *auditmodels.ScoredNode, obtained float64) {
	if obtained < 0 {
		obtained = 0
	}
	if obtained > n.Points.Possible {
		obtained = n.Points.Possible
	}
	n.Points.Obtained = obtained
	n.Score = auditmodels.Ratio(n.Points.Obtained, n.Points.Possible)
}

// NewTotal sums the scored top-level nodes into the synthetic root.
func NewTotal(nodes []auditmodels.ScoredNode) auditmodels.ScoredNode {
	total := auditmodels.ScoredNode{
		Title:      auditmodels.TotalTitle,
		HasSubKpis: true,
		SubKpis:    make([]auditmodels.ScoredNode, 0, len(nodes)),
	}
	var obtained float64
	for _, n := range nodes {
		total.Weight += n.Weight
		total.Points.Possible += n.Points.Possible
		obtained += n.Points.Obtained
		total.SubKpis = append(total.SubKpis, n)
	}
	settle(&total, obtained)
	return total
}

// Walk visits every node depth-first, stopping below MaxTreeDepth.
func Walk(n *auditmodels.ScoredNode, fn func(n *auditmodels.ScoredNode, depth int)) {
	walk(n, 0, fn)
}

func walk(n *auditmodels.ScoredNode, depth int, fn func(*auditmodels.ScoredNode, int)) {
	if depth > MaxTreeDepth {
		return
	}
	fn(n, depth)
	for i := range n.SubKpis {
		walk(&n.SubKpis[i], depth+1, fn)
	}
}
