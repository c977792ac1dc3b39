package reportsvc

import (
	"fmt"
	"strings"

	auditmodels "store_audit/internal/api/audit/models"
)

// JoinPolicy decides which nodes of two trees describe the same KPI.
type JoinPolicy string

const (
	// JoinByTitle matches nodes by title only.
	JoinByTitle JoinPolicy = "title"
	// JoinByIDTitle matches nodes by id, falling back to title for nodes without one.
	JoinByIDTitle JoinPolicy = "id_title"
)

// ParseJoinPolicy validates a configured policy name.
func ParseJoinPolicy(s string) (JoinPolicy, error) {
	switch p := JoinPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case JoinByTitle, JoinByIDTitle:
		return p, nil
	case "":
		return JoinByTitle, nil
	}
	return "", fmt.Errorf("unknown join key policy %q (want title or id_title)", s)
}

// Key returns the join key of n under the policy.
func (p JoinPolicy) Key(n *auditmodels.ScoredNode) string {
	if p == JoinByIDTitle && n.ID != "" {
		return "id:" + n.ID
	}
	return "title:" + n.Title
}

// index maps the join keys of nodes to their positions. The first node wins on duplicate keys.
func (p JoinPolicy) index(nodes []auditmodels.ScoredNode) map[string]int {
	out := make(map[string]int, len(nodes))
	for i := range nodes {
		k := p.Key(&nodes[i])
		if _, ok := out[k]; !ok {
			out[k] = i
		}
	}
	return out
}
