package models

// TotalTitle is the title of the synthetic root node of every scored tree.
const TotalTitle = "Total"

// Points holds the weight available on a node and the weight obtained.
type Points struct {
	Possible float64 `json:"possible" bson:"possible"`
	Obtained float64 `json:"obtained" bson:"obtained"`
}

// ScoredNode is one node of a scored result tree. It mirrors the KPI definition tree.
type ScoredNode struct {
	ID         string       `json:"id,omitempty" bson:"id,omitempty"`
	Title      string       `json:"title" bson:"title"`
	Weight     float64      `json:"weight" bson:"weight"`
	Points     Points       `json:"points" bson:"points"`
	Score      float64      `json:"score" bson:"score"`
	HasSubKpis bool         `json:"has_sub_kpis" bson:"has_sub_kpis"`
	SubKpis    []ScoredNode `json:"sub_kpis" bson:"sub_kpis"`
}

// Clone returns a deep copy of the node.
func (n ScoredNode) Clone() ScoredNode {
	out := n
	if n.SubKpis != nil {
		out.SubKpis = make([]ScoredNode, len(n.SubKpis))
		for i := range n.SubKpis {
			out.SubKpis[i] = n.SubKpis[i].Clone()
		}
	}
	return out
}

// Ratio returns obtained/possible, 0 when nothing was possible.
func Ratio(obtained, possible float64) float64 {
	if possible == 0 {
		return 0
	}
	return obtained / possible
}
