// Package reportsvc builds the derived reports: store trend snapshots and segment aggregates.
package reportsvc

import (
	"math"
	"strconv"

	reportmodels "store_audit/internal/api/report/models"
)

// Color bands by current score in percent; the lower bound is inclusive.
var colorBands = []struct {
	below int
	hex   string
}{
	{6, "#F44336"},  // red
	{26, "#FF9800"}, // orange
	{56, "#FFC107"}, // amber
	{86, "#8BC34A"}, // light green
}

const colorTop = "#4CAF50" // green

// ComputeVspp compares two ratios in whole percentage points.
func ComputeVspp(current, previous float64) reportmodels.Vspp {
	cur := percent(current)
	prev := percent(previous)
	delta := cur - prev

	v := reportmodels.Vspp{
		Current:   cur,
		Previous:  prev,
		Delta:     delta,
		Direction: reportmodels.DirectionUp,
		Color:     ColorFor(cur),
	}
	if delta >= 0 {
		v.Display = strconv.Itoa(delta)
	} else {
		v.Display = "(" + strconv.Itoa(-delta) + ")"
		v.Direction = reportmodels.DirectionDown
	}
	return v
}

// ColorFor returns the band color of a score in percent.
func ColorFor(pct int) string {
	for _, b := range colorBands {
		if pct < b.below {
			return b.hex
		}
	}
	return colorTop
}

func percent(ratio float64) int {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	return int(math.Round(ratio * 100))
}
