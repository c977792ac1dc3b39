package reportsvc

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"

	auditmodels "store_audit/internal/api/audit/models"
	reportmodels "store_audit/internal/api/report/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QueryHash digests the present dimensions of f. Absent dimensions are omitted,
// so a filter with an empty value hashes like one that never named the dimension.
func QueryHash(f reportmodels.SegmentFilter) string {
	dims := make(map[string]string, 4)
	put := func(k, v string) {
		if v != "" {
			dims[k] = v
		}
	}
	put("channel", f.Channel)
	put("sub_channel", f.SubChannel)
	put("region", f.Region)
	put("sub_region", f.SubRegion)

	// map keys are marshalled in sorted order
	canonical, _ := json.Marshal(dims)
	sum := sha1.Sum(canonical)
	return hex.EncodeToString(sum[:])
}

// FilterFromStore is the most specific segment of a store.
func FilterFromStore(s *auditmodels.Store) reportmodels.SegmentFilter {
	return reportmodels.SegmentFilter{
		Channel:    hexOrEmpty(s.ChannelID),
		SubChannel: hexOrEmpty(s.SubChannelID),
		Region:     hexOrEmpty(s.RegionID),
		SubRegion:  hexOrEmpty(s.SubRegionID),
	}
}

// SegmentFiltersForStore returns every segment a store belongs to: each subset of its
// present dimensions, from the company-wide empty filter to the full one.
func SegmentFiltersForStore(s *auditmodels.Store) []reportmodels.SegmentFilter {
	full := FilterFromStore(s)
	dims := []struct {
		value string
		set   func(*reportmodels.SegmentFilter, string)
	}{
		{full.Channel, func(f *reportmodels.SegmentFilter, v string) { f.Channel = v }},
		{full.SubChannel, func(f *reportmodels.SegmentFilter, v string) { f.SubChannel = v }},
		{full.Region, func(f *reportmodels.SegmentFilter, v string) { f.Region = v }},
		{full.SubRegion, func(f *reportmodels.SegmentFilter, v string) { f.SubRegion = v }},
	}

	seen := make(map[string]struct{}, 16)
	out := make([]reportmodels.SegmentFilter, 0, 16)
	for mask := 0; mask < 1<<len(dims); mask++ {
		var f reportmodels.SegmentFilter
		for i, d := range dims {
			if mask&(1<<i) != 0 {
				d.set(&f, d.value)
			}
		}
		h := QueryHash(f)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, f)
	}
	return out
}

func hexOrEmpty(id primitive.ObjectID) string {
	if id.IsZero() {
		return ""
	}
	return id.Hex()
}
