package database

// CollectionNames lists the collections the pipeline reads and writes.
type CollectionNames struct {
	// Tenant database: inputs owned by the CRUD services
	Companies string
	Stores    string
	Surveys   string
	Kpis      string
	Skus      string
	Files     string

	// Tenant database: pipeline outputs
	ProcessedSurveys    string
	StoreTrendSnapshots string
	SegmentAggregates   string

	// Control-plane database
	Tenants             string
	SegmentDirtyPeriods string
}

// ColNames holds the collection names used across the repositories.
var ColNames = CollectionNames{
	Companies: "companies",
	Stores:    "stores",
	Surveys:   "surveys",
	Kpis:      "kpis",
	Skus:      "skus",
	Files:     "files",

	ProcessedSurveys:    "processed_surveys",
	StoreTrendSnapshots: "store_trend_snapshots",
	SegmentAggregates:   "segment_aggregates",

	Tenants:             "tenants",
	SegmentDirtyPeriods: "segment_dirty_periods",
}
