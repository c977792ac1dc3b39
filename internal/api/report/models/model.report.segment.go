package models

import (
	"time"

	auditmodels "store_audit/internal/api/audit/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SegmentFilter selects stores by their four dimensions. An empty value means the dimension is absent.
type SegmentFilter struct {
	Channel    string `json:"channel,omitempty" bson:"channel,omitempty"`
	SubChannel string `json:"sub_channel,omitempty" bson:"sub_channel,omitempty"`
	Region     string `json:"region,omitempty" bson:"region,omitempty"`
	SubRegion  string `json:"sub_region,omitempty" bson:"sub_region,omitempty"`
}

// SegmentAggregate sums the processed surveys of every matching store for one month (segment_aggregates).
// Unique by (query_hash, surveyed_month); every write is a full recomputation.
type SegmentAggregate struct {
	ID            primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	CompanyID     primitive.ObjectID     `json:"companyId" bson:"company_id"`
	QueryHash     string                 `json:"queryHash" bson:"query_hash"`
	SurveyedMonth string                 `json:"surveyedMonth" bson:"surveyed_month"`
	Filter        SegmentFilter          `json:"filter" bson:"filter"`
	From          time.Time              `json:"from" bson:"from"`
	To            time.Time              `json:"to" bson:"to"`
	StoreCount    int                    `json:"storeCount" bson:"store_count"`
	SurveyCount   int                    `json:"surveyCount" bson:"survey_count"`
	Result        auditmodels.ScoredNode `json:"result" bson:"result"`
	CreatedAt     time.Time              `json:"createdAt" bson:"created_at"`
}

// SegmentDirtyPeriod marks a segment month for deferred recomputation (segment_dirty_periods).
type SegmentDirtyPeriod struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	CompanyID   primitive.ObjectID `json:"companyId" bson:"company_id"`
	Month       string             `json:"month" bson:"month"` // 2006-01
	QueryHash   string             `json:"queryHash" bson:"query_hash"`
	Filter      SegmentFilter      `json:"filter" bson:"filter"`
	MarkedAt    int64              `json:"markedAt" bson:"marked_at"`                         // unix seconds, drain order
	MarkToken   primitive.ObjectID `json:"markToken" bson:"mark_token"`                       // new on every mark
	ProcessedAt *int64             `json:"processedAt,omitempty" bson:"processed_at,omitempty"` // nil until recomputed
}
