package models

import (
	"time"

	auditmodels "store_audit/internal/api/audit/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoreTrendSnapshot compares a store's latest scored tree with its previous period (store_trend_snapshots).
// Append-only: readers take the most recent by created_at.
type StoreTrendSnapshot struct {
	ID               primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	CompanyID        primitive.ObjectID     `json:"companyId" bson:"company_id"`
	StoreID          primitive.ObjectID     `json:"storeId" bson:"store_id"`
	SurveyID         primitive.ObjectID     `json:"surveyId" bson:"survey_id"`
	PreviousSurveyID *primitive.ObjectID    `json:"previousSurveyId,omitempty" bson:"previous_survey_id,omitempty"`
	SurveyedMonth    string                 `json:"surveyedMonth" bson:"surveyed_month"`
	Trend            TrendNode              `json:"trend" bson:"trend"`
	Current          auditmodels.ScoredNode `json:"current" bson:"current"` // unmodified current-period tree
	RunID            string                 `json:"runId" bson:"run_id"`
	CreatedAt        time.Time              `json:"createdAt" bson:"created_at"`
}

// TrendNode mirrors a scored node with its score replaced by the VSPP array.
type TrendNode struct {
	ID         string             `json:"id,omitempty" bson:"id,omitempty"`
	Title      string             `json:"title" bson:"title"`
	Weight     float64            `json:"weight" bson:"weight"`
	Points     auditmodels.Points `json:"points" bson:"points"`
	Score      Vspp               `json:"score" bson:"score"`
	History    []float64          `json:"history" bson:"history"` // [current, previous]
	HasSubKpis bool               `json:"has_sub_kpis" bson:"has_sub_kpis"`
	SubKpis    []TrendNode        `json:"sub_kpis" bson:"sub_kpis"`
}
