// Package models holds the documents written by the scoring pipeline.
package models

import (
	"time"

	auditmodels "store_audit/internal/api/audit/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProcessedSurvey is the scored result of one survey (processed_surveys).
// Unique by (store_id, survey_id); re-scoring replaces it.
type ProcessedSurvey struct {
	ID            primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	CompanyID     primitive.ObjectID     `json:"companyId" bson:"company_id"`
	StoreID       primitive.ObjectID     `json:"storeId" bson:"store_id"`
	SurveyID      primitive.ObjectID     `json:"surveyId" bson:"survey_id"`
	SurveyAddedAt time.Time              `json:"surveyAddedAt" bson:"survey_added_at"`
	SurveyedMonth string                 `json:"surveyedMonth" bson:"surveyed_month"` // 2006-01 in the report timezone
	GPS           *auditmodels.GPS       `json:"gps,omitempty" bson:"gps,omitempty"`
	Files         ProcessedFiles         `json:"files" bson:"files"`
	Result        auditmodels.ScoredNode `json:"result" bson:"result"`
	RunID         string                 `json:"runId" bson:"run_id"`
	ProcessedAt   time.Time              `json:"processedAt" bson:"processed_at"`
}

// ProcessedFiles holds the media referenced by the survey's answers.
type ProcessedFiles struct {
	Items      []auditmodels.FileRecord `json:"items" bson:"items"`
	Unresolved []auditmodels.FileRef    `json:"unresolved,omitempty" bson:"unresolved,omitempty"`
}
