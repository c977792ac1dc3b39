// Package queue carries survey processing jobs over Kafka.
package queue

import (
	"encoding/json"
	"fmt"

	"store_audit/internal/common"
)

// SurveyJob asks the worker to score one survey.
type SurveyJob struct {
	SurveyID  string `json:"survey_id" validate:"required,mongodb"`
	CompanyID string `json:"company_id" validate:"required,mongodb"`
	StoreID   string `json:"store_id" validate:"required,mongodb"`
}

// Key is the message key. Jobs for one survey land on one partition and run in order.
func (j SurveyJob) Key() []byte {
	return []byte(j.SurveyID)
}

// Encode marshals the job after validating it.
func (j SurveyJob) Encode() ([]byte, error) {
	if err := common.Validator().Struct(j); err != nil {
		return nil, common.Wrap(common.ErrInvalidJob, j, err)
	}
	return json.Marshal(j)
}

// DecodeSurveyJob parses and validates a message value.
func DecodeSurveyJob(value []byte) (SurveyJob, error) {
	var j SurveyJob
	if err := json.Unmarshal(value, &j); err != nil {
		return j, common.Wrap(common.ErrInvalidJob, string(value), fmt.Errorf("decode: %w", err))
	}
	if err := common.Validator().Struct(j); err != nil {
		return j, common.Wrap(common.ErrInvalidJob, j, err)
	}
	return j, nil
}
