package scoringsvc

import (
	"strconv"
	"strings"

	auditmodels "store_audit/internal/api/audit/models"
)

// normalizeAnswer reduces an answer by question type. present is false for absent or null answers.
func normalizeAnswer(questionType string, answer interface{}) (value interface{}, present bool) {
	if answer == nil {
		return nil, false
	}

	switch strings.ToLower(strings.TrimSpace(questionType)) {
	case auditmodels.QuestionTypeBoolean:
		return booleanValue(answer), true
	case auditmodels.QuestionTypeNumber, auditmodels.QuestionTypeNumeric:
		return numericValue(answer), true
	}
	return answer, true
}

// booleanValue maps an answer to 0 or 1. An explicit numeric or boolean value wins;
// otherwise a title or string of "no" is 0 and anything else is 1.
func booleanValue(answer interface{}) float64 {
	if b, ok := answer.(bool); ok {
		return boolFloat(b)
	}
	if f, ok := toFloat(answer); ok {
		return f
	}
	if v, ok := lookupField(answer, "value"); ok {
		if b, ok := v.(bool); ok {
			return boolFloat(b)
		}
		if f, ok := toFloat(v); ok {
			return f
		}
	}

	text, _ := answer.(string)
	if title, ok := lookupField(answer, "title"); ok {
		text, _ = title.(string)
	}
	if strings.EqualFold(strings.TrimSpace(text), "no") {
		return 0
	}
	return 1
}

// numericValue parses strings and object values as numbers; unparseable answers pass through.
func numericValue(answer interface{}) interface{} {
	if f, ok := toFloat(answer); ok {
		return f
	}
	switch t := answer.(type) {
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
		return t
	case bool:
		return boolFloat(t)
	}
	if v, ok := lookupField(answer, "value"); ok {
		return numericValue(v)
	}
	return answer
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
