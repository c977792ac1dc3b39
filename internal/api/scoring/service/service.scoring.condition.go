// Package scoringsvc scores a survey against a company's KPI tree.
package scoringsvc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	auditmodels "store_audit/internal/api/audit/models"
	"store_audit/internal/common"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// operand is a comparable form of an answer or condition value.
type operand struct {
	num   float64
	str   string
	isNum bool
}

type compareFunc func(a, b operand) bool

// operators is the condition dispatch table. Nothing outside it is ever evaluated.
var operators = map[string]compareFunc{
	"=":  equal,
	"==": equal,
	">":  func(a, b operand) bool { return a.isNum && b.isNum && a.num > b.num },
	"<":  func(a, b operand) bool { return a.isNum && b.isNum && a.num < b.num },
	">=": func(a, b operand) bool { return a.isNum && b.isNum && a.num >= b.num },
	"<=": func(a, b operand) bool { return a.isNum && b.isNum && a.num <= b.num },
}

// SupportedOperator reports whether op is in the dispatch table.
func SupportedOperator(op string) bool {
	_, ok := operators[strings.TrimSpace(op)]
	return ok
}

func equal(a, b operand) bool {
	if a.isNum && b.isNum {
		return a.num == b.num
	}
	return a.str == b.str
}

func numberOperand(f float64) operand {
	return operand{num: f, str: strconv.FormatFloat(f, 'f', -1, 64), isNum: true}
}

// toOperand converts a loosely typed value. Objects compare by their title.
func toOperand(v interface{}) (operand, error) {
	if f, ok := toFloat(v); ok {
		return numberOperand(f), nil
	}
	switch t := v.(type) {
	case bool:
		if t {
			return numberOperand(1), nil
		}
		return numberOperand(0), nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil && !math.IsNaN(f) {
			return operand{num: f, str: t, isNum: true}, nil
		}
		return operand{str: t}, nil
	}
	if title, ok := lookupField(v, "title"); ok {
		if s, ok := title.(string); ok {
			return operand{str: s}, nil
		}
		return toOperand(title)
	}
	return operand{}, fmt.Errorf("unsupported value %T", v)
}

// matchConditions returns the weight of the first condition, in declared order, that holds for value.
func matchConditions(value interface{}, conditions []auditmodels.Condition) (weight float64, matched bool, err error) {
	answer, err := toOperand(value)
	if err != nil {
		return 0, false, common.Wrap(common.ErrMalformedCondition, value, fmt.Errorf("answer: %w", err))
	}

	for i, c := range conditions {
		cmp, ok := operators[strings.TrimSpace(c.Operator)]
		if !ok {
			return 0, false, common.Wrap(common.ErrMalformedCondition, c, fmt.Errorf("condition %d: unknown operator %q", i, c.Operator))
		}
		if c.Value == nil {
			return 0, false, common.Wrap(common.ErrMalformedCondition, c, fmt.Errorf("condition %d: missing value", i))
		}
		target, err := toOperand(c.Value)
		if err != nil {
			return 0, false, common.Wrap(common.ErrMalformedCondition, c, fmt.Errorf("condition %d: %w", i, err))
		}
		if cmp(answer, target) {
			return c.Weight, true, nil
		}
	}
	return 0, false, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(n.String(), 64)
		return f, err == nil
	}
	return 0, false
}

// lookupField reads key from the object shapes produced by the JSON, BSON and YAML decoders.
func lookupField(v interface{}, key string) (interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		val, ok := m[key]
		return val, ok
	case primitive.M:
		val, ok := m[key]
		return val, ok
	case primitive.D:
		for _, e := range m {
			if e.Key == key {
				return e.Value, true
			}
		}
	case map[interface{}]interface{}:
		val, ok := m[key]
		return val, ok
	}
	return nil, false
}
