package scoringsvc

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	auditmodels "store_audit/internal/api/audit/models"
	"store_audit/internal/common"

	"github.com/go-playground/validator/v10"
)

// Issue is one authoring problem found in a KPI tree.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// ValidationError lists every issue found by ValidateDefinitions.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return fmt.Sprintf("%d KPI issue(s): %s", len(e.Issues), strings.Join(parts, "; "))
}

// subWeightTag is reported when a sub-KPI carries more weight than its parent.
const subWeightTag = "lte_parent"

var registerRules sync.Once

func kpiWeightRule(sl validator.StructLevel) {
	kpi := sl.Current().Interface().(auditmodels.KpiDefinition)
	for i, sub := range kpi.SubKpis {
		if sub.Weight > kpi.Weight {
			sl.ReportError(sub.Weight, fmt.Sprintf("SubKpis[%d].Weight", i), "Weight", subWeightTag, fmt.Sprintf("%g", kpi.Weight))
		}
	}
}

func issueMessage(fe validator.FieldError) string {
	if fe.Tag() == subWeightTag {
		return fmt.Sprintf("weight %v exceeds parent weight %s", fe.Value(), fe.Param())
	}
	return fmt.Sprintf("failed %q", fe.Tag())
}

// ValidateDefinitions checks KPI trees before they are stored. The scorer does not re-check these rules.
func ValidateDefinitions(kpis []auditmodels.KpiDefinition) error {
	registerRules.Do(func() {
		common.Validator().RegisterStructValidation(kpiWeightRule, auditmodels.KpiDefinition{})
	})

	var issues []Issue
	for i := range kpis {
		kpi := &kpis[i]
		path := fmt.Sprintf("kpis[%d]", i)
		if kpi.ID != "" {
			path = kpi.ID
		}

		if err := common.Validator().Struct(kpi); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					issues = append(issues, Issue{
						Path:    path + "." + strings.TrimPrefix(fe.Namespace(), "KpiDefinition."),
						Message: issueMessage(fe),
					})
				}
			} else {
				issues = append(issues, Issue{Path: path, Message: err.Error()})
			}
		}

		if kpi.From == "" {
			issues = append(issues, Issue{Path: path, Message: "top-level KPI must declare from (questions or skus)"})
		}
		issues = append(issues, validateNode(kpi, path, Source(kpi), 1)...)
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func validateNode(kpi *auditmodels.KpiDefinition, path, source string, depth int) []Issue {
	var issues []Issue
	if depth > MaxTreeDepth {
		return []Issue{{Path: path, Message: fmt.Sprintf("tree deeper than %d levels", MaxTreeDepth)}}
	}

	if kpi.From != "" {
		source = kpi.From
	}
	if source == auditmodels.KpiFromSkus && depth == 1 && kpi.SkuMode == "" {
		issues = append(issues, Issue{Path: path, Message: "SKU KPI must declare sku_mode (mpa, sovi or fresh)"})
	}

	for qi, q := range kpi.Questions {
		for ci, c := range q.Conditions {
			if !SupportedOperator(c.Operator) {
				issues = append(issues, Issue{
					Path:    fmt.Sprintf("%s.questions[%d].conditions[%d]", path, qi, ci),
					Message: fmt.Sprintf("unsupported operator %q", c.Operator),
				})
			}
		}
	}

	for si := range kpi.SubKpis {
		sub := &kpi.SubKpis[si]
		subPath := fmt.Sprintf("%s.sub_kpis[%d]", path, si)
		if kpi.SubKpisBy == auditmodels.SubKpisByPoc && len(sub.PocIDs) == 0 {
			issues = append(issues, Issue{Path: subPath, Message: "POC sub-KPI must list poc_ids"})
		}
		issues = append(issues, validateNode(sub, subPath, source, depth+1)...)
	}
	return issues
}
