// Package filesvc resolves the media references found in survey answers.
package filesvc

import (
	"strings"

	auditmodels "store_audit/internal/api/audit/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuestionFile is a file reference together with the question it was attached to.
type QuestionFile struct {
	QuestionID string
	Ref        auditmodels.FileRef
}

// ExtractFileRefs collects the references of every file and photo answer in order.
// A bare string is taken as a file name; objects may carry id/_id, name and key.
// Duplicates within one question are collapsed.
func ExtractFileRefs(answers []auditmodels.SurveyAnswer) []QuestionFile {
	var out []QuestionFile
	for _, a := range answers {
		t := strings.ToLower(a.Type)
		if t != auditmodels.QuestionTypeFile && t != auditmodels.QuestionTypePhoto {
			continue
		}
		seen := map[auditmodels.FileRef]struct{}{}
		for _, ref := range refsOf(a.Answer) {
			if ref.IsZero() {
				continue
			}
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, QuestionFile{QuestionID: a.ID, Ref: ref})
		}
	}
	return out
}

func refsOf(v interface{}) []auditmodels.FileRef {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return []auditmodels.FileRef{{Name: strings.TrimSpace(x)}}
	case []interface{}:
		return refsOfList(x)
	case primitive.A:
		return refsOfList(x)
	case []string:
		out := make([]auditmodels.FileRef, 0, len(x))
		for _, s := range x {
			out = append(out, auditmodels.FileRef{Name: strings.TrimSpace(s)})
		}
		return out
	}
	fields, ok := asFields(v)
	if !ok {
		return nil
	}
	ref := auditmodels.FileRef{
		ID:   stringOf(fields["id"]),
		Name: stringOf(fields["name"]),
		Key:  stringOf(fields["key"]),
	}
	if ref.ID == "" {
		ref.ID = stringOf(fields["_id"])
	}
	return []auditmodels.FileRef{ref}
}

func refsOfList(list []interface{}) []auditmodels.FileRef {
	var out []auditmodels.FileRef
	for _, item := range list {
		out = append(out, refsOf(item)...)
	}
	return out
}

func asFields(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case primitive.M:
		return m, true
	case primitive.D:
		return m.Map(), true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			if ks, ok := k.(string); ok {
				out[ks] = val
			}
		}
		return out, true
	}
	return nil, false
}

func stringOf(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case primitive.ObjectID:
		if x.IsZero() {
			return ""
		}
		return x.Hex()
	}
	return ""
}
