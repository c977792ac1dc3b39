package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// KPI sources
const (
	KpiFromQuestions = "questions"
	KpiFromSkus      = "skus"
)

// SKU scoring modes
const (
	SkuModeMpa   = "mpa"
	SkuModeSovi  = "sovi"
	SkuModeFresh = "fresh"
)

// SubKpisByPoc marks SKU sub-KPIs that restrict the SKU set to their POC ids.
const SubKpisByPoc = "poc"

// Condition is one entry of a question's ordered condition list.
type Condition struct {
	Operator string      `json:"operator" bson:"operator" yaml:"operator" validate:"required"`
	Value    interface{} `json:"value" bson:"value" yaml:"value"`
	Weight   float64     `json:"weight" bson:"weight" yaml:"weight" validate:"gte=0"`
}

// KpiQuestion references a survey question and carries its ordered conditions.
type KpiQuestion struct {
	ID         string      `json:"id" bson:"id" yaml:"id" validate:"required"`
	Title      string      `json:"title" bson:"title" yaml:"title"`
	Type       string      `json:"type" bson:"type" yaml:"type"`
	Weight     float64     `json:"weight" bson:"weight" yaml:"weight" validate:"gte=0"`
	Conditions []Condition `json:"conditions" bson:"conditions" yaml:"conditions" validate:"dive"`
}

// KpiDefinition is a node of a company's KPI tree for one channel.
//
// Question nodes list Questions; their SubKpis (optional) pull from a question via QuestionID
// or carry their own Questions. SKU nodes set SkuMode; their SubKpis restrict by PocIDs.
type KpiDefinition struct {
	ID        string             `json:"id" bson:"_id,omitempty" yaml:"id" validate:"required"`
	CompanyID primitive.ObjectID `json:"companyId,omitempty" bson:"company_id,omitempty" yaml:"-"`
	ChannelID primitive.ObjectID `json:"channelId,omitempty" bson:"channel_id,omitempty" yaml:"-"`
	Order     int                `json:"order" bson:"order" yaml:"order"`
	Title     string             `json:"title" bson:"title" yaml:"title" validate:"required"`
	Weight    float64            `json:"weight" bson:"weight" yaml:"weight" validate:"gte=0"`
	From      string             `json:"from,omitempty" bson:"from,omitempty" yaml:"from,omitempty" validate:"omitempty,oneof=questions skus"`

	Questions []KpiQuestion `json:"questions,omitempty" bson:"questions,omitempty" yaml:"questions,omitempty" validate:"dive"`

	SkuMode   string `json:"skuMode,omitempty" bson:"sku_mode,omitempty" yaml:"sku_mode,omitempty" validate:"omitempty,oneof=mpa sovi fresh"`
	SubKpisBy string `json:"subKpisBy,omitempty" bson:"sub_kpis_by,omitempty" yaml:"sub_kpis_by,omitempty" validate:"omitempty,oneof=poc"`

	SubKpis    []KpiDefinition `json:"subKpis,omitempty" bson:"sub_kpis,omitempty" yaml:"sub_kpis,omitempty" validate:"dive"`
	QuestionID string          `json:"questionId,omitempty" bson:"question_id,omitempty" yaml:"question_id,omitempty"`
	PocIDs     []string        `json:"pocIds,omitempty" bson:"poc_ids,omitempty" yaml:"poc_ids,omitempty"`
}

// HasSubKpis reports whether the node declares its children explicitly.
func (k *KpiDefinition) HasSubKpis() bool {
	return len(k.SubKpis) > 0
}
