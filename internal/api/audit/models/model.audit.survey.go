package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Question types that get special answer normalization.
const (
	QuestionTypeBoolean = "boolean"
	QuestionTypeNumber  = "number"
	QuestionTypeNumeric = "numeric"
	QuestionTypeFile    = "file"
	QuestionTypePhoto   = "photo"
)

// GPS is the location captured with a survey.
type GPS struct {
	Lat float64 `json:"lat" bson:"lat" yaml:"lat"`
	Lng float64 `json:"lng" bson:"lng" yaml:"lng"`
}

// Survey is one field visit: question answers plus POC/SKU observations.
type Survey struct {
	ID        primitive.ObjectID `json:"id" bson:"_id" yaml:"-"`
	CompanyID primitive.ObjectID `json:"companyId" bson:"company_id" yaml:"-"`
	StoreID   primitive.ObjectID `json:"storeId" bson:"store_id" yaml:"-"`
	AddedAt   time.Time          `json:"addedAt" bson:"added_at" yaml:"added_at"`
	GPS       *GPS               `json:"gps,omitempty" bson:"gps,omitempty" yaml:"gps,omitempty"`
	Questions []SurveyAnswer     `json:"questions" bson:"questions" yaml:"questions"`
	Pocs      []SurveyPoc        `json:"pocs" bson:"pocs" yaml:"pocs"`
}

// SurveyAnswer is the agent's answer to one question. Answer is loosely typed:
// number, string, bool, an object with title/value, or a list of file references.
type SurveyAnswer struct {
	ID     string      `json:"id" bson:"id" yaml:"id"`
	Title  string      `json:"title" bson:"title" yaml:"title"`
	Type   string      `json:"type" bson:"type" yaml:"type"`
	Answer interface{} `json:"answer" bson:"answer" yaml:"answer"`
}

// SurveyPoc is a shelf/location inside the store with the SKUs observed on it.
type SurveyPoc struct {
	ID     string      `json:"id" bson:"id" yaml:"id"`
	Title  string      `json:"title" bson:"title" yaml:"title"`
	Expiry interface{} `json:"expiry,omitempty" bson:"expiry,omitempty" yaml:"expiry,omitempty"`
	Skus   []PocSku    `json:"skus" bson:"skus" yaml:"skus"`
}

// PocSku is one SKU observation on a POC.
type PocSku struct {
	ID       string      `json:"id" bson:"id" yaml:"id"`
	Fronts   *float64    `json:"fronts,omitempty" bson:"fronts,omitempty" yaml:"fronts,omitempty"`
	Selected *bool       `json:"selected,omitempty" bson:"selected,omitempty" yaml:"selected,omitempty"`
	Expiry   interface{} `json:"expiry,omitempty" bson:"expiry,omitempty" yaml:"expiry,omitempty"`
	Price    *float64    `json:"price,omitempty" bson:"price,omitempty" yaml:"price,omitempty"`
}

// FileRef is a loose reference to a media file found in survey answers.
type FileRef struct {
	ID   string `json:"id,omitempty" bson:"id,omitempty"`
	Name string `json:"name,omitempty" bson:"name,omitempty"`
	Key  string `json:"key,omitempty" bson:"key,omitempty"`
}

// IsZero reports whether the reference carries no identifier.
func (r FileRef) IsZero() bool {
	return r.ID == "" && r.Name == "" && r.Key == ""
}

// FileRecord is the canonical file record returned by the file resolver.
type FileRecord struct {
	ID         string `json:"id" bson:"id"`
	Name       string `json:"name" bson:"name"`
	Key        string `json:"key" bson:"key"`
	URL        string `json:"url,omitempty" bson:"url,omitempty"`
	MimeType   string `json:"mimeType,omitempty" bson:"mime_type,omitempty"`
	QuestionID string `json:"questionId,omitempty" bson:"question_id,omitempty"`
}
