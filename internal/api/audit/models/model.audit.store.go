// Package models contains the audit domain records read by the scoring pipeline.
// These records are owned by CRUD services outside the pipeline; the pipeline only reads them.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Company is a tenant. Its data lives in the tenant's own database.
type Company struct {
	ID   primitive.ObjectID `json:"id" bson:"_id"`
	Name string             `json:"name" bson:"name"`
}

// Store is an audited point of sale with its four segment dimensions.
type Store struct {
	ID           primitive.ObjectID `json:"id" bson:"_id"`
	CompanyID    primitive.ObjectID `json:"companyId" bson:"company_id"`
	Name         string             `json:"name" bson:"name"`
	ChannelID    primitive.ObjectID `json:"channelId" bson:"channel_id"`
	SubChannelID primitive.ObjectID `json:"subChannelId,omitempty" bson:"sub_channel_id,omitempty"`
	RegionID     primitive.ObjectID `json:"regionId,omitempty" bson:"region_id,omitempty"`
	SubRegionID  primitive.ObjectID `json:"subRegionId,omitempty" bson:"sub_region_id,omitempty"`
}

// Sku is a catalog product variant.
type Sku struct {
	ID           string      `json:"id" bson:"_id" yaml:"id"`
	CompanyID    string      `json:"companyId,omitempty" bson:"company_id,omitempty" yaml:"-"`
	Title        string      `json:"title" bson:"title" yaml:"title"`
	IsMpa        bool        `json:"isMpa" bson:"is_mpa" yaml:"is_mpa"`
	IsCompetitor bool        `json:"isCompetitor" bson:"is_competitor" yaml:"is_competitor"`
	Fronts       *float64    `json:"fronts,omitempty" bson:"fronts,omitempty" yaml:"fronts,omitempty"`
	Expiry       interface{} `json:"expiry,omitempty" bson:"expiry,omitempty" yaml:"expiry,omitempty"`
}
