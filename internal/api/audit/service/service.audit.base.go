// Package auditsvc is the tenant-database repository behind the scoring pipeline.
package auditsvc

import (
	"context"

	"store_audit/internal/common"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// baseMongo wraps one collection with typed reads. Driver errors are mapped through
// common.ConvertMongoError so callers can match ErrNotFound and ErrDuplicate.
type baseMongo[T any] struct {
	collection *mongo.Collection
}

func newBaseMongo[T any](collection *mongo.Collection) *baseMongo[T] {
	return &baseMongo[T]{collection: collection}
}

// FindOne returns the first document matching filter.
func (s *baseMongo[T]) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (T, error) {
	var result T
	if err := s.collection.FindOne(ctx, filter, opts...).Decode(&result); err != nil {
		return result, common.ConvertMongoError(err)
	}
	return result, nil
}

// FindOneById returns the document with the given _id.
func (s *baseMongo[T]) FindOneById(ctx context.Context, id primitive.ObjectID) (T, error) {
	return s.FindOne(ctx, bson.M{"_id": id})
}

// Find returns every document matching filter, never nil.
func (s *baseMongo[T]) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := s.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return results, nil
}

// InsertOne inserts data and returns the generated _id.
func (s *baseMongo[T]) InsertOne(ctx context.Context, data *T) (primitive.ObjectID, error) {
	res, err := s.collection.InsertOne(ctx, data)
	if err != nil {
		return primitive.NilObjectID, common.ConvertMongoError(err)
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

// distinctIDs returns the _id of every document matching filter.
func (s *baseMongo[T]) distinctIDs(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]primitive.ObjectID, error) {
	opts = append(opts, options.Find().SetProjection(bson.M{"_id": 1}))
	cursor, err := s.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	ids := []primitive.ObjectID{}
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, common.ConvertMongoError(err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, common.ConvertMongoError(cursor.Err())
}
