package filesvc

import (
	"context"

	auditmodels "store_audit/internal/api/audit/models"
	reportmodels "store_audit/internal/api/report/models"
	"store_audit/internal/common"
	"store_audit/internal/database"
	"store_audit/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Resolver turns loose file references into canonical file records.
type Resolver interface {
	Resolve(ctx context.Context, files []QuestionFile) (reportmodels.ProcessedFiles, error)
}

// fileDoc is a document of the tenant files collection.
type fileDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	Name     string             `bson:"name"`
	Key      string             `bson:"key"`
	URL      string             `bson:"url"`
	MimeType string             `bson:"mime_type"`
}

// MongoResolver looks references up in the tenant's files collection by id, name or key.
type MongoResolver struct {
	coll *mongo.Collection
}

func NewMongoResolver(db *mongo.Database) *MongoResolver {
	return &MongoResolver{coll: db.Collection(database.ColNames.Files)}
}

// Resolve issues one query for all references. References that match nothing are
// returned as unresolved; they never fail the run.
func (r *MongoResolver) Resolve(ctx context.Context, files []QuestionFile) (reportmodels.ProcessedFiles, error) {
	out := reportmodels.ProcessedFiles{Items: []auditmodels.FileRecord{}}
	if len(files) == 0 {
		return out, nil
	}

	var ids []primitive.ObjectID
	var names, keys []string
	for _, f := range files {
		if oid, err := primitive.ObjectIDFromHex(f.Ref.ID); err == nil {
			ids = append(ids, oid)
		}
		if f.Ref.Name != "" {
			names = append(names, f.Ref.Name)
		}
		if f.Ref.Key != "" {
			keys = append(keys, f.Ref.Key)
		}
	}
	or := bson.A{}
	if len(ids) > 0 {
		or = append(or, bson.M{"_id": bson.M{"$in": ids}})
	}
	if len(names) > 0 {
		or = append(or, bson.M{"name": bson.M{"$in": names}})
	}
	if len(keys) > 0 {
		or = append(or, bson.M{"key": bson.M{"$in": keys}})
	}

	var docs []fileDoc
	if len(or) > 0 {
		cursor, err := r.coll.Find(ctx, bson.M{"$or": or})
		if err != nil {
			return out, common.ConvertMongoError(err)
		}
		defer cursor.Close(ctx)
		if err := cursor.All(ctx, &docs); err != nil {
			return out, common.ConvertMongoError(err)
		}
	}

	out = match(docs, files)
	if len(out.Unresolved) > 0 {
		logger.WithContext(ctx).WithFields(map[string]interface{}{
			"resolved":   len(out.Items),
			"unresolved": len(out.Unresolved),
		}).Warn("🗂️ [FILES] Some file references could not be resolved")
	}
	return out, nil
}

// match pairs every reference with a document. Id beats key, key beats name.
func match(docs []fileDoc, files []QuestionFile) reportmodels.ProcessedFiles {
	byID := make(map[string]*fileDoc, len(docs))
	byKey := make(map[string]*fileDoc, len(docs))
	byName := make(map[string]*fileDoc, len(docs))
	for i := range docs {
		d := &docs[i]
		byID[d.ID.Hex()] = d
		if d.Key != "" {
			byKey[d.Key] = d
		}
		if d.Name != "" {
			if _, ok := byName[d.Name]; !ok {
				byName[d.Name] = d
			}
		}
	}

	out := reportmodels.ProcessedFiles{Items: []auditmodels.FileRecord{}}
	for _, f := range files {
		var d *fileDoc
		switch {
		case f.Ref.ID != "" && byID[f.Ref.ID] != nil:
			d = byID[f.Ref.ID]
		case f.Ref.Key != "" && byKey[f.Ref.Key] != nil:
			d = byKey[f.Ref.Key]
		case f.Ref.Name != "" && byName[f.Ref.Name] != nil:
			d = byName[f.Ref.Name]
		}
		if d == nil {
			out.Unresolved = append(out.Unresolved, f.Ref)
			continue
		}
		out.Items = append(out.Items, auditmodels.FileRecord{
			ID:         d.ID.Hex(),
			Name:       d.Name,
			Key:        d.Key,
			URL:        d.URL,
			MimeType:   d.MimeType,
			QuestionID: f.QuestionID,
		})
	}
	return out
}
