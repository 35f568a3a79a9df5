package store

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/omniql-engine/flatql/engine/codec"
	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
)

// MongoSource stores each table as a collection. Save replaces the whole
// collection.
type MongoSource struct {
	db *mongo.Database
}

// NewMongoSource wraps a connected database.
func NewMongoSource(db *mongo.Database) *MongoSource {
	return &MongoSource{db: db}
}

func (m *MongoSource) Load(ctx context.Context, table string) ([]models.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}})
	cursor, err := m.db.Collection(table).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, dberrors.NewConnectionError("store.load", err, "find error on %s", table)
	}
	defer cursor.Close(ctx)

	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, dberrors.NewConnectionError("store.load", err, "cursor error on %s", table)
	}
	return codec.RecordsFromDocuments(stripObjectIDs(docs)), nil
}

func (m *MongoSource) Save(ctx context.Context, table string, records []models.Record) error {
	coll := m.db.Collection(table)
	if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
		return dberrors.NewConnectionError("store.save", err, "delete error on %s", table)
	}
	if len(records) == 0 {
		return nil
	}
	docs := codec.DocumentsFromRecords(records)
	batch := make([]interface{}, len(docs))
	for i, d := range docs {
		batch[i] = d
	}
	if _, err := coll.InsertMany(ctx, batch); err != nil {
		return dberrors.NewConnectionError("store.save", err, "insert error on %s", table)
	}
	return nil
}

func (m *MongoSource) Tables(ctx context.Context) ([]string, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, dberrors.NewConnectionError("store.tables", err, "list collections")
	}
	sort.Strings(names)
	return names, nil
}

// stripObjectIDs drops server-generated _id fields. A user-supplied _id that
// is not an ObjectID is kept as a column.
func stripObjectIDs(docs []bson.D) []bson.D {
	for i, d := range docs {
		out := d[:0:0]
		for _, e := range d {
			if _, generated := e.Value.(primitive.ObjectID); e.Key == "_id" && generated {
				continue
			}
			out = append(out, e)
		}
		docs[i] = out
	}
	return docs
}
