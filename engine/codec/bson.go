package codec

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/omniql-engine/flatql/engine/models"
)

// BSON stores {table: name, rows: [doc, ...]}. Documents are bson.D so field
// order is kept and values stay typed.
type BSON struct{}

type bsonTable struct {
	Table string   `bson:"table,omitempty"`
	Rows  []bson.D `bson:"rows"`
}

func (BSON) Name() string      { return "BSON" }
func (BSON) Extension() string { return ".bson" }

func (BSON) Decode(data []byte) ([]models.Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var doc bsonTable
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("bson: decode: %w", err)
	}
	return RecordsFromDocuments(doc.Rows), nil
}

func (BSON) Encode(records []models.Record, opts Options) ([]byte, error) {
	doc := bsonTable{Table: opts.Table, Rows: DocumentsFromRecords(records)}
	out, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("bson: encode: %w", err)
	}
	return out, nil
}

// DocumentsFromRecords converts records to ordered BSON documents.
func DocumentsFromRecords(records []models.Record) []bson.D {
	docs := make([]bson.D, len(records))
	for i, rec := range records {
		cols := rec.Columns()
		d := make(bson.D, 0, len(cols))
		for _, c := range cols {
			v, _ := rec.Get(c)
			d = append(d, bson.E{Key: c, Value: v})
		}
		docs[i] = d
	}
	return docs
}

// RecordsFromDocuments converts BSON documents to records. Non-scalar
// values are rendered as text.
func RecordsFromDocuments(docs []bson.D) []models.Record {
	records := make([]models.Record, len(docs))
	for i, d := range docs {
		var rec models.Record
		for _, e := range d {
			rec.Set(e.Key, e.Value)
		}
		records[i] = rec
	}
	return records
}
