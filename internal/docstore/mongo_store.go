package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitrank/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
)

var _ Store = (*MongoStore)(nil)

// MongoStore maps each collection onto a mongo collection, the document id becomes _id.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db: db,
	}
}

func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Infof("mongo connected, database: %s", database)
	return client.Database(database), nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string, dst any) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.mongo.get")
	span.SetAttributes(attribute.String("collection", collection))
	defer func() {
		if errors.Is(err, ErrNotFound) {
			span.End()
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var raw bson.M
	err = s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("find document: %w", err)
	}

	doc, err := toDocument(raw)
	if err != nil {
		return err
	}
	return doc.Decode(dst)
}

func (s *MongoStore) Set(ctx context.Context, collection, id string, value any, opts ...SetOption) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.mongo.set")
	span.SetAttributes(attribute.String("collection", collection))
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	data, err := encodeObject(value)
	if err != nil {
		return err
	}
	fields := bson.M{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode document fields: %w", err)
	}
	delete(fields, "_id")

	coll := s.db.Collection(collection)
	filter := bson.M{"_id": id}
	if applySetOptions(opts).merge {
		if len(fields) == 0 {
			_, err = coll.UpdateOne(ctx, filter, bson.M{"$setOnInsert": bson.M{"_id": id}}, options.Update().SetUpsert(true))
		} else {
			_, err = coll.UpdateOne(ctx, filter, bson.M{"$set": fields}, options.Update().SetUpsert(true))
		}
	} else {
		_, err = coll.ReplaceOne(ctx, filter, fields, options.Replace().SetUpsert(true))
	}
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (s *MongoStore) ScanAll(ctx context.Context, collection string) (_ []Document, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.mongo.scan")
	span.SetAttributes(attribute.String("collection", collection))
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return s.find(ctx, collection, bson.D{}, opts)
}

func (s *MongoStore) Query(ctx context.Context, collection string, q Query) (_ []Document, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.mongo.query")
	span.SetAttributes(attribute.String("collection", collection))
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	filter, opts, err := buildMongoQuery(q)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, collection, filter, opts)
}

func (s *MongoStore) find(ctx context.Context, collection string, filter bson.D, opts *options.FindOptions) ([]Document, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var docs []Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode mongo document: %w", err)
		}
		doc, err := toDocument(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate mongo cursor: %w", err)
	}
	return docs, nil
}

func buildMongoQuery(q Query) (bson.D, *options.FindOptions, error) {
	if err := validateQuery(q); err != nil {
		return nil, nil, err
	}

	var conditions bson.A
	for _, f := range q.Where {
		v, err := normalizeValue(f.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("encode filter value: %w", err)
		}
		var cond bson.M
		switch f.Op {
		case OpEq:
			cond = bson.M{f.Field: v}
		case OpGt:
			cond = bson.M{f.Field: bson.M{"$gt": v}}
		case OpGte:
			cond = bson.M{f.Field: bson.M{"$gte": v}}
		case OpLt:
			cond = bson.M{f.Field: bson.M{"$lt": v}}
		case OpLte:
			cond = bson.M{f.Field: bson.M{"$lte": v}}
		}
		conditions = append(conditions, cond)
	}

	filter := bson.D{}
	if len(conditions) > 0 {
		filter = bson.D{{Key: "$and", Value: conditions}}
	}

	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}, {Key: "_id", Value: 1}})
	} else {
		opts.SetSort(bson.D{{Key: "_id", Value: 1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	return filter, opts, nil
}

func toDocument(raw bson.M) (Document, error) {
	id := fmt.Sprint(raw["_id"])
	delete(raw, "_id")

	data, err := json.Marshal(plainValue(raw))
	if err != nil {
		return Document{}, fmt.Errorf("encode mongo document [%s]: %w", id, err)
	}
	return Document{ID: id, Data: data}, nil
}

// plainValue turns driver specific containers into plain maps and slices.
func plainValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = plainValue(val)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case bson.A:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = plainValue(val)
		}
		return s
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
