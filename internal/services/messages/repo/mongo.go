package repo

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"garden/internal/adapters/bsondump"
	perr "garden/internal/platform/errors"
	ptime "garden/internal/platform/time"
	"garden/internal/services/messages/domain"
)

// mongoDoc is the stored document shape, field names match the table columns
type mongoDoc struct {
	TS          string    `bson:"ts"`
	OccurredAt  time.Time `bson:"ts_for_db"`
	BotID       *string   `bson:"bot_id"`
	Type        *string   `bson:"type"`
	Text        *string   `bson:"text"`
	User        *string   `bson:"user"`
	Team        *string   `bson:"team"`
	BotProfile  any       `bson:"bot_profile"`
	Attachments any       `bson:"attachments"`
}

// MongoStore implements domain.Store over a collection
type MongoStore struct {
	db   *mongo.Database
	name string
}

var _ domain.Store = (*MongoStore)(nil)

// NewMongoStore returns a store over the named collection
func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	if db == nil {
		panic("messages.MongoStore requires a non nil database")
	}
	return &MongoStore{db: db, name: collection}
}

// Backend implements domain.Store
func (s *MongoStore) Backend() string { return "mongo" }

func (s *MongoStore) coll() *mongo.Collection { return s.db.Collection(s.name) }

// Ready implements domain.Store
func (s *MongoStore) Ready(ctx context.Context) error {
	names, err := s.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: s.name}})
	if err != nil {
		return perr.FromMongo(err, "list collections")
	}
	if len(names) == 0 {
		return perr.SchemaMissingf("collection %s.%s does not exist", s.db.Name(), s.name)
	}
	return nil
}

// Count implements domain.Store
func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.coll().CountDocuments(ctx, bson.D{})
	return n, perr.FromMongo(err, "count messages")
}

// Purge implements domain.Store
func (s *MongoStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.coll().DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, perr.FromMongo(err, "purge messages")
	}
	return res.DeletedCount, nil
}

// Upsert implements domain.Store
func (s *MongoStore) Upsert(ctx context.Context, m domain.RawMessage) (bool, error) {
	doc, err := toDoc(m)
	if err != nil {
		return false, err
	}
	res, err := s.coll().UpdateOne(ctx,
		bson.D{{Key: "ts", Value: m.TS}},
		bson.D{{Key: "$setOnInsert", Value: doc}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return false, perr.FromMongof(err, "upsert message %s", m.TS)
	}
	return res.UpsertedCount > 0, nil
}

// UpsertBatch implements domain.Store as one ordered bulk write
func (s *MongoStore) UpsertBatch(ctx context.Context, ms []domain.RawMessage) (int, error) {
	if len(ms) == 0 {
		return 0, nil
	}
	models := make([]mongo.WriteModel, 0, len(ms))
	for _, m := range ms {
		doc, err := toDoc(m)
		if err != nil {
			return 0, err
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "ts", Value: m.TS}}).
			SetUpdate(bson.D{{Key: "$setOnInsert", Value: doc}}).
			SetUpsert(true))
	}
	res, err := s.coll().BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return 0, perr.FromMongof(err, "upsert %d messages", len(ms))
	}
	return int(res.UpsertedCount), nil
}

// Find implements domain.Store
func (s *MongoStore) Find(ctx context.Context, q domain.Query) ([]domain.RawMessage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	filter, err := mongoFilter(q)
	if err != nil {
		return nil, err
	}
	dir := 1
	if q.Desc() {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: "ts_for_db", Value: dir}, {Key: "ts", Value: dir}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.coll().Find(ctx, filter, opts)
	if err != nil {
		return nil, perr.FromMongo(err, "find messages")
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []domain.RawMessage
	for cur.Next(ctx) {
		var d mongoDoc
		if err := cur.Decode(&d); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDecode, "decode message")
		}
		m, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, perr.FromMongo(cur.Err(), "iterate messages")
}

func mongoFilter(q domain.Query) (bson.D, error) {
	f := bson.D{}
	if q.Author != "" {
		f = append(f, bson.E{Key: "attachments.author_name", Value: q.Author})
	}
	for _, k := range q.EqualKeys() {
		f = append(f, bson.E{Key: k, Value: q.Equals[k]})
	}
	rng := bson.D{}
	if !q.From.IsZero() {
		rng = append(rng, bson.E{Key: "$gte", Value: q.From.UTC()})
	}
	if !q.Until.IsZero() {
		rng = append(rng, bson.E{Key: "$lt", Value: q.Until.UTC()})
	}
	if len(rng) > 0 {
		f = append(f, bson.E{Key: "ts_for_db", Value: rng})
	}
	if q.AfterTS != "" {
		after, err := ptime.ParseUnixDecimal(q.AfterTS)
		if err != nil {
			return nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeValidation, "after_ts is not a unix timestamp"), "after_ts")
		}
		f = append(f, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "ts_for_db", Value: bson.D{{Key: "$gt", Value: after}}}},
			bson.D{{Key: "ts_for_db", Value: after}, {Key: "ts", Value: bson.D{{Key: "$gt", Value: q.AfterTS}}}},
		}})
	}
	if q.HasAttachments {
		f = append(f, bson.E{Key: "attachments.0", Value: bson.D{{Key: "$exists", Value: true}}})
	}
	return f, nil
}

func toDoc(m domain.RawMessage) (mongoDoc, error) {
	d := mongoDoc{
		TS: m.TS, OccurredAt: m.OccurredAt.UTC(),
		BotID: m.BotID, Type: m.Type, Text: m.Text, User: m.User, Team: m.Team,
	}
	var err error
	if d.BotProfile, err = decodeJSON(m.BotProfile); err != nil {
		return d, perr.Wrapf(err, perr.ErrorCodeJSON, "bot_profile of %s", m.TS)
	}
	if d.Attachments, err = decodeJSON(m.Attachments); err != nil {
		return d, perr.Wrapf(err, perr.ErrorCodeJSON, "attachments of %s", m.TS)
	}
	return d, nil
}

func fromDoc(d mongoDoc) (domain.RawMessage, error) {
	m := domain.RawMessage{
		TS: d.TS, OccurredAt: d.OccurredAt.UTC(),
		BotID: d.BotID, Type: d.Type, Text: d.Text, User: d.User, Team: d.Team,
	}
	var err error
	if m.BotProfile, err = encodeJSON(d.BotProfile); err != nil {
		return m, perr.Wrapf(err, perr.ErrorCodeJSON, "bot_profile of %s", d.TS)
	}
	if m.Attachments, err = encodeJSON(d.Attachments); err != nil {
		return m, perr.Wrapf(err, perr.ErrorCodeJSON, "attachments of %s", d.TS)
	}
	return m, nil
}

func decodeJSON(b json.RawMessage) (any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func encodeJSON(v any) (json.RawMessage, error) {
	v = bsondump.Plain(v)
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
