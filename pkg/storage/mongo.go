package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/pivotframe/pkg/cache"
	"github.com/matzehuels/pivotframe/pkg/scene"
)

// Mongo defaults.
const (
	DefaultDatabase   = "pivotframe"
	DefaultCollection = "frames"
)

// MongoConfig configures a [MongoStore].
type MongoConfig struct {
	URI        string
	Database   string // defaults to DefaultDatabase
	Collection string // defaults to DefaultCollection
}

// MongoStore keeps documents in a MongoDB collection keyed by _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// NewMongoStore connects to MongoDB and pings the primary.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return cache.Retryable(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    time.Now,
	}, nil
}

func (s *MongoStore) Save(ctx context.Context, doc scene.Document) (scene.Document, error) {
	doc, err := prepare(doc, s.now())
	if err != nil {
		return scene.Document{}, err
	}

	var existing scene.Document
	err = s.coll.FindOne(ctx, idFilter(doc.ID), options.FindOne().SetProjection(bson.M{"created": 1})).Decode(&existing)
	switch {
	case err == nil:
		doc.Created = existing.Created
	case !errors.Is(err, mongo.ErrNoDocuments):
		return scene.Document{}, fmt.Errorf("load document %s: %w", doc.ID, err)
	}

	_, err = s.coll.ReplaceOne(ctx, idFilter(doc.ID), doc, options.Replace().SetUpsert(true))
	if err != nil {
		return scene.Document{}, fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	return doc, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (scene.Document, error) {
	var doc scene.Document
	err := s.coll.FindOne(ctx, idFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return scene.Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return scene.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, listOptions())
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var rows []summaryRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, Summary(r))
	}
	sortSummaries(out)
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, idFilter(id))
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func idFilter(id string) bson.M {
	return bson.M{"_id": id}
}

// summaryRow is a [Summary] as projected by listOptions.
type summaryRow struct {
	ID      string    `bson:"_id"`
	Name    string    `bson:"name"`
	Pivots  int       `bson:"pivots"`
	Shapes  int       `bson:"shapes"`
	Created time.Time `bson:"created"`
	Updated time.Time `bson:"updated"`
}

// listOptions sorts newest first and projects each document to its summary
// fields, counting pivots and shapes on the server.
func listOptions() *options.FindOptions {
	count := func(field string) bson.M {
		return bson.M{"$size": bson.M{"$ifNull": bson.A{"$" + field, bson.A{}}}}
	}
	return options.Find().
		SetSort(bson.D{{Key: "updated", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{
			"_id":     1,
			"name":    1,
			"created": 1,
			"updated": 1,
			"pivots":  count("pivots"),
			"shapes":  count("shapes"),
		})
}

var _ Store = (*MongoStore)(nil)
