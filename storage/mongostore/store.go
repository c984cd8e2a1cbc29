package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionkit/core/session"
)

// Store is a MongoDB-backed session store. Each record is one document
// keyed by the session ID in _id, with the data serialized as a JSON
// blob and the expiry in a dedicated field covered by a TTL index.
type Store struct {
	collection *mongo.Collection
}

type sessionDoc struct {
	ID        string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// New creates a session store on top of a MongoDB collection.
func New(collection *mongo.Collection) *Store {
	return &Store{collection: collection}
}

// EnsureIndexes creates the TTL index on expires_at so MongoDB reclaims
// expired documents itself. Call once at startup. The TTL monitor runs
// roughly once a minute, so reads still filter on expiry.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := s.collection.Indexes().CreateOne(ctx, model); err != nil {
		return errors.Join(ErrFailedToEnsureTTL, err)
	}
	return nil
}

// Create inserts a new document. A duplicate _id maps to
// session.ErrDuplicateID.
func (s *Store) Create(ctx context.Context, rec *session.Record) error {
	data, err := session.EncodeRecord(rec)
	if err != nil {
		return err
	}

	doc := sessionDoc{ID: rec.ID.String(), Data: data, ExpiresAt: rec.ExpiresAt}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// A resident expired document blocks the _id until the TTL
			// monitor removes it; replace it instead of reporting a
			// collision.
			taken, takeErr := s.takeOverExpired(ctx, doc)
			if takeErr != nil {
				return takeErr
			}
			if taken {
				return nil
			}
			return session.ErrDuplicateID
		}
		return err
	}
	return nil
}

func (s *Store) takeOverExpired(ctx context.Context, doc sessionDoc) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: doc.ID},
		{Key: "expires_at", Value: bson.D{{Key: "$lte", Value: time.Now()}}},
	}
	result, err := s.collection.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// Save upserts the document unconditionally.
func (s *Store) Save(ctx context.Context, rec *session.Record) error {
	data, err := session.EncodeRecord(rec)
	if err != nil {
		return err
	}

	doc := sessionDoc{ID: rec.ID.String(), Data: data, ExpiresAt: rec.ExpiresAt}
	filter := bson.D{{Key: "_id", Value: doc.ID}}
	_, err = s.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	return err
}

// Load fetches the document, filtering expired ones in the query so a
// document the TTL monitor has not reclaimed yet is never returned.
func (s *Store) Load(ctx context.Context, id session.ID) (*session.Record, error) {
	filter := bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: time.Now()}}},
	}

	var doc sessionDoc
	err := s.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return session.DecodeRecord(doc.Data)
}

// Delete removes the document. Absent IDs are a no-op.
func (s *Store) Delete(ctx context.Context, id session.ID) error {
	_, err := s.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	return err
}

// DeleteExpired reclaims expired documents explicitly, useful in tests
// or when the TTL monitor lag matters.
func (s *Store) DeleteExpired(ctx context.Context) error {
	filter := bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lte", Value: time.Now()}}}}
	_, err := s.collection.DeleteMany(ctx, filter)
	return err
}
