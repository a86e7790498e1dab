package database

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore stores each document as {_id: key, doc: <document>} in a collection of the same name
type MongoStore struct {
	db *Database
}

// mongoEnvelope is the stored shape of a document
type mongoEnvelope struct {
	ID  string   `bson:"_id"`
	Doc bson.Raw `bson:"doc"`
}

// NewMongoStore wraps a connected Database
func NewMongoStore(db *Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) collection(name string) (*mongo.Collection, error) {
	if !s.db.Connected() {
		return nil, ErrNotConnected
	}
	col := s.db.GetCollection(name)
	if col == nil {
		return nil, ErrNotConnected
	}
	return col, nil
}

func (s *MongoStore) Load(ctx context.Context, collection, key string) ([]byte, bool, error) {
	col, err := s.collection(collection)
	if err != nil {
		return nil, false, err
	}

	var env mongoEnvelope
	err = col.FindOne(ctx, bson.M{"_id": key}).Decode(&env)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	doc, err := bson.MarshalExtJSON(env.Doc, false, false)
	if err != nil {
		return nil, false, fmt.Errorf("converting %s/%s to json: %w", collection, key, err)
	}
	return doc, true, nil
}

func (s *MongoStore) Save(ctx context.Context, collection, key string, doc []byte) error {
	col, err := s.collection(collection)
	if err != nil {
		return err
	}

	var body bson.D
	if err := bson.UnmarshalExtJSON(doc, false, &body); err != nil {
		return fmt.Errorf("converting %s/%s to bson: %w", collection, key, err)
	}

	opts := options.Replace().SetUpsert(true)
	_, err = col.ReplaceOne(ctx, bson.M{"_id": key}, bson.M{"_id": key, "doc": body}, opts)
	return err
}

func (s *MongoStore) Delete(ctx context.Context, collection, key string) error {
	col, err := s.collection(collection)
	if err != nil {
		return err
	}
	_, err = col.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (s *MongoStore) Keys(ctx context.Context, collection string) ([]string, error) {
	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	cursor, err := col.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	var keys []string
	for cursor.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			continue
		}
		keys = append(keys, row.ID)
	}
	sort.Strings(keys)
	return keys, cursor.Err()
}

func (s *MongoStore) Ping(ctx context.Context) error {
	_, err := s.db.Ping(ctx)
	return err
}

func (s *MongoStore) Name() string { return "mongo" }

func (s *MongoStore) Close(ctx context.Context) error {
	return s.db.Disconnect(ctx)
}
