package cart

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists one cart document per user in the carts collection
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		collection: client.Database(database).Collection("carts"),
	}
}

type cartDocument struct {
	UserID string `bson:"userId"`
	State  State  `bson:"state"`
}

func (m *MongoStore) Load(ctx context.Context, userID string) (*State, error) {
	var doc cartDocument
	err := m.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		s := emptyState()
		return &s, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.State.Items == nil {
		doc.State.Items = []Item{}
	}
	return &doc.State, nil
}

func (m *MongoStore) Save(ctx context.Context, userID string, state *State) error {
	_, err := m.collection.ReplaceOne(ctx,
		bson.M{"userId": userID},
		cartDocument{UserID: userID, State: *state},
		options.Replace().SetUpsert(true),
	)
	return err
}

func (m *MongoStore) Clear(ctx context.Context, userID string) error {
	_, err := m.collection.DeleteOne(ctx, bson.M{"userId": userID})
	return err
}
