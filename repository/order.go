package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/congbach123/baccon-ecommerce/models"
)

// ErrOrderNotFound is returned when an order id matches no document
var ErrOrderNotFound = errors.New("order not found")

// OrderStore persists orders. MarkPaid is a guarded transition: it applies
// the paid fields only while isPaid is still false and reports whether the
// write happened, so concurrent confirmations cannot double-apply.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	FindAll(ctx context.Context) ([]models.Order, error)
	MarkPaid(ctx context.Context, id primitive.ObjectID, result models.PaymentResult) (*models.Order, bool, error)
	MarkDelivered(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
}

type mongoOrderStore struct {
	orders *mongo.Collection
	users  *mongo.Collection
}

func NewOrderStore(client *mongo.Client, database string) OrderStore {
	db := client.Database(database)
	return &mongoOrderStore{
		orders: db.Collection("orders"),
		users:  db.Collection("users"),
	}
}

func (s *mongoOrderStore) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = primitive.NewObjectID()
	order.IsPaid = false
	order.IsDelivered = false
	order.CreatedAt = time.Now()

	if _, err := s.orders.InsertOne(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads an order and attaches the owner's public profile, the
// equivalent of populating the user reference with name and email.
func (s *mongoOrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	var owner models.OwnerProfile
	if err := s.users.FindOne(ctx, bson.M{"_id": order.User}).Decode(&owner); err == nil {
		order.Owner = &owner
	}

	return &order, nil
}

func (s *mongoOrderStore) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.find(ctx, bson.M{"user": userID})
}

func (s *mongoOrderStore) FindAll(ctx context.Context) ([]models.Order, error) {
	return s.find(ctx, bson.M{})
}

func (s *mongoOrderStore) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	cursor, err := s.orders.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *mongoOrderStore) MarkPaid(ctx context.Context, id primitive.ObjectID, result models.PaymentResult) (*models.Order, bool, error) {
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"isPaid":        true,
		"paidAt":        now,
		"paymentResult": result,
	}}

	var order models.Order
	err := s.orders.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "isPaid": false},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)

	if err == nil {
		return &order, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, err
	}

	// No unpaid document matched: either the order does not exist, or it
	// is already paid and the transition is a no-op.
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *mongoOrderStore) MarkDelivered(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"isDelivered": true,
		"deliveredAt": now,
	}}

	var order models.Order
	err := s.orders.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
