package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/congbach123/baccon-ecommerce/models"
)

// ProductPricer resolves authoritative unit prices for order creation.
// Missing ids are simply absent from the result map.
type ProductPricer interface {
	PricesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]float64, error)
}

type mongoProductPricer struct {
	products *mongo.Collection
}

func NewProductPricer(client *mongo.Client, database string) ProductPricer {
	return &mongoProductPricer{
		products: client.Database(database).Collection("products"),
	}
}

func (p *mongoProductPricer) PricesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]float64, error) {
	cursor, err := p.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}

	prices := make(map[primitive.ObjectID]float64, len(products))
	for _, product := range products {
		prices[product.ID] = product.Price
	}
	return prices, nil
}
