package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/congbach123/baccon-ecommerce/models"
	"github.com/congbach123/baccon-ecommerce/utils"
)

// ProductController handles product-related requests
type ProductController struct {
	Collection *mongo.Collection
	Users      *mongo.Collection
}

// NewProductController creates a new ProductController
func NewProductController(client *mongo.Client, database string) *ProductController {
	db := client.Database(database)
	return &ProductController{
		Collection: db.Collection("products"),
		Users:      db.Collection("users"),
	}
}

// GetProducts retrieves all products
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	cursor, err := pc.Collection.Find(ctx, bson.M{})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching products")
		return
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		respondError(w, http.StatusInternalServerError, "Error reading products")
		return
	}

	respondJSON(w, http.StatusOK, products)
}

// GetTopProducts retrieves the highest rated products
func (pc *ProductController) GetTopProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}}).
		SetLimit(3)
	cursor, err := pc.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching products")
		return
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		respondError(w, http.StatusInternalServerError, "Error reading products")
		return
	}

	respondJSON(w, http.StatusOK, products)
}

// GetProductByID retrieves a single product by ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var product models.Product
	if err := pc.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if product.Name == "" || product.Price < 0 {
		respondError(w, http.StatusBadRequest, "Product name and a non-negative price are required")
		return
	}

	product.ID = primitive.NewObjectID()
	product.Rating = 0
	product.NumReviews = 0
	product.Reviews = []models.Review{}
	product.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if _, err := pc.Collection.InsertOne(ctx, product); err != nil {
		respondError(w, http.StatusInternalServerError, "Error creating product")
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles updating a product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req struct {
		Name         *string  `json:"name"`
		Image        *string  `json:"image"`
		Brand        *string  `json:"brand"`
		Category     *string  `json:"category"`
		Description  *string  `json:"description"`
		Price        *float64 `json:"price"`
		CountInStock *int     `json:"countInStock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	update := bson.M{}
	if req.Name != nil {
		update["name"] = *req.Name
	}
	if req.Image != nil {
		update["image"] = *req.Image
	}
	if req.Brand != nil {
		update["brand"] = *req.Brand
	}
	if req.Category != nil {
		update["category"] = *req.Category
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}
	if req.Price != nil {
		update["price"] = *req.Price
	}
	if req.CountInStock != nil {
		update["countInStock"] = *req.CountInStock
	}
	if len(update) == 0 {
		respondError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	result, err := pc.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error updating product")
		return
	}
	if result.MatchedCount == 0 {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	var product models.Product
	if err := pc.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// DeleteProduct handles deleting a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	result, err := pc.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error deleting product")
		return
	}
	if result.DeletedCount == 0 {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Product removed"})
}

// CreateProductReview adds a review to a product. One review per user.
func (pc *ProductController) CreateProductReview(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromRequest(r)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req struct {
		Rating  float64 `json:"rating"`
		Comment string  `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var product models.Product
	if err := pc.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	for _, review := range product.Reviews {
		if review.User == userID {
			respondError(w, http.StatusBadRequest, "Product already reviewed")
			return
		}
	}

	var reviewer models.User
	reviewerName := claims.Email
	if err := pc.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&reviewer); err == nil {
		reviewerName = reviewer.Name
	}

	review := models.Review{
		User:      userID,
		Name:      reviewerName,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}
	reviews := append(product.Reviews, review)

	sum := 0.0
	for _, rv := range reviews {
		sum += rv.Rating
	}
	rating := utils.Round2(sum / float64(len(reviews)))

	update := bson.M{"$set": bson.M{
		"reviews":    reviews,
		"numReviews": len(reviews),
		"rating":     rating,
	}}
	if _, err := pc.Collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		respondError(w, http.StatusInternalServerError, "Error saving review")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "Review added"})
}
