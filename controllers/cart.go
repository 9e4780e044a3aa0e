package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/congbach123/baccon-ecommerce/cart"
	"github.com/congbach123/baccon-ecommerce/models"
)

// CartController exposes the cart ledger over HTTP. Product details on a
// cart line always come from the catalog, never from the request body.
type CartController struct {
	Ledger   *cart.Ledger
	Products *mongo.Collection
}

func NewCartController(ledger *cart.Ledger, client *mongo.Client, database string) *CartController {
	return &CartController{
		Ledger:   ledger,
		Products: client.Database(database).Collection("products"),
	}
}

// GetCart retrieves the user's cart
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromRequest(r)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	state, err := cc.Ledger.Get(ctx, claims.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// AddItem adds a product to the user's cart
func (cc *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromRequest(r)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	if req.Qty < 1 {
		respondError(w, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var product models.Product
	if err := cc.Products.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if req.Qty > product.CountInStock {
		respondError(w, http.StatusBadRequest, "Not enough stock")
		return
	}

	state, err := cc.Ledger.AddItem(ctx, claims.UserID, cart.Item{
		Product:      product.ID,
		Name:         product.Name,
		Image:        product.Image,
		Price:        product.Price,
		Qty:          req.Qty,
		CountInStock: product.CountInStock,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error updating cart")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// UpdateItemQuantity changes the quantity of a cart line
func (cc *CartController) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromRequest(r)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.Qty < 1 {
		respondError(w, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	state, err := cc.Ledger.UpdateQuantity(ctx, claims.UserID, productID, req.Qty)
	if errors.Is(err, cart.ErrItemNotFound) {
		respondError(w, http.StatusNotFound, "Item not found in cart")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error updating cart")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// RemoveItem removes a product from the user's cart
func (cc *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromRequest(r)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	state, err := cc.Ledger.RemoveItem(ctx, claims.UserID, productID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error updating cart")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// SaveShippingAddress stores the pending shipping address on the cart
func (cc *CartController) SaveShippingAddress(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromRequest(r)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var addr models.ShippingAddress
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	state, err := cc.Ledger.SaveShippingAddress(ctx, claims.UserID, addr)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error updating cart")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// SavePaymentMethod stores the pending payment method on the cart
func (cc *CartController) SavePaymentMethod(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromRequest(r)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.PaymentMethod != models.PaymentMethodStripe && req.PaymentMethod != models.PaymentMethodCOD {
		respondError(w, http.StatusBadRequest, "Invalid payment method")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	state, err := cc.Ledger.SavePaymentMethod(ctx, claims.UserID, req.PaymentMethod)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error updating cart")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// ClearCart empties the user's cart
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromRequest(r)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	state, err := cc.Ledger.Clear(ctx, claims.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error clearing cart")
		return
	}

	respondJSON(w, http.StatusOK, state)
}
