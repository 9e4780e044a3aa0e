package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/congbach123/baccon-ecommerce/cart"
	"github.com/congbach123/baccon-ecommerce/models"
	"github.com/congbach123/baccon-ecommerce/utils"
)

func newCartTestController() (*CartController, *cart.Ledger) {
	ledger := cart.NewLedger(cart.NewMemoryStore())
	return &CartController{Ledger: ledger}, ledger
}

func decodeCartState(t *testing.T, rec *httptest.ResponseRecorder) cart.State {
	t.Helper()
	var state cart.State
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	return state
}

func TestGetCartEmpty(t *testing.T) {
	cc, _ := newCartTestController()
	claims := &utils.Claims{UserID: primitive.NewObjectID().Hex(), Role: "user"}

	rec := httptest.NewRecorder()
	cc.GetCart(rec, authedRequest(t, http.MethodGet, "/api/cart", nil, claims, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeCartState(t, rec)
	assert.Empty(t, state.Items)
	assert.Zero(t, state.TotalPrice)
}

func TestUpdateItemQuantityRecomputesTotals(t *testing.T) {
	cc, ledger := newCartTestController()
	claims := &utils.Claims{UserID: primitive.NewObjectID().Hex(), Role: "user"}

	productID := primitive.NewObjectID()
	_, err := ledger.AddItem(context.Background(), claims.UserID,
		cart.Item{Product: productID, Name: "Headphones", Price: 20.00, Qty: 1, CountInStock: 10})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPut, "/api/cart/items/"+productID.Hex(),
		map[string]int{"qty": 6}, claims, map[string]string{"productId": productID.Hex()})
	cc.UpdateItemQuantity(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeCartState(t, rec)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 6, state.Items[0].Qty)
	// 120.00 subtotal crosses the free shipping threshold
	assert.InDelta(t, 120.00, state.ItemsPrice, 1e-9)
	assert.InDelta(t, 0, state.ShippingPrice, 1e-9)
	assert.InDelta(t, 9.60, state.TaxPrice, 1e-9)
	assert.InDelta(t, 129.60, state.TotalPrice, 1e-9)
}

func TestUpdateItemQuantityMissingLine(t *testing.T) {
	cc, _ := newCartTestController()
	claims := &utils.Claims{UserID: primitive.NewObjectID().Hex(), Role: "user"}
	productID := primitive.NewObjectID()

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPut, "/api/cart/items/"+productID.Hex(),
		map[string]int{"qty": 2}, claims, map[string]string{"productId": productID.Hex()})
	cc.UpdateItemQuantity(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Item not found in cart", decodeMessage(t, rec))
}

func TestUpdateItemQuantityRejectsNonPositive(t *testing.T) {
	cc, _ := newCartTestController()
	claims := &utils.Claims{UserID: primitive.NewObjectID().Hex(), Role: "user"}
	productID := primitive.NewObjectID()

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPut, "/api/cart/items/"+productID.Hex(),
		map[string]int{"qty": 0}, claims, map[string]string{"productId": productID.Hex()})
	cc.UpdateItemQuantity(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Quantity must be at least 1", decodeMessage(t, rec))
}

func TestRemoveItemKeepsShippingRule(t *testing.T) {
	cc, ledger := newCartTestController()
	claims := &utils.Claims{UserID: primitive.NewObjectID().Hex(), Role: "user"}
	ctx := context.Background()

	keep := primitive.NewObjectID()
	drop := primitive.NewObjectID()
	_, err := ledger.AddItem(ctx, claims.UserID, cart.Item{Product: keep, Name: "Mouse", Price: 20.00, Qty: 1, CountInStock: 10})
	require.NoError(t, err)
	_, err = ledger.AddItem(ctx, claims.UserID, cart.Item{Product: drop, Name: "Camera", Price: 150.00, Qty: 1, CountInStock: 5})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodDelete, "/api/cart/items/"+drop.Hex(), nil, claims, map[string]string{"productId": drop.Hex()})
	cc.RemoveItem(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeCartState(t, rec)
	require.Len(t, state.Items, 1)
	// Dropping back under the threshold reinstates the flat shipping fee
	assert.InDelta(t, 20.00, state.ItemsPrice, 1e-9)
	assert.InDelta(t, 10.00, state.ShippingPrice, 1e-9)
	assert.InDelta(t, 31.60, state.TotalPrice, 1e-9)
}

func TestSaveShippingAddressAndPaymentMethod(t *testing.T) {
	cc, _ := newCartTestController()
	claims := &utils.Claims{UserID: primitive.NewObjectID().Hex(), Role: "user"}

	addr := models.ShippingAddress{Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "USA"}
	rec := httptest.NewRecorder()
	cc.SaveShippingAddress(rec, authedRequest(t, http.MethodPut, "/api/cart/shipping", addr, claims, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, addr, decodeCartState(t, rec).ShippingAddress)

	rec = httptest.NewRecorder()
	cc.SavePaymentMethod(rec, authedRequest(t, http.MethodPut, "/api/cart/payment",
		map[string]string{"paymentMethod": models.PaymentMethodCOD}, claims, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PaymentMethodCOD, decodeCartState(t, rec).PaymentMethod)
}

func TestSavePaymentMethodRejectsUnknownProvider(t *testing.T) {
	cc, _ := newCartTestController()
	claims := &utils.Claims{UserID: primitive.NewObjectID().Hex(), Role: "user"}

	rec := httptest.NewRecorder()
	cc.SavePaymentMethod(rec, authedRequest(t, http.MethodPut, "/api/cart/payment",
		map[string]string{"paymentMethod": "paypal"}, claims, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid payment method", decodeMessage(t, rec))
}

func TestClearCartEndpoint(t *testing.T) {
	cc, ledger := newCartTestController()
	claims := &utils.Claims{UserID: primitive.NewObjectID().Hex(), Role: "user"}

	_, err := ledger.AddItem(context.Background(), claims.UserID,
		cart.Item{Product: primitive.NewObjectID(), Name: "Mouse", Price: 49.99, Qty: 2, CountInStock: 7})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	cc.ClearCart(rec, authedRequest(t, http.MethodDelete, "/api/cart", nil, claims, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeCartState(t, rec)
	assert.Empty(t, state.Items)
	assert.Zero(t, state.CartCount)
	assert.Zero(t, state.TotalPrice)
}
