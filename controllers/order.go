// controllers/order.go
package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/congbach123/baccon-ecommerce/cart"
	"github.com/congbach123/baccon-ecommerce/models"
	"github.com/congbach123/baccon-ecommerce/repository"
	"github.com/congbach123/baccon-ecommerce/stripe"
	"github.com/congbach123/baccon-ecommerce/utils"
)

// priceTolerance is the maximum allowed disagreement, per price field,
// between client-supplied totals and the server-derived breakdown.
const priceTolerance = 0.01

// OrderController handles order-related requests
type OrderController struct {
	Orders      repository.OrderStore
	Products    repository.ProductPricer
	Stripe      stripe.Client
	Cart        *cart.Ledger
	Email       *utils.EmailService
	FrontendURL string
}

func NewOrderController(orders repository.OrderStore, products repository.ProductPricer, stripeClient stripe.Client, cartLedger *cart.Ledger, emailService *utils.EmailService, frontendURL string) *OrderController {
	return &OrderController{
		Orders:      orders,
		Products:    products,
		Stripe:      stripeClient,
		Cart:        cartLedger,
		Email:       emailService,
		FrontendURL: frontendURL,
	}
}

type createOrderRequest struct {
	OrderItems      []models.OrderItem     `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ItemsPrice      float64                `json:"itemsPrice"`
	ShippingPrice   float64                `json:"shippingPrice"`
	TaxPrice        float64                `json:"taxPrice"`
	TotalPrice      float64                `json:"totalPrice"`
}

// CreateOrder creates a new order from a cart snapshot. The price
// breakdown is re-derived from authoritative product prices; the
// client-supplied totals are only accepted when they agree within a
// rounding tolerance.
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromRequest(r)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.OrderItems) == 0 {
		respondError(w, http.StatusBadRequest, "No order items")
		return
	}
	if !completeAddress(req.ShippingAddress) || req.PaymentMethod == "" {
		respondError(w, http.StatusBadRequest, "Shipping address and payment method are required")
		return
	}
	if req.PaymentMethod != models.PaymentMethodStripe && req.PaymentMethod != models.PaymentMethodCOD {
		respondError(w, http.StatusBadRequest, "Invalid payment method")
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	ids := make([]primitive.ObjectID, len(req.OrderItems))
	for i, item := range req.OrderItems {
		ids[i] = item.Product
	}
	prices, err := oc.Products.PricesByIDs(ctx, ids)
	if err != nil {
		log.Printf("Failed to load product prices: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	subtotal := 0.0
	items := make([]models.OrderItem, len(req.OrderItems))
	for i, item := range req.OrderItems {
		price, ok := prices[item.Product]
		if !ok {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Product %s not found", item.Product.Hex()))
			return
		}
		if item.Qty <= 0 {
			respondError(w, http.StatusBadRequest, "Item quantity must be positive")
			return
		}
		item.Price = price
		items[i] = item
		subtotal += price * float64(item.Qty)
	}

	bd := utils.ComputeBreakdown(subtotal)
	if !withinTolerance(bd.ItemsPrice, req.ItemsPrice) ||
		!withinTolerance(bd.ShippingPrice, req.ShippingPrice) ||
		!withinTolerance(bd.TaxPrice, req.TaxPrice) ||
		!withinTolerance(bd.TotalPrice, req.TotalPrice) {
		respondError(w, http.StatusBadRequest, "Order totals do not match server-calculated prices")
		return
	}

	order := &models.Order{
		User:            userID,
		OrderItems:      items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      bd.ItemsPrice,
		ShippingPrice:   bd.ShippingPrice,
		TaxPrice:        bd.TaxPrice,
		TotalPrice:      bd.TotalPrice,
	}

	created, err := oc.Orders.Create(ctx, order)
	if err != nil {
		log.Printf("Failed to create order: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	// The cart snapshot became an order; clear the server-held cart
	if oc.Cart != nil {
		if _, err := oc.Cart.Clear(ctx, claims.UserID); err != nil {
			log.Printf("Failed to clear cart for user %s: %v", claims.UserID, err)
		}
	}

	respondJSON(w, http.StatusCreated, created)
}

// GetMyOrders retrieves all orders for the authenticated user
func (oc *OrderController) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromRequest(r)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, err := oc.Orders.FindByUser(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

// GetOrderByID retrieves a single order with the owner's profile attached
func (oc *OrderController) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromRequest(r)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := oc.Orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve order")
		return
	}

	if !canAccessOrder(claims, order) {
		respondError(w, http.StatusUnauthorized, "Not authorized to access this order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// CreateCheckoutSession builds a hosted-checkout session for an unpaid
// order and returns the provider's redirect handle.
func (oc *OrderController) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromRequest(r)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, err := oc.Orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve order")
		return
	}

	// Checkout sessions are owner-only; admins manage orders elsewhere
	if order.User.Hex() != claims.UserID {
		respondError(w, http.StatusUnauthorized, "Not authorized to access this order")
		return
	}
	if order.IsPaid {
		respondError(w, http.StatusBadRequest, "Order already paid")
		return
	}
	if order.PaymentMethod == models.PaymentMethodCOD {
		respondError(w, http.StatusBadRequest, "This order does not require online payment")
		return
	}

	params := stripe.CheckoutSessionParams{
		LineItems:         oc.buildLineItems(order),
		ClientReferenceID: order.ID.Hex(),
		Metadata:          map[string]string{"order_id": order.ID.Hex()},
		SuccessURL:        fmt.Sprintf("%s/paymentSuccess/%s?session_id={CHECKOUT_SESSION_ID}", oc.FrontendURL, order.ID.Hex()),
		CancelURL:         fmt.Sprintf("%s/order/%s", oc.FrontendURL, order.ID.Hex()),
	}

	session, err := oc.Stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		log.Printf("Failed to create checkout session for order %s: %v", order.ID.Hex(), err)
		respondError(w, http.StatusInternalServerError, "Failed to create payment session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"sessionId": session.ID,
		"url":       session.URL,
	})
}

// ConfirmPayment verifies a checkout session against the provider and
// applies the settlement to the order. Safe to repeat: a second call with
// the same settled session returns the paid order unchanged.
func (oc *OrderController) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromRequest(r)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	session, err := oc.Stripe.GetCheckoutSession(ctx, req.SessionID)
	if err != nil {
		log.Printf("Failed to retrieve checkout session %s: %v", req.SessionID, err)
		respondError(w, http.StatusInternalServerError, "Failed to verify payment session")
		return
	}
	if session.PaymentStatus != "paid" {
		respondError(w, http.StatusBadRequest, "Payment not completed")
		return
	}

	order, err := oc.Orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve order")
		return
	}
	if order.User.Hex() != claims.UserID {
		respondError(w, http.StatusUnauthorized, "Not authorized to access this order")
		return
	}

	// Already settled: no-op success, keeps repeated confirmations safe
	if order.IsPaid {
		respondJSON(w, http.StatusOK, order)
		return
	}

	result := models.PaymentResult{
		ID:           session.PaymentIntent,
		Status:       session.PaymentStatus,
		UpdateTime:   time.Now().UTC().Format(time.RFC3339),
		EmailAddress: session.CustomerDetails.Email,
		Method:       models.PaymentMethodStripe,
		AmountPaid:   order.TotalPrice,
	}

	updated, applied, err := oc.Orders.MarkPaid(ctx, orderID, result)
	if err != nil {
		log.Printf("Failed to mark order %s paid: %v", orderID.Hex(), err)
		respondError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}

	if applied && oc.Email != nil {
		go func(email string, order models.Order) {
			if err := oc.Email.SendOrderReceipt(email, &order); err != nil {
				log.Printf("Failed to send receipt to %s: %v", email, err)
			}
		}(claims.Email, *updated)
	}

	respondJSON(w, http.StatusOK, updated)
}

// UpdateOrderToPaid is the legacy trusted transition: it applies a
// caller-supplied payment result without consulting the payment provider.
// Kept for backward compatibility with the pre-hosted-checkout flow.
func (oc *OrderController) UpdateOrderToPaid(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromRequest(r)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var payload struct {
		PaymentMethod   string  `json:"paymentMethod"`
		PaymentIntentID string  `json:"paymentIntentId"`
		ID              string  `json:"id"`
		Status          string  `json:"status"`
		UpdateTime      string  `json:"update_time"`
		EmailAddress    string  `json:"email_address"`
		AmountPaid      float64 `json:"amount_paid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := oc.Orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve order")
		return
	}
	if !canAccessOrder(claims, order) {
		respondError(w, http.StatusUnauthorized, "Not authorized to access this order")
		return
	}

	var result models.PaymentResult
	if payload.PaymentMethod == models.PaymentMethodStripe {
		result = models.PaymentResult{
			ID:         payload.PaymentIntentID,
			Status:     payload.Status,
			UpdateTime: time.Now().UTC().Format(time.RFC3339),
			Method:     models.PaymentMethodStripe,
			AmountPaid: payload.AmountPaid,
		}
	} else {
		// Legacy payload shape
		result = models.PaymentResult{
			ID:           payload.ID,
			Status:       payload.Status,
			UpdateTime:   payload.UpdateTime,
			EmailAddress: payload.EmailAddress,
		}
	}

	updated, _, err := oc.Orders.MarkPaid(ctx, orderID, result)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// UpdateOrderToDelivered marks an order as delivered (admin)
func (oc *OrderController) UpdateOrderToDelivered(w http.ResponseWriter, r *http.Request) {
	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	updated, err := oc.Orders.MarkDelivered(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// GetAllOrders retrieves every order (admin)
func (oc *OrderController) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	orders, err := oc.Orders.FindAll(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

// buildLineItems converts an order into provider line items: one per order
// item, plus shipping and tax lines when nonzero. Unit prices are converted
// to cents.
func (oc *OrderController) buildLineItems(order *models.Order) []stripe.LineItem {
	items := make([]stripe.LineItem, 0, len(order.OrderItems)+2)

	for _, item := range order.OrderItems {
		line := stripe.LineItem{
			Name:     item.Name,
			Amount:   utils.ToCents(item.Price),
			Quantity: int64(item.Qty),
		}
		if img := oc.absoluteImageURL(item.Image); img != "" {
			line.Images = []string{img}
		}
		items = append(items, line)
	}

	if order.ShippingPrice > 0 {
		items = append(items, stripe.LineItem{
			Name:     "Shipping",
			Amount:   utils.ToCents(order.ShippingPrice),
			Quantity: 1,
		})
	}
	if order.TaxPrice > 0 {
		items = append(items, stripe.LineItem{
			Name:     "Tax",
			Amount:   utils.ToCents(order.TaxPrice),
			Quantity: 1,
		})
	}

	return items
}

// absoluteImageURL rewrites relative image paths against the storefront
// base URL. Anything that does not come out as an absolute http(s) URL is
// dropped rather than failing the whole checkout request.
func (oc *OrderController) absoluteImageURL(image string) string {
	if image == "" {
		return ""
	}
	if strings.HasPrefix(image, "/") {
		image = strings.TrimRight(oc.FrontendURL, "/") + image
	}
	u, err := url.Parse(image)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.String()
}

// canAccessOrder is the shared access guard: the order's owner or an admin
func canAccessOrder(claims *utils.Claims, order *models.Order) bool {
	return claims.IsAdmin() || order.User.Hex() == claims.UserID
}

func completeAddress(addr models.ShippingAddress) bool {
	return addr.Address != "" && addr.City != "" && addr.PostalCode != "" && addr.Country != ""
}

func withinTolerance(derived, supplied float64) bool {
	return math.Abs(derived-supplied) <= priceTolerance
}
