package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/congbach123/baccon-ecommerce/cart"
	"github.com/congbach123/baccon-ecommerce/middleware"
	"github.com/congbach123/baccon-ecommerce/models"
	"github.com/congbach123/baccon-ecommerce/repository"
	"github.com/congbach123/baccon-ecommerce/stripe"
	"github.com/congbach123/baccon-ecommerce/utils"
)

// fakeOrderStore is an in-memory OrderStore mirroring the guarded
// transition semantics of the Mongo-backed store.
type fakeOrderStore struct {
	orders        map[primitive.ObjectID]*models.Order
	markPaidCalls int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[primitive.ObjectID]*models.Order{}}
}

func (f *fakeOrderStore) put(order *models.Order) {
	cp := *order
	f.orders[order.ID] = &cp
}

func (f *fakeOrderStore) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = primitive.NewObjectID()
	order.IsPaid = false
	order.IsDelivered = false
	order.CreatedAt = time.Now()
	f.put(order)
	return order, nil
}

func (f *fakeOrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (f *fakeOrderStore) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	out := []models.Order{}
	for _, order := range f.orders {
		if order.User == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) FindAll(ctx context.Context) ([]models.Order, error) {
	out := []models.Order{}
	for _, order := range f.orders {
		out = append(out, *order)
	}
	return out, nil
}

func (f *fakeOrderStore) MarkPaid(ctx context.Context, id primitive.ObjectID, result models.PaymentResult) (*models.Order, bool, error) {
	f.markPaidCalls++
	order, ok := f.orders[id]
	if !ok {
		return nil, false, repository.ErrOrderNotFound
	}
	if order.IsPaid {
		cp := *order
		return &cp, false, nil
	}
	now := time.Now()
	order.IsPaid = true
	order.PaidAt = &now
	order.PaymentResult = &result
	cp := *order
	return &cp, true, nil
}

func (f *fakeOrderStore) MarkDelivered(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	now := time.Now()
	order.IsDelivered = true
	order.DeliveredAt = &now
	cp := *order
	return &cp, nil
}

// fakePricer serves authoritative prices from a fixed map
type fakePricer map[primitive.ObjectID]float64

func (f fakePricer) PricesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]float64, error) {
	out := map[primitive.ObjectID]float64{}
	for _, id := range ids {
		if price, ok := f[id]; ok {
			out[id] = price
		}
	}
	return out, nil
}

// fakeStripeClient records calls and returns canned sessions
type fakeStripeClient struct {
	session      *stripe.CheckoutSession
	err          error
	createCalls  int
	getCalls     int
	lastParams   stripe.CheckoutSessionParams
	lastGetID    string
}

func (f *fakeStripeClient) CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.createCalls++
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeStripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	f.getCalls++
	f.lastGetID = sessionID
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeStripeClient) CreatePaymentIntent(ctx context.Context, amountCents int64, metadata map[string]string) (*stripe.PaymentIntent, error) {
	return &stripe.PaymentIntent{ID: "pi_fake", Status: "requires_payment_method"}, nil
}

func authedRequest(t *testing.T, method, target string, body interface{}, claims *utils.Claims, vars map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, target, &buf)
	if claims != nil {
		r = r.WithContext(context.WithValue(r.Context(), middleware.UserContextKey, claims))
	}
	if vars != nil {
		r = mux.SetURLVars(r, vars)
	}
	return r
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Message
}

func testAddress() models.ShippingAddress {
	return models.ShippingAddress{Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "USA"}
}

func TestCreateOrderValidation(t *testing.T) {
	userID := primitive.NewObjectID()
	claims := &utils.Claims{UserID: userID.Hex(), Email: "john@example.com", Role: "user"}
	oc := NewOrderController(newFakeOrderStore(), fakePricer{}, &fakeStripeClient{}, nil, nil, "http://localhost:3000")

	tests := []struct {
		name    string
		body    createOrderRequest
		message string
	}{
		{
			name:    "empty items",
			body:    createOrderRequest{ShippingAddress: testAddress(), PaymentMethod: models.PaymentMethodStripe},
			message: "No order items",
		},
		{
			name: "incomplete address",
			body: createOrderRequest{
				OrderItems:      []models.OrderItem{{Product: primitive.NewObjectID(), Qty: 1}},
				ShippingAddress: models.ShippingAddress{Address: "1 Main St"},
				PaymentMethod:   models.PaymentMethodStripe,
			},
			message: "Shipping address and payment method are required",
		},
		{
			name: "missing payment method",
			body: createOrderRequest{
				OrderItems:      []models.OrderItem{{Product: primitive.NewObjectID(), Qty: 1}},
				ShippingAddress: testAddress(),
			},
			message: "Shipping address and payment method are required",
		},
		{
			name: "unknown payment method",
			body: createOrderRequest{
				OrderItems:      []models.OrderItem{{Product: primitive.NewObjectID(), Qty: 1}},
				ShippingAddress: testAddress(),
				PaymentMethod:   "paypal",
			},
			message: "Invalid payment method",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			oc.CreateOrder(rec, authedRequest(t, http.MethodPost, "/api/orders", tt.body, claims, nil))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decodeMessage(t, rec))
		})
	}
}

func TestCreateOrderRejectsTamperedTotals(t *testing.T) {
	userID := primitive.NewObjectID()
	productID := primitive.NewObjectID()
	claims := &utils.Claims{UserID: userID.Hex(), Email: "john@example.com", Role: "user"}

	store := newFakeOrderStore()
	oc := NewOrderController(store, fakePricer{productID: 50.00}, &fakeStripeClient{}, nil, nil, "http://localhost:3000")

	// Server derives 150/0/12/162; the client claims a cheaper total
	body := createOrderRequest{
		OrderItems:      []models.OrderItem{{Product: productID, Name: "Headphones", Qty: 3, Price: 50.00}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodStripe,
		ItemsPrice:      150.00,
		ShippingPrice:   0,
		TaxPrice:        12.00,
		TotalPrice:      100.00,
	}

	rec := httptest.NewRecorder()
	oc.CreateOrder(rec, authedRequest(t, http.MethodPost, "/api/orders", body, claims, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Order totals do not match server-calculated prices", decodeMessage(t, rec))
	assert.Empty(t, store.orders)
}

func TestCreateOrderRejectsUnknownProduct(t *testing.T) {
	userID := primitive.NewObjectID()
	claims := &utils.Claims{UserID: userID.Hex(), Email: "john@example.com", Role: "user"}
	oc := NewOrderController(newFakeOrderStore(), fakePricer{}, &fakeStripeClient{}, nil, nil, "http://localhost:3000")

	body := createOrderRequest{
		OrderItems:      []models.OrderItem{{Product: primitive.NewObjectID(), Name: "Ghost", Qty: 1, Price: 9.99}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	}

	rec := httptest.NewRecorder()
	oc.CreateOrder(rec, authedRequest(t, http.MethodPost, "/api/orders", body, claims, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeMessage(t, rec), "not found")
}

func TestCreateOrderUsesAuthoritativePricesAndClearsCart(t *testing.T) {
	userID := primitive.NewObjectID()
	productID := primitive.NewObjectID()
	claims := &utils.Claims{UserID: userID.Hex(), Email: "john@example.com", Role: "user"}

	store := newFakeOrderStore()
	ledger := cart.NewLedger(cart.NewMemoryStore())
	_, err := ledger.AddItem(context.Background(), userID.Hex(), cart.Item{Product: productID, Name: "Headphones", Price: 50.00, Qty: 3, CountInStock: 10})
	require.NoError(t, err)

	oc := NewOrderController(store, fakePricer{productID: 50.00}, &fakeStripeClient{}, ledger, nil, "http://localhost:3000")

	body := createOrderRequest{
		// Client claims a stale unit price; server pricing wins
		OrderItems:      []models.OrderItem{{Product: productID, Name: "Headphones", Qty: 3, Price: 1.00}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodStripe,
		ItemsPrice:      150.00,
		ShippingPrice:   0,
		TaxPrice:        12.00,
		TotalPrice:      162.00,
	}

	rec := httptest.NewRecorder()
	oc.CreateOrder(rec, authedRequest(t, http.MethodPost, "/api/orders", body, claims, nil))

	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.False(t, created.IsPaid)
	assert.False(t, created.IsDelivered)
	assert.InDelta(t, 50.00, created.OrderItems[0].Price, 1e-9)
	assert.InDelta(t, 162.00, created.TotalPrice, 1e-9)
	assert.Equal(t, userID, created.User)

	state, err := ledger.Get(context.Background(), userID.Hex())
	require.NoError(t, err)
	assert.Empty(t, state.Items)
}

func TestGetOrderByIDAccessGuard(t *testing.T) {
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	store := newFakeOrderStore()
	order := &models.Order{ID: primitive.NewObjectID(), User: owner, TotalPrice: 31.60}
	store.put(order)

	oc := NewOrderController(store, fakePricer{}, &fakeStripeClient{}, nil, nil, "http://localhost:3000")
	vars := map[string]string{"id": order.ID.Hex()}

	t.Run("owner can read", func(t *testing.T) {
		claims := &utils.Claims{UserID: owner.Hex(), Role: "user"}
		rec := httptest.NewRecorder()
		oc.GetOrderByID(rec, authedRequest(t, http.MethodGet, "/api/orders/"+order.ID.Hex(), nil, claims, vars))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin can read", func(t *testing.T) {
		claims := &utils.Claims{UserID: stranger.Hex(), Role: "admin"}
		rec := httptest.NewRecorder()
		oc.GetOrderByID(rec, authedRequest(t, http.MethodGet, "/api/orders/"+order.ID.Hex(), nil, claims, vars))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("stranger is rejected", func(t *testing.T) {
		claims := &utils.Claims{UserID: stranger.Hex(), Role: "user"}
		rec := httptest.NewRecorder()
		oc.GetOrderByID(rec, authedRequest(t, http.MethodGet, "/api/orders/"+order.ID.Hex(), nil, claims, vars))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown order", func(t *testing.T) {
		claims := &utils.Claims{UserID: owner.Hex(), Role: "user"}
		rec := httptest.NewRecorder()
		oc.GetOrderByID(rec, authedRequest(t, http.MethodGet, "/api/orders/x", nil, claims, map[string]string{"id": primitive.NewObjectID().Hex()}))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateCheckoutSessionPreconditions(t *testing.T) {
	owner := primitive.NewObjectID()
	ownerClaims := &utils.Claims{UserID: owner.Hex(), Email: "john@example.com", Role: "user"}

	paidAt := time.Now()
	paid := &models.Order{ID: primitive.NewObjectID(), User: owner, PaymentMethod: models.PaymentMethodStripe, IsPaid: true, PaidAt: &paidAt}
	cod := &models.Order{ID: primitive.NewObjectID(), User: owner, PaymentMethod: models.PaymentMethodCOD}
	unpaid := &models.Order{ID: primitive.NewObjectID(), User: owner, PaymentMethod: models.PaymentMethodStripe}

	store := newFakeOrderStore()
	store.put(paid)
	store.put(cod)
	store.put(unpaid)

	tests := []struct {
		name    string
		orderID string
		claims  *utils.Claims
		status  int
		message string
	}{
		{
			name:    "unknown order",
			orderID: primitive.NewObjectID().Hex(),
			claims:  ownerClaims,
			status:  http.StatusNotFound,
			message: "Order not found",
		},
		{
			name:    "non-owner rejected even as admin",
			orderID: unpaid.ID.Hex(),
			claims:  &utils.Claims{UserID: primitive.NewObjectID().Hex(), Role: "admin"},
			status:  http.StatusUnauthorized,
			message: "Not authorized to access this order",
		},
		{
			name:    "already paid",
			orderID: paid.ID.Hex(),
			claims:  ownerClaims,
			status:  http.StatusBadRequest,
			message: "Order already paid",
		},
		{
			name:    "cash on delivery",
			orderID: cod.ID.Hex(),
			claims:  ownerClaims,
			status:  http.StatusBadRequest,
			message: "This order does not require online payment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeStripeClient{}
			oc := NewOrderController(store, fakePricer{}, provider, nil, nil, "http://localhost:3000")

			rec := httptest.NewRecorder()
			req := authedRequest(t, http.MethodPost, "/api/orders/x/create-checkout-session", nil, tt.claims, map[string]string{"id": tt.orderID})
			oc.CreateCheckoutSession(rec, req)

			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeMessage(t, rec))
			assert.Zero(t, provider.createCalls, "provider must not be called when preconditions fail")
		})
	}
}

func TestCreateCheckoutSessionSuccess(t *testing.T) {
	owner := primitive.NewObjectID()
	claims := &utils.Claims{UserID: owner.Hex(), Email: "john@example.com", Role: "user"}

	order := &models.Order{
		ID:   primitive.NewObjectID(),
		User: owner,
		OrderItems: []models.OrderItem{
			{Product: primitive.NewObjectID(), Name: "Headphones", Qty: 1, Image: "/images/airpods.jpg", Price: 20.00},
		},
		PaymentMethod: models.PaymentMethodStripe,
		ItemsPrice:    20.00,
		ShippingPrice: 10.00,
		TaxPrice:      1.60,
		TotalPrice:    31.60,
	}
	store := newFakeOrderStore()
	store.put(order)

	provider := &fakeStripeClient{session: &stripe.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.com/pay/cs_test_123"}}
	oc := NewOrderController(store, fakePricer{}, provider, nil, nil, "http://localhost:3000")

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/orders/x/create-checkout-session", nil, claims, map[string]string{"id": order.ID.Hex()})
	oc.CreateCheckoutSession(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "cs_test_123", resp["sessionId"])
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_123", resp["url"])

	require.Equal(t, 1, provider.createCalls)
	params := provider.lastParams
	assert.Equal(t, order.ID.Hex(), params.ClientReferenceID)
	assert.Equal(t, order.ID.Hex(), params.Metadata["order_id"])
	assert.Contains(t, params.SuccessURL, "/paymentSuccess/"+order.ID.Hex())
	assert.Contains(t, params.SuccessURL, "{CHECKOUT_SESSION_ID}")
	assert.Contains(t, params.CancelURL, "/order/"+order.ID.Hex())

	// One product line plus shipping and tax lines, all in cents
	require.Len(t, params.LineItems, 3)
	assert.Equal(t, "Headphones", params.LineItems[0].Name)
	assert.Equal(t, int64(2000), params.LineItems[0].Amount)
	assert.Equal(t, []string{"http://localhost:3000/images/airpods.jpg"}, params.LineItems[0].Images)
	assert.Equal(t, "Shipping", params.LineItems[1].Name)
	assert.Equal(t, int64(1000), params.LineItems[1].Amount)
	assert.Equal(t, "Tax", params.LineItems[2].Name)
	assert.Equal(t, int64(160), params.LineItems[2].Amount)
}

func TestCreateCheckoutSessionProviderFailure(t *testing.T) {
	owner := primitive.NewObjectID()
	claims := &utils.Claims{UserID: owner.Hex(), Role: "user"}

	order := &models.Order{ID: primitive.NewObjectID(), User: owner, PaymentMethod: models.PaymentMethodStripe, TotalPrice: 31.60}
	store := newFakeOrderStore()
	store.put(order)

	provider := &fakeStripeClient{err: errors.New("stripe error 500")}
	oc := NewOrderController(store, fakePricer{}, provider, nil, nil, "http://localhost:3000")

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/orders/x/create-checkout-session", nil, claims, map[string]string{"id": order.ID.Hex()})
	oc.CreateCheckoutSession(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to create payment session", decodeMessage(t, rec))
}

func TestConfirmPaymentRequiresSessionID(t *testing.T) {
	owner := primitive.NewObjectID()
	claims := &utils.Claims{UserID: owner.Hex(), Role: "user"}
	oc := NewOrderController(newFakeOrderStore(), fakePricer{}, &fakeStripeClient{}, nil, nil, "http://localhost:3000")

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPut, "/api/orders/x/confirm-payment", map[string]string{}, claims, map[string]string{"id": primitive.NewObjectID().Hex()})
	oc.ConfirmPayment(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Session ID is required", decodeMessage(t, rec))
}

func TestConfirmPaymentUnsettledSessionDoesNotMarkPaid(t *testing.T) {
	owner := primitive.NewObjectID()
	claims := &utils.Claims{UserID: owner.Hex(), Role: "user"}

	order := &models.Order{ID: primitive.NewObjectID(), User: owner, PaymentMethod: models.PaymentMethodStripe, TotalPrice: 31.60}
	store := newFakeOrderStore()
	store.put(order)

	provider := &fakeStripeClient{session: &stripe.CheckoutSession{ID: "cs_test_123", PaymentStatus: "unpaid"}}
	oc := NewOrderController(store, fakePricer{}, provider, nil, nil, "http://localhost:3000")

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPut, "/api/orders/x/confirm-payment",
		map[string]string{"sessionId": "cs_test_123"}, claims, map[string]string{"id": order.ID.Hex()})
	oc.ConfirmPayment(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Payment not completed", decodeMessage(t, rec))
	assert.Zero(t, store.markPaidCalls)

	stored, err := store.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPaid)
}

func TestConfirmPaymentOwnerOnly(t *testing.T) {
	owner := primitive.NewObjectID()
	stranger := &utils.Claims{UserID: primitive.NewObjectID().Hex(), Role: "user"}

	order := &models.Order{ID: primitive.NewObjectID(), User: owner, PaymentMethod: models.PaymentMethodStripe, TotalPrice: 31.60}
	store := newFakeOrderStore()
	store.put(order)

	provider := &fakeStripeClient{session: &stripe.CheckoutSession{ID: "cs_test_123", PaymentStatus: "paid", PaymentIntent: "pi_123"}}
	oc := NewOrderController(store, fakePricer{}, provider, nil, nil, "http://localhost:3000")

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPut, "/api/orders/x/confirm-payment",
		map[string]string{"sessionId": "cs_test_123"}, stranger, map[string]string{"id": order.ID.Hex()})
	oc.ConfirmPayment(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, store.markPaidCalls)
}

func TestConfirmPaymentAppliesSettlementOnce(t *testing.T) {
	owner := primitive.NewObjectID()
	claims := &utils.Claims{UserID: owner.Hex(), Email: "john@example.com", Role: "user"}

	order := &models.Order{ID: primitive.NewObjectID(), User: owner, PaymentMethod: models.PaymentMethodStripe, TotalPrice: 31.60}
	store := newFakeOrderStore()
	store.put(order)

	session := &stripe.CheckoutSession{ID: "cs_test_123", PaymentStatus: "paid", PaymentIntent: "pi_123"}
	session.CustomerDetails.Email = "john@example.com"
	provider := &fakeStripeClient{session: session}
	oc := NewOrderController(store, fakePricer{}, provider, nil, nil, "http://localhost:3000")

	confirm := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := authedRequest(t, http.MethodPut, "/api/orders/x/confirm-payment",
			map[string]string{"sessionId": "cs_test_123"}, claims, map[string]string{"id": order.ID.Hex()})
		oc.ConfirmPayment(rec, req)
		return rec
	}

	rec := confirm()
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.True(t, updated.IsPaid)
	require.NotNil(t, updated.PaymentResult)
	assert.Equal(t, "pi_123", updated.PaymentResult.ID)
	assert.Equal(t, "paid", updated.PaymentResult.Status)
	assert.Equal(t, models.PaymentMethodStripe, updated.PaymentResult.Method)
	assert.Equal(t, "john@example.com", updated.PaymentResult.EmailAddress)
	assert.InDelta(t, 31.60, updated.PaymentResult.AmountPaid, 1e-9)
	require.Equal(t, 1, store.markPaidCalls)

	// A repeated confirmation is a no-op success
	rec = confirm()
	require.Equal(t, http.StatusOK, rec.Code)

	var again models.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&again))
	assert.True(t, again.IsPaid)
	assert.Equal(t, updated.PaymentResult.ID, again.PaymentResult.ID)
	assert.Equal(t, 1, store.markPaidCalls, "settled order must short-circuit before the store transition")
}

func TestUpdateOrderToPaidLegacyFlow(t *testing.T) {
	owner := primitive.NewObjectID()
	claims := &utils.Claims{UserID: owner.Hex(), Role: "user"}

	order := &models.Order{ID: primitive.NewObjectID(), User: owner, PaymentMethod: models.PaymentMethodStripe, TotalPrice: 31.60}
	store := newFakeOrderStore()
	store.put(order)

	provider := &fakeStripeClient{}
	oc := NewOrderController(store, fakePricer{}, provider, nil, nil, "http://localhost:3000")

	body := map[string]interface{}{
		"paymentMethod":   models.PaymentMethodStripe,
		"paymentIntentId": "pi_legacy",
		"status":          "succeeded",
		"amount_paid":     31.60,
	}

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPut, "/api/orders/x/pay", body, claims, map[string]string{"id": order.ID.Hex()})
	oc.UpdateOrderToPaid(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.True(t, updated.IsPaid)
	require.NotNil(t, updated.PaymentResult)
	assert.Equal(t, "pi_legacy", updated.PaymentResult.ID)
	assert.Zero(t, provider.getCalls, "legacy flow must not consult the provider")
}

func TestUpdateOrderToDelivered(t *testing.T) {
	order := &models.Order{ID: primitive.NewObjectID(), User: primitive.NewObjectID(), IsPaid: true}
	store := newFakeOrderStore()
	store.put(order)

	oc := NewOrderController(store, fakePricer{}, &fakeStripeClient{}, nil, nil, "http://localhost:3000")

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPut, "/api/orders/x/deliver", nil,
		&utils.Claims{UserID: primitive.NewObjectID().Hex(), Role: "admin"}, map[string]string{"id": order.ID.Hex()})
	oc.UpdateOrderToDelivered(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.True(t, updated.IsDelivered)
	require.NotNil(t, updated.DeliveredAt)

	t.Run("unknown order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := authedRequest(t, http.MethodPut, "/api/orders/x/deliver", nil,
			&utils.Claims{Role: "admin"}, map[string]string{"id": primitive.NewObjectID().Hex()})
		oc.UpdateOrderToDelivered(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetMyOrdersReturnsOnlyOwn(t *testing.T) {
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	store := newFakeOrderStore()
	store.put(&models.Order{ID: primitive.NewObjectID(), User: alice, TotalPrice: 10})
	store.put(&models.Order{ID: primitive.NewObjectID(), User: alice, TotalPrice: 20})
	store.put(&models.Order{ID: primitive.NewObjectID(), User: bob, TotalPrice: 30})

	oc := NewOrderController(store, fakePricer{}, &fakeStripeClient{}, nil, nil, "http://localhost:3000")

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodGet, "/api/orders/myorders", nil, &utils.Claims{UserID: alice.Hex(), Role: "user"}, nil)
	oc.GetMyOrders(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var orders []models.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&orders))
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, alice, o.User)
	}
}

func TestAbsoluteImageURL(t *testing.T) {
	oc := &OrderController{FrontendURL: "http://localhost:3000"}

	assert.Equal(t, "http://localhost:3000/images/airpods.jpg", oc.absoluteImageURL("/images/airpods.jpg"))
	assert.Equal(t, "https://cdn.example.com/a.jpg", oc.absoluteImageURL("https://cdn.example.com/a.jpg"))
	assert.Empty(t, oc.absoluteImageURL(""))
	assert.Empty(t, oc.absoluteImageURL("images/relative.jpg"))
	assert.Empty(t, oc.absoluteImageURL("ftp://example.com/a.jpg"))
}
