package cart

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/congbach123/baccon-ecommerce/models"
	"github.com/congbach123/baccon-ecommerce/utils"
)

// ErrItemNotFound is returned when a mutation targets a product that is
// not in the cart.
var ErrItemNotFound = errors.New("item not found in cart")

// Item is one product selection in a cart
type Item struct {
	Product      primitive.ObjectID `bson:"product" json:"product"`
	Name         string             `bson:"name" json:"name"`
	Image        string             `bson:"image" json:"image"`
	Price        float64            `bson:"price" json:"price"`
	Qty          int                `bson:"qty" json:"qty"`
	CountInStock int                `bson:"countInStock" json:"countInStock"`
}

// State is the full cart state. Every price field is derived from Items;
// none is ever set directly.
type State struct {
	Items           []Item                 `bson:"items" json:"cartItems"`
	CartCount       int                    `bson:"cartCount" json:"cartCount"`
	ItemsPrice      float64                `bson:"itemsPrice" json:"itemsPrice"`
	ShippingPrice   float64                `bson:"shippingPrice" json:"shippingPrice"`
	TaxPrice        float64                `bson:"taxPrice" json:"taxPrice"`
	TotalPrice      float64                `bson:"totalPrice" json:"totalPrice"`
	ShippingAddress models.ShippingAddress `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   string                 `bson:"paymentMethod" json:"paymentMethod"`
}

// Ledger mutates cart state and recomputes the derived totals on every
// change. Persistence goes through the injected Store, so the same ledger
// runs against memory in tests and MongoDB in production.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Get loads the cart for a user, returning the empty shape if none exists
func (l *Ledger) Get(ctx context.Context, userID string) (*State, error) {
	return l.store.Load(ctx, userID)
}

// AddItem adds a product to the cart. If the product is already present
// its line is replaced by the new selection.
func (l *Ledger) AddItem(ctx context.Context, userID string, item Item) (*State, error) {
	return l.mutate(ctx, userID, func(s *State) error {
		for i := range s.Items {
			if s.Items[i].Product == item.Product {
				s.Items[i] = item
				return nil
			}
		}
		s.Items = append(s.Items, item)
		return nil
	})
}

// UpdateQuantity changes the quantity of an existing cart line
func (l *Ledger) UpdateQuantity(ctx context.Context, userID string, productID primitive.ObjectID, qty int) (*State, error) {
	return l.mutate(ctx, userID, func(s *State) error {
		for i := range s.Items {
			if s.Items[i].Product == productID {
				s.Items[i].Qty = qty
				return nil
			}
		}
		return ErrItemNotFound
	})
}

// RemoveItem drops a product from the cart
func (l *Ledger) RemoveItem(ctx context.Context, userID string, productID primitive.ObjectID) (*State, error) {
	return l.mutate(ctx, userID, func(s *State) error {
		kept := s.Items[:0]
		for _, it := range s.Items {
			if it.Product != productID {
				kept = append(kept, it)
			}
		}
		s.Items = kept
		return nil
	})
}

// SaveShippingAddress stores the pending shipping address
func (l *Ledger) SaveShippingAddress(ctx context.Context, userID string, addr models.ShippingAddress) (*State, error) {
	return l.mutate(ctx, userID, func(s *State) error {
		s.ShippingAddress = addr
		return nil
	})
}

// SavePaymentMethod stores the pending payment method selection
func (l *Ledger) SavePaymentMethod(ctx context.Context, userID string, method string) (*State, error) {
	return l.mutate(ctx, userID, func(s *State) error {
		s.PaymentMethod = method
		return nil
	})
}

// Clear resets the cart to the empty shape, zeroed totals included
func (l *Ledger) Clear(ctx context.Context, userID string) (*State, error) {
	if err := l.store.Clear(ctx, userID); err != nil {
		return nil, err
	}
	s := emptyState()
	return &s, nil
}

func (l *Ledger) mutate(ctx context.Context, userID string, fn func(*State) error) (*State, error) {
	state, err := l.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	recompute(state)
	if err := l.store.Save(ctx, userID, state); err != nil {
		return nil, err
	}
	return state, nil
}

func recompute(s *State) {
	count := 0
	subtotal := 0.0
	for _, it := range s.Items {
		count += it.Qty
		subtotal += it.Price * float64(it.Qty)
	}

	bd := utils.ComputeBreakdown(subtotal)

	s.CartCount = count
	s.ItemsPrice = bd.ItemsPrice
	s.ShippingPrice = bd.ShippingPrice
	s.TaxPrice = bd.TaxPrice
	s.TotalPrice = bd.TotalPrice
}

func emptyState() State {
	return State{Items: []Item{}}
}
