package models

// Payment method tags recognized at order creation. Stripe orders go
// through the hosted checkout session; COD orders skip online payment.
const (
	PaymentMethodStripe = "stripe"
	PaymentMethodCOD    = "COD"
)

// PaymentResult records the provider's settlement verdict on an order.
// Method distinguishes the provider-verified path ("stripe") from the
// legacy caller-supplied payload.
type PaymentResult struct {
	ID           string  `bson:"id" json:"id"`
	Status       string  `bson:"status" json:"status"`
	UpdateTime   string  `bson:"update_time" json:"update_time"`
	EmailAddress string  `bson:"email_address,omitempty" json:"email_address,omitempty"`
	Method       string  `bson:"method,omitempty" json:"method,omitempty"`
	AmountPaid   float64 `bson:"amount_paid,omitempty" json:"amount_paid,omitempty"`
}
