package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. Orders move pending_payment -> paid -> shipped ->
// delivered; cancellation is possible until the order ships.
const (
	OrderPendingPayment = "pending_payment"
	OrderPaid           = "paid"
	OrderShipped        = "shipped"
	OrderDelivered      = "delivered"
	OrderCancelled      = "cancelled"
)

// Payment statuses
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// OrderItem is a cart line frozen at checkout time: the unit price is the
// catalog price at the moment the order was placed and never changes
// afterwards.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"` // unit price at order time
}

// Order represents a user's order
type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	UserID        primitive.ObjectID `bson:"user_id" json:"userId"`
	Items         []OrderItem        `bson:"items" json:"items"`
	TotalAmount   float64            `bson:"total_amount" json:"totalAmount"`
	Status        string             `bson:"status" json:"status"`
	PaymentStatus string             `bson:"payment_status" json:"paymentStatus"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
	PaidAt        *time.Time         `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	DeliveredAt   *time.Time         `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`
}

// OrderTotal sums price*quantity over the items, rounded to cents.
func OrderTotal(items []OrderItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return math.Round(total*100) / 100
}

// ValidStatusTransition reports whether an order may move from one status
// to another. Delivery advances strictly in sequence; cancellation is only
// reachable before shipping.
func ValidStatusTransition(from, to string) bool {
	switch from {
	case OrderPendingPayment:
		return to == OrderPaid || to == OrderCancelled
	case OrderPaid:
		return to == OrderShipped || to == OrderCancelled
	case OrderShipped:
		return to == OrderDelivered
	default:
		return false
	}
}
