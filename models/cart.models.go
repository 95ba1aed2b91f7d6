package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem represents a line in the cart: one product and a positive quantity.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Cart represents a user's shopping cart. Each user owns at most one cart,
// and a cart holds at most one line per distinct product.
type Cart struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	UserID primitive.ObjectID `bson:"user_id" json:"userId"`
	Items  []CartItem         `bson:"items" json:"items"`
}

// Item returns the line for productID, or nil if the cart has none.
func (c *Cart) Item(productID primitive.ObjectID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// AddItem merges quantity into the cart: an existing line for the product is
// incremented, otherwise a new line is appended. Returns the resulting
// quantity of the line.
func (c *Cart) AddItem(productID primitive.ObjectID, quantity int) int {
	if item := c.Item(productID); item != nil {
		item.Quantity += quantity
		return item.Quantity
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: quantity})
	return quantity
}

// SetQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line. Returns false if the cart has no line for the
// product.
func (c *Cart) SetQuantity(productID primitive.ObjectID, quantity int) bool {
	if c.Item(productID) == nil {
		return false
	}
	if quantity <= 0 {
		c.RemoveItem(productID)
		return true
	}
	c.Item(productID).Quantity = quantity
	return true
}

// RemoveItem deletes the line for productID. Removing an absent line is a
// no-op; the returned bool reports whether a line was removed.
func (c *Cart) RemoveItem(productID primitive.ObjectID) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// IsEmpty reports whether the cart holds no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
