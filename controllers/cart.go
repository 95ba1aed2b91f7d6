package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecommerce-backend/middleware"
	"ecommerce-backend/models"
	"ecommerce-backend/utils"
)

// CartController handles cart-related requests
type CartController struct {
	Collection        *mongo.Collection
	ProductCollection *mongo.Collection
}

// NewCartController creates a new CartController
func NewCartController(client *mongo.Client) *CartController {
	db := client.Database(utils.DatabaseName)
	return &CartController{
		Collection:        db.Collection("carts"),
		ProductCollection: db.Collection("products"),
	}
}

// callerID resolves the authenticated user's id from the token claims.
func callerID(r *http.Request) (primitive.ObjectID, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return primitive.NilObjectID, utils.ErrUnauthorized
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, utils.ErrUnauthorized
	}
	return id, nil
}

// loadCart fetches the user's cart, creating an empty one on first use.
// Cart existence is implicit: no endpoint provisions a cart explicitly.
func (cc *CartController) loadCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := cc.Collection.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$setOnInsert": bson.M{"user_id": userID, "items": []models.CartItem{}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&cart)
	if err != nil {
		return nil, utils.StoreError(err)
	}
	return &cart, nil
}

// saveItems persists the cart's line items.
func (cc *CartController) saveItems(ctx context.Context, cart *models.Cart) error {
	_, err := cc.Collection.UpdateOne(ctx,
		bson.M{"_id": cart.ID},
		bson.M{"$set": bson.M{"items": cart.Items}},
	)
	return utils.StoreError(err)
}

// GetCart retrieves the user's cart
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cart, err := cc.loadCart(ctx, userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

// AddToCart adds a product to the user's cart, merging with an existing
// line for the same product. Stock is checked but not reserved: the
// authoritative check happens again at checkout.
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, fmt.Errorf("%w: malformed request body", utils.ErrInvalidInput))
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		utils.WriteError(w, fmt.Errorf("%w: invalid product ID", utils.ErrInvalidInput))
		return
	}
	if req.Quantity <= 0 {
		utils.WriteError(w, fmt.Errorf("%w: quantity must be positive", utils.ErrInvalidInput))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var product models.Product
	err = cc.ProductCollection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		utils.WriteError(w, fmt.Errorf("%w: product not found", utils.ErrNotFound))
		return
	}
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}

	cart, err := cc.loadCart(ctx, userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	wanted := req.Quantity
	if item := cart.Item(productID); item != nil {
		wanted += item.Quantity
	}
	if wanted > product.Stock {
		utils.WriteError(w, fmt.Errorf("%w for product %q: %d in stock", utils.ErrInsufficientStock, product.Name, product.Stock))
		return
	}

	cart.AddItem(productID, req.Quantity)
	if err := cc.saveItems(ctx, cart); err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, cart)
}

// UpdateCartItem sets the quantity of an existing cart line. A quantity of
// zero or less removes the line.
func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		utils.WriteError(w, fmt.Errorf("%w: invalid product ID", utils.ErrInvalidInput))
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, fmt.Errorf("%w: malformed request body", utils.ErrInvalidInput))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cart, err := cc.loadCart(ctx, userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if cart.Item(productID) == nil {
		utils.WriteError(w, fmt.Errorf("%w: product not in cart", utils.ErrNotFound))
		return
	}

	if req.Quantity > 0 {
		var product models.Product
		err = cc.ProductCollection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			utils.WriteError(w, fmt.Errorf("%w: product not found", utils.ErrNotFound))
			return
		}
		if err != nil {
			utils.WriteError(w, utils.StoreError(err))
			return
		}
		if req.Quantity > product.Stock {
			utils.WriteError(w, fmt.Errorf("%w for product %q: %d in stock", utils.ErrInsufficientStock, product.Name, product.Stock))
			return
		}
	}

	cart.SetQuantity(productID, req.Quantity)
	if err := cc.saveItems(ctx, cart); err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, cart)
}

// RemoveFromCart removes a product from the user's cart. Removing a product
// that is not in the cart is a no-op, not an error.
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		utils.WriteError(w, fmt.Errorf("%w: invalid product ID", utils.ErrInvalidInput))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cart, err := cc.loadCart(ctx, userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	if cart.RemoveItem(productID) {
		if err := cc.saveItems(ctx, cart); err != nil {
			utils.WriteError(w, err)
			return
		}
	}

	utils.WriteJSON(w, http.StatusOK, cart)
}
