package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
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

// OrderController handles order-related requests
type OrderController struct {
	Client            *mongo.Client
	OrderCollection   *mongo.Collection
	CartCollection    *mongo.Collection
	ProductCollection *mongo.Collection
	UserCollection    *mongo.Collection
	EmailService      *utils.EmailService
}

// NewOrderController creates a new OrderController
func NewOrderController(client *mongo.Client, emailService *utils.EmailService) *OrderController {
	db := client.Database(utils.DatabaseName)
	return &OrderController{
		Client:            client,
		OrderCollection:   db.Collection("orders"),
		CartCollection:    db.Collection("carts"),
		ProductCollection: db.Collection("products"),
		UserCollection:    db.Collection("users"),
		EmailService:      emailService,
	}
}

// CreateOrder places an order from the caller's cart. The whole checkout
// runs in one transaction: every line's stock is re-validated and
// decremented with a {stock: {$gte: qty}} guard, the order is inserted with
// unit prices captured from the catalog, and the cart is emptied. If any
// line fails, the transaction aborts and no stock is touched, so two
// concurrent checkouts can never oversell.
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	session, err := oc.Client.StartSession()
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var cart models.Cart
		err := oc.CartCollection.FindOne(sc, bson.M{"user_id": userID}).Decode(&cart)
		if err == mongo.ErrNoDocuments {
			return nil, utils.ErrEmptyCart
		}
		if err != nil {
			return nil, err
		}
		if cart.IsEmpty() {
			return nil, utils.ErrEmptyCart
		}

		items := make([]models.OrderItem, 0, len(cart.Items))
		for _, line := range cart.Items {
			var product models.Product
			err := oc.ProductCollection.FindOne(sc, bson.M{"_id": line.ProductID}).Decode(&product)
			if err == mongo.ErrNoDocuments {
				return nil, fmt.Errorf("%w: product %s no longer exists", utils.ErrNotFound, line.ProductID.Hex())
			}
			if err != nil {
				return nil, err
			}

			// Conditional decrement: matches only while enough stock remains,
			// so stock can never go negative.
			res, err := oc.ProductCollection.UpdateOne(sc,
				bson.M{"_id": line.ProductID, "stock": bson.M{"$gte": line.Quantity}},
				bson.M{"$inc": bson.M{"stock": -line.Quantity}},
			)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, fmt.Errorf("%w for product %q", utils.ErrInsufficientStock, product.Name)
			}

			items = append(items, models.OrderItem{
				ProductID: line.ProductID,
				Name:      product.Name,
				Quantity:  line.Quantity,
				Price:     product.Price,
			})
		}

		now := time.Now()
		order := models.Order{
			UserID:        userID,
			Items:         items,
			TotalAmount:   models.OrderTotal(items),
			Status:        models.OrderPendingPayment,
			PaymentStatus: models.PaymentPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		insRes, err := oc.OrderCollection.InsertOne(sc, order)
		if err != nil {
			return nil, err
		}
		order.ID = insRes.InsertedID.(primitive.ObjectID)

		_, err = oc.CartCollection.UpdateOne(sc,
			bson.M{"_id": cart.ID},
			bson.M{"$set": bson.M{"items": []models.CartItem{}}},
		)
		if err != nil {
			return nil, err
		}

		return &order, nil
	})
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}
	order := result.(*models.Order)

	go oc.sendConfirmation(userID, order)

	utils.WriteJSON(w, http.StatusCreated, order)
}

// sendConfirmation emails the order owner. Failures are logged, never
// surfaced: the order is already placed.
func (oc *OrderController) sendConfirmation(userID primitive.ObjectID, order *models.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := oc.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		log.Printf("order %s: looking up user for confirmation email: %v", order.ID.Hex(), err)
		return
	}
	if err := oc.EmailService.SendOrderConfirmation(user.Email, user.Name, order.ID.Hex(), order.TotalAmount); err != nil {
		log.Printf("order %s: sending confirmation email to %s: %v", order.ID.Hex(), user.Email, err)
	}
}

// GetMyOrders lists the caller's orders, newest first
func (oc *OrderController) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	oc.listOrders(w, r, bson.M{"user_id": userID})
}

// GetOrders lists every order, newest first (Admin only)
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	oc.listOrders(w, r, bson.M{})
}

func (oc *OrderController) listOrders(w http.ResponseWriter, r *http.Request, filter bson.M) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var orders []models.Order
	err := findWithRetry(ctx, func() error {
		cursor, err := oc.OrderCollection.Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
		if err != nil {
			return err
		}
		orders = []models.Order{}
		return cursor.All(ctx, &orders)
	})
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}

	utils.WriteJSON(w, http.StatusOK, orders)
}

// GetOrderByID retrieves one order. Only the owner or an admin may see it.
func (oc *OrderController) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	order, err := oc.findOrder(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, utils.ErrUnauthorized)
		return
	}
	if claims.Role != models.RoleAdmin && order.UserID.Hex() != claims.UserID {
		utils.WriteError(w, fmt.Errorf("%w: not your order", utils.ErrForbidden))
		return
	}

	utils.WriteJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus advances the delivery state machine (Admin only).
// Accepted targets are shipped, delivered, and cancelled; out-of-order
// transitions are rejected.
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	order, err := oc.findOrder(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, fmt.Errorf("%w: malformed request body", utils.ErrInvalidInput))
		return
	}
	if !validDeliveryTarget(req.Status) {
		utils.WriteError(w, fmt.Errorf("%w: status must be one of %s, %s, %s", utils.ErrInvalidInput, models.OrderShipped, models.OrderDelivered, models.OrderCancelled))
		return
	}
	if !models.ValidStatusTransition(order.Status, req.Status) {
		utils.WriteError(w, fmt.Errorf("%w: %s -> %s", utils.ErrInvalidTransition, order.Status, req.Status))
		return
	}

	update := bson.M{"status": req.Status, "updated_at": time.Now()}
	if req.Status == models.OrderDelivered {
		update["delivered_at"] = time.Now()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// The filter pins the status we validated against, so a concurrent
	// transition makes this update a no-op instead of a double-apply.
	res, err := oc.OrderCollection.UpdateOne(ctx,
		bson.M{"_id": order.ID, "status": order.Status},
		bson.M{"$set": update},
	)
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}
	if res.MatchedCount == 0 {
		utils.WriteError(w, fmt.Errorf("%w: order status changed concurrently", utils.ErrInvalidTransition))
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Order status updated")
}

// UpdateOrderPayment records the payment outcome for an order in
// pending_payment. "completed" advances the order to paid; "failed" records
// the failure and leaves the order awaiting payment. Only the owner or an
// admin may report it.
func (oc *OrderController) UpdateOrderPayment(w http.ResponseWriter, r *http.Request) {
	order, err := oc.findOrder(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, utils.ErrUnauthorized)
		return
	}
	if claims.Role != models.RoleAdmin && order.UserID.Hex() != claims.UserID {
		utils.WriteError(w, fmt.Errorf("%w: not your order", utils.ErrForbidden))
		return
	}

	var req struct {
		PaymentStatus string `json:"paymentStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, fmt.Errorf("%w: malformed request body", utils.ErrInvalidInput))
		return
	}
	if req.PaymentStatus != models.PaymentCompleted && req.PaymentStatus != models.PaymentFailed {
		utils.WriteError(w, fmt.Errorf("%w: payment status must be %q or %q", utils.ErrInvalidInput, models.PaymentCompleted, models.PaymentFailed))
		return
	}
	if order.Status != models.OrderPendingPayment {
		utils.WriteError(w, fmt.Errorf("%w: order is %s, payment can only be reported while pending_payment", utils.ErrInvalidTransition, order.Status))
		return
	}

	now := time.Now()
	update := bson.M{"payment_status": req.PaymentStatus, "updated_at": now}
	if req.PaymentStatus == models.PaymentCompleted {
		update["status"] = models.OrderPaid
		update["paid_at"] = now
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := oc.OrderCollection.UpdateOne(ctx,
		bson.M{"_id": order.ID, "status": models.OrderPendingPayment},
		bson.M{"$set": update},
	)
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}
	if res.MatchedCount == 0 {
		utils.WriteError(w, fmt.Errorf("%w: order status changed concurrently", utils.ErrInvalidTransition))
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Payment status updated")
}

// validDeliveryTarget reports whether the admin status endpoint may set s.
// paid is deliberately excluded: only the payment flow moves an order out
// of pending_payment, and it stamps payment_status and paid_at alongside.
func validDeliveryTarget(s string) bool {
	switch s {
	case models.OrderShipped, models.OrderDelivered, models.OrderCancelled:
		return true
	}
	return false
}

// findOrder resolves the {id} path variable to a stored order.
func (oc *OrderController) findOrder(r *http.Request) (*models.Order, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid order ID", utils.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var order models.Order
	err = oc.OrderCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: order not found", utils.ErrNotFound)
	}
	if err != nil {
		return nil, utils.StoreError(err)
	}
	return &order, nil
}
