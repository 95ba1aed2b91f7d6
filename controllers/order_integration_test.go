//go:build integration

package controllers

// Checkout tests that need a real store. They run only with
// -tags integration and MONGODB_URI pointing at a MongoDB replica set
// (transactions do not work on a standalone server). Test documents are
// keyed by fresh ObjectIDs and removed afterwards.

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecommerce-backend/middleware"
	"ecommerce-backend/models"
	"ecommerce-backend/utils"
)

func integrationClient(t *testing.T) *mongo.Client {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping store-coupled tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connecting to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("pinging MongoDB: %v", err)
	}
	t.Cleanup(func() {
		client.Disconnect(context.Background())
	})
	return client
}

// checkoutRequest builds POST /api/orders authenticated as userID.
func checkoutRequest(userID primitive.ObjectID) *http.Request {
	req := httptest.NewRequest("POST", "/api/orders", nil)
	claims := &utils.Claims{UserID: userID.Hex(), Role: models.RoleCustomer}
	return req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))
}

func seedProduct(t *testing.T, db *mongo.Database, stock int, price float64) primitive.ObjectID {
	t.Helper()
	product := models.Product{
		Name:      "Checkout Test Product",
		Price:     price,
		Category:  "other",
		Stock:     stock,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	res, err := db.Collection("products").InsertOne(context.Background(), product)
	if err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	id := res.InsertedID.(primitive.ObjectID)
	t.Cleanup(func() {
		db.Collection("products").DeleteOne(context.Background(), bson.M{"_id": id})
	})
	return id
}

func seedCart(t *testing.T, db *mongo.Database, userID primitive.ObjectID, items []models.CartItem) {
	t.Helper()
	if items == nil {
		items = []models.CartItem{}
	}
	_, err := db.Collection("carts").InsertOne(context.Background(), models.Cart{UserID: userID, Items: items})
	if err != nil {
		t.Fatalf("seeding cart: %v", err)
	}
	t.Cleanup(func() {
		db.Collection("carts").DeleteOne(context.Background(), bson.M{"user_id": userID})
		db.Collection("orders").DeleteMany(context.Background(), bson.M{"user_id": userID})
	})
}

func productStock(t *testing.T, db *mongo.Database, id primitive.ObjectID) int {
	t.Helper()
	var product models.Product
	if err := db.Collection("products").FindOne(context.Background(), bson.M{"_id": id}).Decode(&product); err != nil {
		t.Fatalf("reading product back: %v", err)
	}
	return product.Stock
}

func TestCheckoutEmptyCartTouchesNoStock(t *testing.T) {
	client := integrationClient(t)
	db := client.Database(utils.DatabaseName)
	oc := NewOrderController(client, utils.NewEmailService())

	userID := primitive.NewObjectID()
	productID := seedProduct(t, db, 5, 10.00)
	seedCart(t, db, userID, nil)

	rec := httptest.NewRecorder()
	oc.CreateOrder(rec, checkoutRequest(userID))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d: %s", rec.Code, rec.Body.String())
	}
	if stock := productStock(t, db, productID); stock != 5 {
		t.Fatalf("empty-cart checkout must not touch stock: expected 5, got %d", stock)
	}
}

func TestCheckoutCapturesPricesAndClearsCart(t *testing.T) {
	client := integrationClient(t)
	db := client.Database(utils.DatabaseName)
	oc := NewOrderController(client, utils.NewEmailService())

	userID := primitive.NewObjectID()
	productID := seedProduct(t, db, 5, 10.00)
	seedCart(t, db, userID, []models.CartItem{{ProductID: productID, Quantity: 3}})

	rec := httptest.NewRecorder()
	oc.CreateOrder(rec, checkoutRequest(userID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var order models.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &order); err != nil {
		t.Fatalf("decoding order: %v", err)
	}
	if order.TotalAmount != 30.00 {
		t.Fatalf("expected total 30.00, got %v", order.TotalAmount)
	}
	if len(order.Items) != 1 || order.Items[0].Price != 10.00 || order.Items[0].Quantity != 3 {
		t.Fatalf("expected one captured line 3 x 10.00, got %+v", order.Items)
	}
	if order.Status != models.OrderPendingPayment || order.PaymentStatus != models.PaymentPending {
		t.Fatalf("expected fresh order in pending_payment/pending, got %s/%s", order.Status, order.PaymentStatus)
	}
	if stock := productStock(t, db, productID); stock != 2 {
		t.Fatalf("expected stock to drop to 2, got %d", stock)
	}

	var cart models.Cart
	if err := db.Collection("carts").FindOne(context.Background(), bson.M{"user_id": userID}).Decode(&cart); err != nil {
		t.Fatalf("reading cart back: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatalf("expected cart to be cleared, got %d lines", len(cart.Items))
	}

	// the cart is now empty, so re-running the same checkout fails
	rec = httptest.NewRecorder()
	oc.CreateOrder(rec, checkoutRequest(userID))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 re-running checkout on cleared cart, got %d", rec.Code)
	}
	if stock := productStock(t, db, productID); stock != 2 {
		t.Fatalf("re-run must not touch stock: expected 2, got %d", stock)
	}
}

func TestConcurrentCheckoutNeverOversells(t *testing.T) {
	client := integrationClient(t)
	db := client.Database(utils.DatabaseName)
	oc := NewOrderController(client, utils.NewEmailService())

	// Two carts that together demand 6 of a stock of 5: at most one
	// checkout may succeed and stock must never go negative.
	productID := seedProduct(t, db, 5, 10.00)
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()
	seedCart(t, db, userA, []models.CartItem{{ProductID: productID, Quantity: 3}})
	seedCart(t, db, userB, []models.CartItem{{ProductID: productID, Quantity: 3}})

	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i, userID := range []primitive.ObjectID{userA, userB} {
		wg.Add(1)
		go func(i int, userID primitive.ObjectID) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			oc.CreateOrder(rec, checkoutRequest(userID))
			codes[i] = rec.Code
		}(i, userID)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
		} else if code != http.StatusBadRequest {
			t.Fatalf("expected 201 or 400 from racing checkouts, got %v", codes)
		}
	}
	if created > 1 {
		t.Fatalf("both checkouts succeeded against stock for one: %v", codes)
	}

	stock := productStock(t, db, productID)
	if stock < 0 {
		t.Fatalf("stock went negative: %d", stock)
	}
	if want := 5 - 3*created; stock != want {
		t.Fatalf("expected stock %d after %d successful checkout(s), got %d", want, created, stock)
	}
}
