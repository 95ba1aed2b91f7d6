// routes/routes.go
package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"ecommerce-backend/controllers"
	"ecommerce-backend/middleware"
	"ecommerce-backend/utils"
)

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, userController *controllers.UserController, productController *controllers.ProductController, cartController *controllers.CartController, orderController *controllers.OrderController, limiter *middleware.RateLimiter) {
	router.HandleFunc("/", home).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	// Public user routes, throttled per source address
	api.Handle("/users/register", limiter.Middleware(http.HandlerFunc(userController.Register))).Methods("POST")
	api.Handle("/users/login", limiter.Middleware(http.HandlerFunc(userController.Login))).Methods("POST")

	// Protected user routes
	profile := api.PathPrefix("/users").Subrouter()
	profile.Use(middleware.AuthMiddleware)
	profile.HandleFunc("/profile", userController.GetProfile).Methods("GET")
	profile.HandleFunc("/profile", userController.UpdateProfile).Methods("PUT")

	adminUsers := api.PathPrefix("/users").Subrouter()
	adminUsers.Use(middleware.AuthMiddleware, middleware.AdminMiddleware)
	adminUsers.HandleFunc("", userController.GetUsers).Methods("GET")

	// Public product routes
	api.HandleFunc("/products", productController.GetProducts).Methods("GET")
	api.HandleFunc("/products/{id}", productController.GetProductByID).Methods("GET")

	// Admin product routes
	adminProducts := api.PathPrefix("/products").Subrouter()
	adminProducts.Use(middleware.AuthMiddleware, middleware.AdminMiddleware)
	adminProducts.HandleFunc("", productController.CreateProduct).Methods("POST")
	adminProducts.HandleFunc("/{id}", productController.UpdateProduct).Methods("PUT")
	adminProducts.HandleFunc("/{id}", productController.DeleteProduct).Methods("DELETE")

	// Cart routes
	cart := api.PathPrefix("/cart").Subrouter()
	cart.Use(middleware.AuthMiddleware)
	cart.HandleFunc("", cartController.GetCart).Methods("GET")
	cart.HandleFunc("", cartController.AddToCart).Methods("POST")
	cart.HandleFunc("/{productId}", cartController.UpdateCartItem).Methods("PUT")
	cart.HandleFunc("/{productId}", cartController.RemoveFromCart).Methods("DELETE")

	// Order routes
	orders := api.PathPrefix("/orders").Subrouter()
	orders.Use(middleware.AuthMiddleware)
	orders.Handle("", limiter.Middleware(http.HandlerFunc(orderController.CreateOrder))).Methods("POST")
	orders.HandleFunc("/myorders", orderController.GetMyOrders).Methods("GET")
	orders.HandleFunc("/{id}", orderController.GetOrderByID).Methods("GET")
	orders.HandleFunc("/{id}/payment", orderController.UpdateOrderPayment).Methods("PUT")

	adminOrders := api.PathPrefix("/orders").Subrouter()
	adminOrders.Use(middleware.AuthMiddleware, middleware.AdminMiddleware)
	adminOrders.HandleFunc("", orderController.GetOrders).Methods("GET")
	adminOrders.HandleFunc("/{id}/status", orderController.UpdateOrderStatus).Methods("PUT")
}

// home answers the root path with a quick index of the API.
func home(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Welcome to E-Commerce API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"users":    "/api/users",
			"products": "/api/products",
			"cart":     "/api/cart",
			"orders":   "/api/orders",
		},
	})
}
