// routes/routes.go
package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/congbach123/baccon-ecommerce/controllers"
	"github.com/congbach123/baccon-ecommerce/middleware"
)

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(
	router *mux.Router,
	userController *controllers.UserController,
	productController *controllers.ProductController,
	cartController *controllers.CartController,
	orderController *controllers.OrderController,
	uploadController *controllers.UploadController,
	uploadDir string,
) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Public routes
	api.HandleFunc("/users", userController.Register).Methods("POST")
	api.HandleFunc("/users/login", userController.Login).Methods("POST")
	api.HandleFunc("/products", productController.GetProducts).Methods("GET")
	api.HandleFunc("/products/top", productController.GetTopProducts).Methods("GET")
	api.HandleFunc("/products/{id}", productController.GetProductByID).Methods("GET")

	// Protected routes
	protected := api.PathPrefix("/").Subrouter()
	protected.Use(middleware.AuthMiddleware)

	protected.HandleFunc("/users/profile", userController.GetProfile).Methods("GET")
	protected.HandleFunc("/users/profile", userController.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/products/{id}/reviews", productController.CreateProductReview).Methods("POST")

	// Cart routes
	protected.HandleFunc("/cart", cartController.GetCart).Methods("GET")
	protected.HandleFunc("/cart", cartController.ClearCart).Methods("DELETE")
	protected.HandleFunc("/cart/items", cartController.AddItem).Methods("POST")
	protected.HandleFunc("/cart/items/{productId}", cartController.UpdateItemQuantity).Methods("PUT")
	protected.HandleFunc("/cart/items/{productId}", cartController.RemoveItem).Methods("DELETE")
	protected.HandleFunc("/cart/shipping", cartController.SaveShippingAddress).Methods("PUT")
	protected.HandleFunc("/cart/payment", cartController.SavePaymentMethod).Methods("PUT")

	// Order routes
	protected.HandleFunc("/orders", orderController.CreateOrder).Methods("POST")
	protected.HandleFunc("/orders/myorders", orderController.GetMyOrders).Methods("GET")
	protected.HandleFunc("/orders/{id}", orderController.GetOrderByID).Methods("GET")
	protected.HandleFunc("/orders/{id}/create-checkout-session", orderController.CreateCheckoutSession).Methods("POST")
	protected.HandleFunc("/orders/{id}/confirm-payment", orderController.ConfirmPayment).Methods("PUT")
	// Legacy payment route
	protected.HandleFunc("/orders/{id}/pay", orderController.UpdateOrderToPaid).Methods("PUT")

	// Admin routes
	admin := api.PathPrefix("/").Subrouter()
	admin.Use(middleware.AuthMiddleware)
	admin.Use(middleware.AdminMiddleware)

	admin.HandleFunc("/orders", orderController.GetAllOrders).Methods("GET")
	admin.HandleFunc("/orders/{id}/deliver", orderController.UpdateOrderToDelivered).Methods("PUT")
	admin.HandleFunc("/products", productController.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/{id}", productController.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id}", productController.DeleteProduct).Methods("DELETE")
	admin.HandleFunc("/users", userController.GetUsers).Methods("GET")
	admin.HandleFunc("/users/{id}", userController.GetUserByID).Methods("GET")
	admin.HandleFunc("/users/{id}", userController.UpdateUser).Methods("PUT")
	admin.HandleFunc("/users/{id}", userController.DeleteUser).Methods("DELETE")
	admin.HandleFunc("/upload", uploadController.UploadImage).Methods("POST")

	// Uploaded images are served statically
	router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))),
	)
}
