// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/congbach123/baccon-ecommerce/cart"
	"github.com/congbach123/baccon-ecommerce/config"
	"github.com/congbach123/baccon-ecommerce/controllers"
	"github.com/congbach123/baccon-ecommerce/repository"
	"github.com/congbach123/baccon-ecommerce/routes"
	"github.com/congbach123/baccon-ecommerce/stripe"
	"github.com/congbach123/baccon-ecommerce/utils"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatal("Failed to parse config:", err)
	}

	// Set the JWT secret key
	utils.JwtKey = []byte(cfg.JWTSecret)

	// Connect to MongoDB
	client := utils.ConnectDB(cfg.Mongo.URI)
	defer func() {
		if err := client.Disconnect(context.TODO()); err != nil {
			log.Fatal(err)
		}
	}()

	// Initialize services
	var emailService *utils.EmailService
	if cfg.Postmark.APIToken != "" {
		emailService = utils.NewEmailService(cfg.Postmark.APIToken, cfg.Postmark.Sender)
	} else {
		log.Println("POSTMARK_API_TOKEN not set, order receipts disabled")
	}
	stripeClient := stripe.NewClient(&cfg.Stripe)

	orderStore := repository.NewOrderStore(client, cfg.Mongo.Database)
	productPricer := repository.NewProductPricer(client, cfg.Mongo.Database)
	cartLedger := cart.NewLedger(cart.NewMongoStore(client, cfg.Mongo.Database))

	// Initialize controllers
	userController := controllers.NewUserController(client, cfg.Mongo.Database)
	productController := controllers.NewProductController(client, cfg.Mongo.Database)
	cartController := controllers.NewCartController(cartLedger, client, cfg.Mongo.Database)
	orderController := controllers.NewOrderController(orderStore, productPricer, stripeClient, cartLedger, emailService, cfg.FrontendURL)
	uploadController := controllers.NewUploadController(cfg.UploadDir)

	// Set up the router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, userController, productController, cartController, orderController, uploadController, cfg.UploadDir)

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	log.Println("Server is running on", addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("HTTP server shutdown error:", err)
	}
}
