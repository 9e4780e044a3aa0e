// Seeds the database with sample users and products. Destructive: wipes
// the users, products, orders and carts collections first.
package main

import (
	"context"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/congbach123/baccon-ecommerce/config"
	"github.com/congbach123/baccon-ecommerce/models"
	"github.com/congbach123/baccon-ecommerce/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatal("Failed to parse config:", err)
	}

	client := utils.ConnectDB(cfg.Mongo.URI)
	defer client.Disconnect(context.TODO())

	db := client.Database(cfg.Mongo.Database)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, name := range []string{"users", "products", "orders", "carts"} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			log.Fatalf("Failed to drop %s: %v", name, err)
		}
	}

	users := []interface{}{
		seedUser("Admin User", "admin@example.com", "123456", "admin"),
		seedUser("John Doe", "john@example.com", "123456", "user"),
		seedUser("Jane Doe", "jane@example.com", "123456", "user"),
	}
	if _, err := db.Collection("users").InsertMany(ctx, users); err != nil {
		log.Fatal("Failed to seed users:", err)
	}

	products := []interface{}{
		seedProduct("Airpods Wireless Bluetooth Headphones", "/images/airpods.jpg", "Apple", "Electronics", 89.99, 10),
		seedProduct("iPhone 13 Pro 256GB Memory", "/images/phone.jpg", "Apple", "Electronics", 599.99, 7),
		seedProduct("Cannon EOS 80D DSLR Camera", "/images/camera.jpg", "Cannon", "Electronics", 929.99, 5),
		seedProduct("Sony Playstation 5", "/images/playstation.jpg", "Sony", "Electronics", 399.99, 11),
		seedProduct("Logitech G-Series Gaming Mouse", "/images/mouse.jpg", "Logitech", "Electronics", 49.99, 7),
		seedProduct("Amazon Echo Dot 3rd Generation", "/images/alexa.jpg", "Amazon", "Electronics", 29.99, 0),
	}
	if _, err := db.Collection("products").InsertMany(ctx, products); err != nil {
		log.Fatal("Failed to seed products:", err)
	}

	log.Println("Data seeded")
}

func seedUser(name, email, password, role string) models.User {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}
	return models.User{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
}

func seedProduct(name, image, brand, category string, price float64, stock int) models.Product {
	return models.Product{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Image:        image,
		Brand:        brand,
		Category:     category,
		Description:  "Sample description",
		Price:        price,
		CountInStock: stock,
		Reviews:      []models.Review{},
		CreatedAt:    time.Now(),
	}
}
