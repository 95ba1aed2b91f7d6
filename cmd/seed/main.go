// Seeds the database with sample users and products for local development.
// Existing users and products are dropped first.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"ecommerce-backend/models"
	"ecommerce-backend/utils"
)

type seedUser struct {
	user     models.User
	password string
}

var sampleUsers = []seedUser{
	{
		user: models.User{
			Name:  "Admin User",
			Email: "admin@example.com",
			Role:  models.RoleAdmin,
		},
		password: "admin123",
	},
	{
		user: models.User{
			Name:  "John Doe",
			Email: "john@example.com",
			Role:  models.RoleCustomer,
			Address: models.Address{
				Street:  "123 Main St",
				City:    "New York",
				State:   "NY",
				ZipCode: "10001",
				Country: "USA",
			},
			Phone: "555-0123",
		},
		password: "password123",
	},
	{
		user: models.User{
			Name:  "Jane Smith",
			Email: "jane@example.com",
			Role:  models.RoleCustomer,
			Address: models.Address{
				Street:  "456 Oak Ave",
				City:    "Los Angeles",
				State:   "CA",
				ZipCode: "90001",
				Country: "USA",
			},
			Phone: "555-0124",
		},
		password: "password123",
	},
}

var sampleProducts = []models.Product{
	{
		Name:        "MacBook Pro 16\"",
		Description: "Powerful laptop with M2 Pro chip, 16GB RAM, 512GB SSD",
		Price:       2499.99,
		Category:    "electronics",
		Stock:       15,
		Brand:       "Apple",
		Rating:      4.8,
		NumReviews:  245,
		Images:      []string{"https://example.com/macbook1.jpg", "https://example.com/macbook2.jpg"},
	},
	{
		Name:        "iPhone 15 Pro",
		Description: "Latest iPhone with A17 Pro chip, 256GB storage",
		Price:       1199.99,
		Category:    "electronics",
		Stock:       30,
		Brand:       "Apple",
		Rating:      4.9,
		NumReviews:  512,
	},
	{
		Name:        "Sony WH-1000XM5",
		Description: "Premium noise-cancelling wireless headphones",
		Price:       399.99,
		Category:    "electronics",
		Stock:       50,
		Brand:       "Sony",
		Rating:      4.7,
		NumReviews:  328,
	},
	{
		Name:        "Nike Air Max",
		Description: "Comfortable running shoes with excellent cushioning",
		Price:       129.99,
		Category:    "sports",
		Stock:       100,
		Brand:       "Nike",
		Rating:      4.5,
		NumReviews:  189,
	},
	{
		Name:        "Levi's 501 Jeans",
		Description: "Classic straight fit jeans",
		Price:       69.99,
		Category:    "clothing",
		Stock:       75,
		Brand:       "Levi's",
		Rating:      4.4,
		NumReviews:  97,
	},
	{
		Name:        "The Pragmatic Programmer",
		Description: "Your journey to mastery, 20th anniversary edition",
		Price:       39.99,
		Category:    "books",
		Stock:       40,
		Brand:       "Addison-Wesley",
		Rating:      4.8,
		NumReviews:  156,
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	client := utils.ConnectDB()
	defer client.Disconnect(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.Database(utils.DatabaseName)
	users := db.Collection("users")
	products := db.Collection("products")

	if err := users.Drop(ctx); err != nil {
		log.Fatalf("Dropping users: %v", err)
	}
	if err := products.Drop(ctx); err != nil {
		log.Fatalf("Dropping products: %v", err)
	}
	if err := utils.EnsureIndexes(ctx, client); err != nil {
		log.Fatalf("Creating indexes: %v", err)
	}

	now := time.Now()
	for _, s := range sampleUsers {
		hashed, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Hashing password for %s: %v", s.user.Email, err)
		}
		u := s.user
		u.Password = string(hashed)
		u.CreatedAt = now
		u.UpdatedAt = now
		res, err := users.InsertOne(ctx, u)
		if err != nil {
			log.Fatalf("Inserting user %s: %v", u.Email, err)
		}
		log.Printf("Seeded user %s (%s)", u.Email, res.InsertedID.(primitive.ObjectID).Hex())
	}

	for _, p := range sampleProducts {
		p.CreatedAt = now
		p.UpdatedAt = now
		if _, err := products.InsertOne(ctx, p); err != nil {
			log.Fatalf("Inserting product %s: %v", p.Name, err)
		}
	}
	log.Printf("Seeded %d products", len(sampleProducts))
}
