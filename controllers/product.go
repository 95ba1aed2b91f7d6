package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecommerce-backend/models"
	"ecommerce-backend/utils"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ProductController handles product-related requests
type ProductController struct {
	Collection *mongo.Collection
}

// NewProductController creates a new ProductController
func NewProductController(client *mongo.Client) *ProductController {
	collection := client.Database(utils.DatabaseName).Collection("products")
	return &ProductController{
		Collection: collection,
	}
}

// productPage is the paginated listing response.
type productPage struct {
	Products []models.Product `json:"products"`
	Page     int64            `json:"page"`
	Pages    int64            `json:"pages"`
	Total    int64            `json:"total"`
}

func validateProduct(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", utils.ErrInvalidInput)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", utils.ErrInvalidInput)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", utils.ErrInvalidInput)
	}
	if !models.ValidCategory(p.Category) {
		return fmt.Errorf("%w: category must be one of %s", utils.ErrInvalidInput, strings.Join(models.ProductCategories, ", "))
	}
	return nil
}

// GetProducts lists products with optional keyword and category filters and
// page/limit pagination. Public.
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := bson.M{}
	if keyword := strings.TrimSpace(query.Get("keyword")); keyword != "" {
		filter["name"] = bson.M{"$regex": keyword, "$options": "i"}
	}
	if category := query.Get("category"); category != "" {
		filter["category"] = category
	}

	page, _ := strconv.ParseInt(query.Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.ParseInt(query.Get("limit"), 10, 64)
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var total int64
	var products []models.Product
	err := findWithRetry(ctx, func() error {
		var err error
		total, err = pc.Collection.CountDocuments(ctx, filter)
		if err != nil {
			return err
		}
		cursor, err := pc.Collection.Find(ctx, filter, options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip((page-1)*limit).
			SetLimit(limit))
		if err != nil {
			return err
		}
		products = []models.Product{}
		return cursor.All(ctx, &products)
	})
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}

	pages := (total + limit - 1) / limit
	utils.WriteJSON(w, http.StatusOK, productPage{
		Products: products,
		Page:     page,
		Pages:    pages,
		Total:    total,
	})
}

// GetProductByID retrieves a single product. Public.
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, fmt.Errorf("%w: invalid product ID", utils.ErrInvalidInput))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var product models.Product
	err = pc.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		utils.WriteError(w, fmt.Errorf("%w: product not found", utils.ErrNotFound))
		return
	}
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}

	utils.WriteJSON(w, http.StatusOK, product)
}

// CreateProduct adds a new catalog entry (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		utils.WriteError(w, fmt.Errorf("%w: malformed request body", utils.ErrInvalidInput))
		return
	}
	if err := validateProduct(&product); err != nil {
		utils.WriteError(w, err)
		return
	}

	product.ID = primitive.NilObjectID
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := pc.Collection.InsertOne(ctx, product)
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}
	product.ID = result.InsertedID.(primitive.ObjectID)

	utils.WriteJSON(w, http.StatusCreated, product)
}

// UpdateProduct replaces a product's mutable fields (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, fmt.Errorf("%w: invalid product ID", utils.ErrInvalidInput))
		return
	}

	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		utils.WriteError(w, fmt.Errorf("%w: malformed request body", utils.ErrInvalidInput))
		return
	}
	if err := validateProduct(&product); err != nil {
		utils.WriteError(w, err)
		return
	}

	update := bson.M{"$set": bson.M{
		"name":        product.Name,
		"description": product.Description,
		"price":       product.Price,
		"category":    product.Category,
		"stock":       product.Stock,
		"brand":       product.Brand,
		"rating":      product.Rating,
		"num_reviews": product.NumReviews,
		"images":      product.Images,
		"updated_at":  time.Now(),
	}}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var updated models.Product
	err = pc.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		utils.WriteError(w, fmt.Errorf("%w: product not found", utils.ErrNotFound))
		return
	}
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}

	utils.WriteJSON(w, http.StatusOK, updated)
}

// DeleteProduct removes a product from the catalog (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, fmt.Errorf("%w: invalid product ID", utils.ErrInvalidInput))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := pc.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}
	if result.DeletedCount == 0 {
		utils.WriteError(w, fmt.Errorf("%w: product not found", utils.ErrNotFound))
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Product deleted")
}
