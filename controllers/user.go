package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"ecommerce-backend/middleware"
	"ecommerce-backend/models"
	"ecommerce-backend/utils"
)

// minPasswordLength is enforced at registration and on password change.
const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserController handles user-related requests
type UserController struct {
	Collection *mongo.Collection
}

// NewUserController creates a new UserController
func NewUserController(client *mongo.Client) *UserController {
	collection := client.Database(utils.DatabaseName).Collection("users")
	return &UserController{
		Collection: collection,
	}
}

// authResponse is what register and login return: the public user fields
// plus a fresh session token.
type authResponse struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Role  string             `json:"role"`
	Token string             `json:"token"`
}

func validateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", utils.ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: a valid email is required", utils.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", utils.ErrInvalidInput, minPasswordLength)
	}
	return nil
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string         `json:"name"`
		Email    string         `json:"email"`
		Password string         `json:"password"`
		Address  models.Address `json:"address"`
		Phone    string         `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, fmt.Errorf("%w: malformed request body", utils.ErrInvalidInput))
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRegistration(req.Name, req.Email, req.Password); err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := uc.Collection.CountDocuments(ctx, bson.M{"email": req.Email})
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}
	if count > 0 {
		utils.WriteError(w, utils.ErrDuplicateEmail)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteError(w, fmt.Errorf("hashing password: %v", err))
		return
	}

	now := time.Now()
	user := models.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Password:  string(hashedPassword),
		Role:      models.RoleCustomer,
		Address:   req.Address,
		Phone:     req.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := uc.Collection.InsertOne(ctx, user)
	if err != nil {
		// The unique index catches the race where two registrations with the
		// same email pass the pre-check together.
		if mongo.IsDuplicateKeyError(err) {
			utils.WriteError(w, utils.ErrDuplicateEmail)
			return
		}
		utils.WriteError(w, utils.StoreError(err))
		return
	}
	user.ID = result.InsertedID.(primitive.ObjectID)

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		utils.WriteError(w, fmt.Errorf("generating token: %v", err))
		return
	}

	utils.WriteJSON(w, http.StatusCreated, authResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Token: token,
	})
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		utils.WriteError(w, fmt.Errorf("%w: malformed request body", utils.ErrInvalidInput))
		return
	}
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Unknown email and wrong password produce the same error so accounts
	// cannot be enumerated.
	var user models.User
	err := uc.Collection.FindOne(ctx, bson.M{"email": creds.Email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		utils.WriteError(w, utils.ErrInvalidCredentials)
		return
	}
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)) != nil {
		utils.WriteError(w, utils.ErrInvalidCredentials)
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		utils.WriteError(w, fmt.Errorf("generating token: %v", err))
		return
	}

	utils.WriteJSON(w, http.StatusOK, authResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Token: token,
	})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := uc.requireUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	user.Password = ""
	utils.WriteJSON(w, http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's name, password, address,
// or phone. The email is immutable.
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := uc.requireUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	var req struct {
		Name     string          `json:"name"`
		Password string          `json:"password"`
		Address  *models.Address `json:"address"`
		Phone    *string         `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, fmt.Errorf("%w: malformed request body", utils.ErrInvalidInput))
		return
	}

	update := bson.M{"updated_at": time.Now()}
	if strings.TrimSpace(req.Name) != "" {
		update["name"] = strings.TrimSpace(req.Name)
	}
	if req.Password != "" {
		if len(req.Password) < minPasswordLength {
			utils.WriteError(w, fmt.Errorf("%w: password must be at least %d characters", utils.ErrInvalidInput, minPasswordLength))
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.WriteError(w, fmt.Errorf("hashing password: %v", err))
			return
		}
		update["password"] = string(hashed)
	}
	if req.Address != nil {
		update["address"] = *req.Address
	}
	if req.Phone != nil {
		update["phone"] = *req.Phone
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var updated models.User
	err = uc.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}

	updated.Password = ""
	utils.WriteJSON(w, http.StatusOK, updated)
}

// GetUsers lists all users (Admin only)
func (uc *UserController) GetUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	findOpts := options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	var users []models.User
	err := findWithRetry(ctx, func() error {
		cursor, err := uc.Collection.Find(ctx, bson.M{}, findOpts)
		if err != nil {
			return err
		}
		users = []models.User{}
		return cursor.All(ctx, &users)
	})
	if err != nil {
		utils.WriteError(w, utils.StoreError(err))
		return
	}

	utils.WriteJSON(w, http.StatusOK, users)
}

// requireUser resolves the caller from the bearer-token claims to a stored
// user record.
func (uc *UserController) requireUser(r *http.Request) (*models.User, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil, utils.ErrUnauthorized
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, utils.ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err = uc.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: user not found", utils.ErrNotFound)
	}
	if err != nil {
		return nil, utils.StoreError(err)
	}
	return &user, nil
}

// findWithRetry runs a read-only query, retrying exactly once when the
// failure looks like a transient connectivity problem.
func findWithRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err != nil && utils.Transient(err) && ctx.Err() == nil {
		err = fn()
	}
	return err
}
