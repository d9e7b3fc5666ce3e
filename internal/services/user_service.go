package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"freightdesk/internal/common"
	"freightdesk/internal/models"
	"freightdesk/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for both unknown emails and wrong
// passwords so login responses do not leak which one failed.
var ErrInvalidCredentials = errors.New("user: invalid credentials")

// UserServiceInterface defines the interface for user account operations
type UserServiceInterface interface {
	Register(ctx context.Context, req *RegisterUserRequest) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*models.User, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error)
	ListAvailableDrivers(ctx context.Context, tenantID uuid.UUID) ([]*models.User, error)
}

type RegisterUserRequest struct {
	TenantID  uuid.UUID   `json:"tenant_id"`
	Email     string      `json:"email" validate:"required"`
	Password  string      `json:"password" validate:"required"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      models.Role `json:"role" validate:"required"`
}

type userService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new user service instance
func NewUserService(userRepo repositories.UserRepository) UserServiceInterface {
	return &userService{userRepo: userRepo}
}

// Register creates a user account with a bcrypt password hash.
func (s *userService) Register(ctx context.Context, req *RegisterUserRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address")
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("invalid role: %s", req.Role)
	}
	if req.TenantID == uuid.Nil {
		return nil, fmt.Errorf("tenant ID is required")
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered")
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		TenantID:     req.TenantID,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		IsAvailable:  req.Role == models.RoleDriver,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies an email and password pair.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status != "active" {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (s *userService) GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, tenantID, userID)
}

// List lists tenant users with pagination.
func (s *userService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.userRepo.List(ctx, tenantID, limit, offset)
}

// ListAvailableDrivers lists drivers with no active load.
func (s *userService) ListAvailableDrivers(ctx context.Context, tenantID uuid.UUID) ([]*models.User, error) {
	return s.userRepo.ListAvailableDrivers(ctx, tenantID)
}
