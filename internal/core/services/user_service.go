package services

import (
	"context"
	"errors"

	"libralend/internal/adapters/persistence/models"
	"libralend/internal/adapters/persistence/repositories"
	"libralend/internal/core/domain"
	"libralend/internal/pkg/password"

	"gorm.io/gorm"
)

// UserService handles user registration and lookup
type UserService struct {
	store repositories.Store
}

// NewUserService creates a new user service
func NewUserService(store repositories.Store) *UserService {
	return &UserService{store: store}
}

// RegisterInput represents user registration input
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new user with a unique email
func (s *UserService) Register(ctx context.Context, input *RegisterInput) (*models.User, error) {
	if _, err := s.store.Users().GetByEmail(ctx, input.Email); err == nil {
		return nil, domain.EmailAlreadyRegistered(input.Email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: hashed,
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		// Two concurrent registrations can both pass the lookup; the
		// unique index on email decides.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.EmailAlreadyRegistered(input.Email)
		}
		return nil, err
	}

	return user, nil
}

// GetByID gets a user by ID
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.UserNotFound(id)
		}
		return nil, err
	}
	return user, nil
}

// List lists users with pagination
func (s *UserService) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	return s.store.Users().List(ctx, offset, limit)
}
