package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
)

// UserRepository provides access to the users table.
type UserRepository interface {
	// GetOrCreate retrieves a user by username or creates one.
	// A non-empty email updates the stored address.
	GetOrCreate(ctx context.Context, username, email string) (*entities.User, error)

	// GetByID returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uint) (*entities.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) find(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) GetOrCreate(ctx context.Context, username, email string) (*entities.User, error) {
	user, err := r.find(ctx, username)
	switch {
	case err == nil:
		if email != "" && user.Email != email {
			if err := r.db.WithContext(ctx).Model(user).Update("email", email).Error; err != nil {
				return nil, err
			}
		}
		return user, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	user = &entities.User{Username: username, Email: email}
	if createErr := r.db.WithContext(ctx).Create(user).Error; createErr != nil {
		// Handle a concurrent create of the same username.
		existing, findErr := r.find(ctx, username)
		if findErr != nil {
			return nil, createErr
		}
		return existing, nil
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, ErrUserNotFound)
	}
	return &user, nil
}
