// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByUsername("reader")
package users

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/rustypages/internal/entities"
)

var ErrUserNotFound = errors.New("user not found")

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser stores a new user with an already hashed password.
func (r *Repository) CreateUser(username, passwordHash string) (*entities.User, error) {
	user := &entities.User{
		Username:     username,
		PasswordHash: passwordHash,
	}

	if err := r.db.Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// RecordFailedLogin stores the failed attempt counter and optional lockout.
func (r *Repository) RecordFailedLogin(user *entities.User, lockedUntil *time.Time) error {
	updates := map[string]any{
		"failed_login_count": user.FailedLoginCount,
	}
	if lockedUntil != nil {
		updates["locked_until"] = *lockedUntil
	}
	return r.db.Model(user).Updates(updates).Error
}

// RecordSuccessfulLogin resets the lockout state and stamps the login time.
func (r *Repository) RecordSuccessfulLogin(user *entities.User, at time.Time) error {
	return r.db.Model(user).Updates(map[string]any{
		"last_login_at":      at,
		"failed_login_count": 0,
		"locked_until":       nil,
	}).Error
}

// CountUsers returns the number of registered users.
func (r *Repository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
