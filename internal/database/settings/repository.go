// Package settings provides database operations for per-user reader settings.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	setting, err := repo.GetSetting(userID, "theme")
package settings

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/rustypages/internal/entities"
)

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting retrieves a setting by key.
func (r *Repository) GetSetting(userID uint, key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := r.db.Where("user_id = ? AND key = ?", userID, key).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// GetSettings returns all settings of a user keyed by name.
func (r *Repository) GetSettings(userID uint) (map[string]string, error) {
	var list []entities.Setting
	if err := r.db.Where("user_id = ?", userID).Find(&list).Error; err != nil {
		return nil, err
	}
	values := make(map[string]string, len(list))
	for _, s := range list {
		values[s.Key] = s.Value
	}
	return values, nil
}

// SetSetting creates or updates a setting.
func (r *Repository) SetSetting(userID uint, key, value string) error {
	var setting entities.Setting
	result := r.db.Where("user_id = ? AND key = ?", userID, key).First(&setting)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		setting = entities.Setting{
			UserID: userID,
			Key:    key,
			Value:  value,
		}
		return r.db.Create(&setting).Error
	} else if result.Error != nil {
		return result.Error
	}

	setting.Value = value
	return r.db.Save(&setting).Error
}

// SetSettings stores several settings in one transaction.
func (r *Repository) SetSettings(userID uint, values map[string]string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		txRepo := &Repository{db: tx}
		for key, value := range values {
			if err := txRepo.SetSetting(userID, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSetting removes a setting by key.
func (r *Repository) DeleteSetting(userID uint, key string) error {
	return r.db.Where("user_id = ? AND key = ?", userID, key).Delete(&entities.Setting{}).Error
}
