package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_setting" json:"-"`
	Key       string    `gorm:"uniqueIndex:idx_user_setting;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Reader appearance
	SettingKeyTheme    = "theme"
	SettingKeyFont     = "font"
	SettingKeyFontSize = "font_size"
	SettingKeyMargin   = "margin"
)
