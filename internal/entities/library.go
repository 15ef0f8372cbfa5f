package entities

import (
	"time"
)

type BookFormat string

const (
	BookFormatEPUB BookFormat = "epub"
	BookFormatPDF  BookFormat = "pdf"
)

// Valid reports whether f is a format the reader can open.
func (f BookFormat) Valid() bool {
	return f == BookFormatEPUB || f == BookFormatPDF
}

type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Username         string     `gorm:"uniqueIndex;size:100" json:"username"`
	PasswordHash     string     `gorm:"size:255" json:"-"`
	FailedLoginCount int        `json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Book is a library entry. BookID is the identifier chosen by the client and
// is unique per user; ID is internal.
type Book struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	UserID      uint       `gorm:"uniqueIndex:idx_user_book" json:"-"`
	BookID      string     `gorm:"uniqueIndex:idx_user_book;size:128" json:"id"`
	Title       string     `gorm:"index;size:512" json:"title"`
	Author      string     `gorm:"size:256" json:"author"`
	Format      BookFormat `gorm:"size:8" json:"format"`
	TotalUnits  int        `json:"total_units,omitempty"`
	ContentHash string     `gorm:"index;size:64" json:"content_hash,omitempty"`
	Data        []byte     `json:"data,omitempty"`                      // base64 in JSON
	Locations   string     `gorm:"type:text" json:"locations,omitempty"` // Serialized EPUB location index
	AddedAt     time.Time  `json:"added"`
	LastReadAt  *time.Time `json:"last_read,omitempty"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasLocations reports whether a precomputed location index is stored.
func (b *Book) HasLocations() bool {
	return b.Locations != ""
}

// ReadingPosition is the durable reading position of one book.
type ReadingPosition struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	UserID     uint      `gorm:"uniqueIndex:idx_user_position" json:"-"`
	BookID     string    `gorm:"uniqueIndex:idx_user_position;size:128" json:"book_id"`
	Locator    string    `gorm:"size:512" json:"locator"`
	PageIndex  int       `json:"page_index"`
	LastReadAt time.Time `json:"last_read_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (ReadingPosition) TableName() string {
	return "reading_positions"
}
