// Package positions provides database operations for reading positions.
//
// # Usage
//
//	repo := positions.NewRepository(db)
//	err := repo.Upsert(userID, "moby-dick", "epubcfi(/6/4!/4:0)", 2)
//	pos, err := repo.Get(userID, "moby-dick")
package positions

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/rustypages/internal/entities"
)

var ErrPositionNotFound = errors.New("reading position not found")

// Repository handles all reading position database operations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new positions repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Upsert stores the position of a book, stamping it with the current time, and
// updates the book's last-read date when the book is in the library.
func (r *Repository) Upsert(userID uint, bookID, locator string, pageIndex int) error {
	return r.UpsertAt(userID, bookID, locator, pageIndex, r.now())
}

// UpsertAt stores a position read at the given time. Older writes never
// replace a newer stored position.
func (r *Repository) UpsertAt(userID uint, bookID, locator string, pageIndex int, at time.Time) error {
	at = at.UTC()
	return r.db.Transaction(func(tx *gorm.DB) error {
		pos := entities.ReadingPosition{
			UserID:     userID,
			BookID:     bookID,
			Locator:    locator,
			PageIndex:  pageIndex,
			LastReadAt: at,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"locator":      gorm.Expr("CASE WHEN excluded.last_read_at >= reading_positions.last_read_at THEN excluded.locator ELSE reading_positions.locator END"),
				"page_index":   gorm.Expr("CASE WHEN excluded.last_read_at >= reading_positions.last_read_at THEN excluded.page_index ELSE reading_positions.page_index END"),
				"last_read_at": gorm.Expr("MAX(excluded.last_read_at, reading_positions.last_read_at)"),
				"updated_at":   gorm.Expr("excluded.updated_at"),
			}),
		}).Create(&pos).Error
		if err != nil {
			return fmt.Errorf("failed to save reading position: %w", err)
		}

		return tx.Model(&entities.Book{}).
			Where("user_id = ? AND book_id = ?", userID, bookID).
			Where("last_read_at IS NULL OR last_read_at < ?", at).
			Update("last_read_at", at).Error
	})
}

// Get returns the stored position of a book.
func (r *Repository) Get(userID uint, bookID string) (*entities.ReadingPosition, error) {
	var pos entities.ReadingPosition
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&pos).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}
	return &pos, nil
}

// List returns every stored position of a user, most recently read first.
func (r *Repository) List(userID uint) ([]entities.ReadingPosition, error) {
	var list []entities.ReadingPosition
	err := r.db.Where("user_id = ?", userID).Order("last_read_at DESC").Find(&list).Error
	return list, err
}

// Delete removes the position of a book.
func (r *Repository) Delete(userID uint, bookID string) error {
	return r.db.Where("user_id = ? AND book_id = ?", userID, bookID).Delete(&entities.ReadingPosition{}).Error
}
