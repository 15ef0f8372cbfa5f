// Package books provides database operations for the user's library.
//
// Book content is stored alongside the metadata but only loaded when asked
// for; listing queries omit the data column.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	created, err := repo.SaveBook(userID, &book)
//	list, err := repo.ListBooks(userID, false)
package books

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/rustypages/internal/entities"
)

var ErrBookNotFound = errors.New("book not found")

// metadataColumns are loaded by listings that exclude content.
var metadataColumns = []string{
	"id", "user_id", "book_id", "title", "author", "format", "total_units",
	"content_hash", "added_at", "last_read_at", "created_at", "updated_at",
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListBooks returns the user's books, most recently added first. Content and
// location indexes are only included when includeData is set.
func (r *Repository) ListBooks(userID uint, includeData bool) ([]entities.Book, error) {
	var books []entities.Book
	query := r.db.Where("user_id = ?", userID).Order("added_at DESC")
	if !includeData {
		query = query.Select(metadataColumns)
	}
	if err := query.Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// GetBook returns a book with its content.
func (r *Repository) GetBook(userID uint, bookID string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// SaveBook inserts or replaces a book. Stored content, location index and
// added date survive when the incoming book leaves them empty. The returned
// flag reports whether the book was created.
func (r *Repository) SaveBook(userID uint, book *entities.Book) (bool, error) {
	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = saveBook(tx, userID, book)
		return err
	})
	return created, err
}

// UpdateBook replaces the metadata of an existing book.
func (r *Repository) UpdateBook(userID uint, book *entities.Book) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing entities.Book
		err := tx.Select("id").Where("user_id = ? AND book_id = ?", userID, book.BookID).First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		_, err = saveBook(tx, userID, book)
		return err
	})
}

// DeleteBook removes a book and its reading position.
func (r *Repository) DeleteBook(userID uint, bookID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deleteBook(tx, userID, bookID)
	})
}

// ApplySync applies a client's batch of library changes atomically. Deleting
// a book that does not exist is not an error.
func (r *Repository) ApplySync(userID uint, added, updated []entities.Book, deleted []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range added {
			if _, err := saveBook(tx, userID, &added[i]); err != nil {
				return fmt.Errorf("failed to add book %q: %w", added[i].BookID, err)
			}
		}
		for i := range updated {
			if _, err := saveBook(tx, userID, &updated[i]); err != nil {
				return fmt.Errorf("failed to update book %q: %w", updated[i].BookID, err)
			}
		}
		for _, bookID := range deleted {
			if err := deleteBook(tx, userID, bookID); err != nil && !errors.Is(err, ErrBookNotFound) {
				return fmt.Errorf("failed to delete book %q: %w", bookID, err)
			}
		}
		return nil
	})
}

// SetLocations stores a generated location index and the unit count it was
// built from.
func (r *Repository) SetLocations(userID uint, bookID, locations string, totalUnits int) error {
	result := r.db.Model(&entities.Book{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Updates(map[string]any{"locations": locations, "total_units": totalUnits})
	if result.Error != nil {
		return fmt.Errorf("failed to store locations: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// ListMissingLocations returns EPUB books that have content but no location
// index. Only identifying columns are loaded.
func (r *Repository) ListMissingLocations(limit int) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Select("id", "user_id", "book_id", "title").
		Where("format = ? AND (locations IS NULL OR locations = '') AND data IS NOT NULL AND length(data) > 0", entities.BookFormatEPUB).
		Order("added_at ASC").
		Limit(limit).
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list books without locations: %w", err)
	}
	return books, nil
}

// FindByContentHash returns any stored book with the same content that already
// has a location index.
func (r *Repository) FindByContentHash(hash string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("content_hash = ? AND locations <> ''", hash).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// TouchLastRead records that the book was just read.
func (r *Repository) TouchLastRead(userID uint, bookID string, at time.Time) error {
	return r.db.Model(&entities.Book{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Update("last_read_at", at).Error
}

// ContentHash is the key used to share location indexes between identical
// uploads.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func saveBook(tx *gorm.DB, userID uint, book *entities.Book) (bool, error) {
	book.UserID = userID

	var existing entities.Book
	err := tx.Where("user_id = ? AND book_id = ?", userID, book.BookID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if book.AddedAt.IsZero() {
			book.AddedAt = time.Now()
		}
		if len(book.Data) > 0 {
			book.ContentHash = ContentHash(book.Data)
		}
		if err := tx.Create(book).Error; err != nil {
			return false, err
		}
		return true, nil
	} else if err != nil {
		return false, err
	}

	book.ID = existing.ID
	book.CreatedAt = existing.CreatedAt
	if book.AddedAt.IsZero() {
		book.AddedAt = existing.AddedAt
	}
	if len(book.Data) == 0 {
		book.Data = existing.Data
		book.ContentHash = existing.ContentHash
	} else {
		book.ContentHash = ContentHash(book.Data)
	}
	if book.Locations == "" && book.ContentHash == existing.ContentHash {
		book.Locations = existing.Locations
		if book.TotalUnits == 0 {
			book.TotalUnits = existing.TotalUnits
		}
	}
	if book.LastReadAt == nil {
		book.LastReadAt = existing.LastReadAt
	}
	return false, tx.Save(book).Error
}

func deleteBook(tx *gorm.DB, userID uint, bookID string) error {
	result := tx.Where("user_id = ? AND book_id = ?", userID, bookID).Delete(&entities.Book{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return tx.Where("user_id = ? AND book_id = ?", userID, bookID).Delete(&entities.ReadingPosition{}).Error
}
