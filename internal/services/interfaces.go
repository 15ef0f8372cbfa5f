package services

import "github.com/mrlokans/rustypages/internal/entities"

// BookStore provides the book access the location service needs.
// Implemented by books.Repository.
type BookStore interface {
	GetBook(userID uint, bookID string) (*entities.Book, error)
	SetLocations(userID uint, bookID, locations string, totalUnits int) error
	ListMissingLocations(limit int) ([]entities.Book, error)
	FindByContentHash(hash string) (*entities.Book, error)
}

// GenerateResult contains the outcome of a bulk generation run.
type GenerateResult struct {
	Total     int
	Generated int
	Failed    int
}
