package http

import (
	"context"
	"time"

	"github.com/mrlokans/rustypages/internal/entities"
	"github.com/mrlokans/rustypages/internal/locations"
	"github.com/mrlokans/rustypages/internal/settings"
)

// This file consolidates the store interfaces used by HTTP controllers.
// Each controller depends only on the methods it calls.

// BookStore is the library storage. Implemented by books.Repository.
type BookStore interface {
	ListBooks(userID uint, includeData bool) ([]entities.Book, error)
	GetBook(userID uint, bookID string) (*entities.Book, error)
	SaveBook(userID uint, book *entities.Book) (bool, error)
	UpdateBook(userID uint, book *entities.Book) error
	DeleteBook(userID uint, bookID string) error
	ApplySync(userID uint, added, updated []entities.Book, deleted []string) error
}

// BookGetter provides read access to one book.
type BookGetter interface {
	GetBook(userID uint, bookID string) (*entities.Book, error)
}

// PositionStore holds reading positions. Implemented by positions.Repository.
type PositionStore interface {
	UpsertAt(userID uint, bookID, locator string, pageIndex int, at time.Time) error
	Get(userID uint, bookID string) (*entities.ReadingPosition, error)
	List(userID uint) ([]entities.ReadingPosition, error)
}

// SettingsStore reads and writes reader settings. Implemented by settings.Store.
type SettingsStore interface {
	Info(userID uint) (settings.Info, error)
	Update(userID uint, values map[string]string) (settings.Reader, error)
	Reset(userID uint) error
}

// LocationQueue schedules background generation of a location index.
// Implemented by tasks.Client.
type LocationQueue interface {
	EnqueueLocations(ctx context.Context, userID uint, bookID string) error
}

// LocationGenerator builds a location index inline. Implemented by
// services.LocationService and used when no task queue is configured.
type LocationGenerator interface {
	Generate(ctx context.Context, userID uint, bookID string) (*locations.Index, error)
}
