package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/database/books"
	"github.com/mrlokans/rustypages/internal/entities"
	"github.com/mrlokans/rustypages/internal/locations"
	"github.com/mrlokans/rustypages/internal/renderer/epub"
)

var (
	ErrNotReflowable = errors.New("only EPUB books have a location index")
	ErrNoContent     = errors.New("book has no stored content")
)

// LocationService generates and stores EPUB location indexes. Indexes are
// shared between books with identical content, first through an in-memory
// cache and then through any stored twin.
type LocationService struct {
	books     BookStore
	cache     *locations.Cache
	chunkSize int
	log       *zap.Logger
}

// NewLocationService creates a new LocationService. cache may be nil.
func NewLocationService(store BookStore, cache *locations.Cache, chunkSize int, log *zap.Logger) *LocationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocationService{
		books:     store,
		cache:     cache,
		chunkSize: chunkSize,
		log:       log.Named("locations"),
	}
}

// Generate builds the index of one book and stores it.
func (s *LocationService) Generate(ctx context.Context, userID uint, bookID string) (*locations.Index, error) {
	book, err := s.books.GetBook(userID, bookID)
	if err != nil {
		return nil, err
	}
	if book.Format != entities.BookFormatEPUB {
		return nil, ErrNotReflowable
	}
	if len(book.Data) == 0 {
		return nil, ErrNoContent
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := book.ContentHash
	if hash == "" {
		hash = books.ContentHash(book.Data)
	}

	ix, source, err := s.build(hash, book.Data)
	if err != nil {
		return nil, fmt.Errorf("generate locations for %s: %w", bookID, err)
	}

	data, err := ix.Save()
	if err != nil {
		return nil, err
	}
	if err := s.books.SetLocations(userID, bookID, string(data), ix.UnitCount()); err != nil {
		return nil, err
	}

	s.log.Info("location index stored",
		zap.Uint("user_id", userID),
		zap.String("book_id", bookID),
		zap.String("source", source),
		zap.Int("locations", ix.Total))
	return ix, nil
}

func (s *LocationService) build(hash string, content []byte) (*locations.Index, string, error) {
	if s.cache != nil {
		if ix, ok := s.cache.Get(hash); ok {
			return ix, "cache", nil
		}
	}

	if twin, err := s.books.FindByContentHash(hash); err == nil {
		if ix, err := locations.Load([]byte(twin.Locations)); err == nil {
			s.remember(hash, ix)
			return ix, "twin", nil
		}
	}

	book, err := epub.OpenBytes(content)
	if err != nil {
		return nil, "", err
	}
	ix := locations.Generate(book.Texts(), s.chunkSize)
	s.remember(hash, ix)
	return ix, "generated", nil
}

func (s *LocationService) remember(hash string, ix *locations.Index) {
	if s.cache != nil {
		s.cache.Add(hash, ix)
	}
}

// GenerateMissing builds indexes for up to limit EPUB books that have none.
// A failing book does not stop the run.
func (s *LocationService) GenerateMissing(ctx context.Context, limit int) (GenerateResult, error) {
	pending, err := s.books.ListMissingLocations(limit)
	if err != nil {
		return GenerateResult{}, err
	}

	result := GenerateResult{Total: len(pending)}
	for _, b := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := s.Generate(ctx, b.UserID, b.BookID); err != nil {
			result.Failed++
			s.log.Warn("failed to generate location index",
				zap.Uint("user_id", b.UserID),
				zap.String("book_id", b.BookID),
				zap.Error(err))
			continue
		}
		result.Generated++
	}
	return result, nil
}
