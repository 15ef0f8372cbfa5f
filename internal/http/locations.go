package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/database/books"
	"github.com/mrlokans/rustypages/internal/entities"
)

// LocationsController exposes EPUB location indexes.
type LocationsController struct {
	books     BookGetter
	queue     LocationQueue
	generator LocationGenerator
	log       *zap.Logger
}

// NewLocationsController creates the controller. With a queue, generation
// is asynchronous; otherwise generator runs inline. Either may be nil.
func NewLocationsController(store BookGetter, queue LocationQueue, generator LocationGenerator, log *zap.Logger) *LocationsController {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocationsController{books: store, queue: queue, generator: generator, log: log}
}

// GenerateLocations handles POST /api/books/:id/locations.
func (lc *LocationsController) GenerateLocations(c *gin.Context) {
	bookID, ok := parseBookIDParam(c, "id")
	if !ok {
		return
	}
	userID := GetUserID(c)

	book, ok := lc.loadBook(c, userID, bookID)
	if !ok {
		return
	}
	if book.Format != entities.BookFormatEPUB {
		respondBadRequest(c, "only EPUB books have locations")
		return
	}
	if len(book.Data) == 0 {
		respondBadRequest(c, "book has no stored content")
		return
	}

	switch {
	case lc.queue != nil:
		if err := lc.queue.EnqueueLocations(c.Request.Context(), userID, bookID); err != nil {
			respondInternalError(c, lc.log, err, "queue location generation")
			return
		}
		respondAccepted(c, "Location generation queued", gin.H{"book_id": bookID})
	case lc.generator != nil:
		ix, err := lc.generator.Generate(c.Request.Context(), userID, bookID)
		if err != nil {
			respondInternalError(c, lc.log, err, "generate locations")
			return
		}
		respondSuccess(c, "Locations generated", gin.H{
			"book_id":     bookID,
			"locations":   ix.Total,
			"total_units": ix.UnitCount(),
		})
	default:
		respondError(c, http.StatusServiceUnavailable, "location generation is not configured")
	}
}

// GetLocations handles GET /api/books/:id/locations and returns the stored
// index as saved.
func (lc *LocationsController) GetLocations(c *gin.Context) {
	bookID, ok := parseBookIDParam(c, "id")
	if !ok {
		return
	}

	book, ok := lc.loadBook(c, GetUserID(c), bookID)
	if !ok {
		return
	}
	if !book.HasLocations() {
		respondNotFound(c, "Locations")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(book.Locations))
}

func (lc *LocationsController) loadBook(c *gin.Context, userID uint, bookID string) (*entities.Book, bool) {
	book, err := lc.books.GetBook(userID, bookID)
	if errors.Is(err, books.ErrBookNotFound) {
		respondNotFound(c, "Book")
		return nil, false
	}
	if err != nil {
		respondInternalError(c, lc.log, err, "get book")
		return nil, false
	}
	return book, true
}
