package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/database/books"
	"github.com/mrlokans/rustypages/internal/entities"
	"github.com/mrlokans/rustypages/internal/renderer"
	"github.com/mrlokans/rustypages/internal/renderer/pdf"
)

// BooksController serves the library API.
type BooksController struct {
	books BookStore
	queue LocationQueue
	log   *zap.Logger
	now   func() time.Time
}

// NewBooksController creates a books controller. queue may be nil, in which
// case no location generation is scheduled on upload.
func NewBooksController(store BookStore, queue LocationQueue, log *zap.Logger) *BooksController {
	if log == nil {
		log = zap.NewNop()
	}
	return &BooksController{books: store, queue: queue, log: log, now: time.Now}
}

// bookSummary is returned after writes; it never carries content.
type bookSummary struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Format     entities.BookFormat `json:"format"`
	TotalUnits int                 `json:"total_units,omitempty"`
	Added      time.Time           `json:"added"`
	LastRead   *time.Time          `json:"last_read,omitempty"`
}

func summarize(b *entities.Book) bookSummary {
	return bookSummary{
		ID:         b.BookID,
		Title:      b.Title,
		Format:     b.Format,
		TotalUnits: b.TotalUnits,
		Added:      b.AddedAt,
		LastRead:   b.LastReadAt,
	}
}

// ListBooks handles GET /api/books. Content is only included with
// ?includeData=true.
func (bc *BooksController) ListBooks(c *gin.Context) {
	list, err := bc.books.ListBooks(GetUserID(c), parseBoolQuery(c, "includeData"))
	if err != nil {
		respondInternalError(c, bc.log, err, "list books")
		return
	}
	if list == nil {
		list = []entities.Book{}
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// GetBook handles GET /api/books/:id.
func (bc *BooksController) GetBook(c *gin.Context) {
	bookID, ok := parseBookIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.GetBook(GetUserID(c), bookID)
	if errors.Is(err, books.ErrBookNotFound) {
		respondNotFound(c, "Book")
		return
	}
	if err != nil {
		respondInternalError(c, bc.log, err, "get book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": book})
}

// SaveBook handles POST /api/books. An existing book with the same id is
// replaced; stored content survives when the request carries none.
func (bc *BooksController) SaveBook(c *gin.Context) {
	var book entities.Book
	if err := c.ShouldBindJSON(&book); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}
	book.BookID = strings.TrimSpace(book.BookID)
	if book.BookID == "" || strings.TrimSpace(book.Title) == "" {
		respondBadRequest(c, "Book ID and title are required")
		return
	}
	if err := bc.prepare(&book); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	userID := GetUserID(c)
	created, err := bc.books.SaveBook(userID, &book)
	if err != nil {
		respondInternalError(c, bc.log, err, "save book")
		return
	}
	bc.scheduleLocations(c.Request.Context(), userID, &book)

	c.JSON(http.StatusOK, gin.H{
		"message": "Book saved successfully",
		"created": created,
		"book":    summarize(&book),
	})
}

// UpdateBook handles PUT /api/books/:id. Only existing books can be updated.
func (bc *BooksController) UpdateBook(c *gin.Context) {
	bookID, ok := parseBookIDParam(c, "id")
	if !ok {
		return
	}

	var book entities.Book
	if err := c.ShouldBindJSON(&book); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}
	book.BookID = bookID

	userID := GetUserID(c)
	existing, err := bc.books.GetBook(userID, bookID)
	if errors.Is(err, books.ErrBookNotFound) {
		respondNotFound(c, "Book")
		return
	}
	if err != nil {
		respondInternalError(c, bc.log, err, "load book for update")
		return
	}
	if strings.TrimSpace(book.Title) == "" {
		book.Title = existing.Title
	}
	if book.Format == "" && len(book.Data) == 0 {
		book.Format = existing.Format
	}
	if err := bc.prepare(&book); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := bc.books.UpdateBook(userID, &book); err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "Book")
			return
		}
		respondInternalError(c, bc.log, err, "update book")
		return
	}
	bc.scheduleLocations(c.Request.Context(), userID, &book)

	respondSuccess(c, "Book updated successfully", summarize(&book))
}

// DeleteBook handles DELETE /api/books/:id. The book's reading position is
// removed with it.
func (bc *BooksController) DeleteBook(c *gin.Context) {
	bookID, ok := parseBookIDParam(c, "id")
	if !ok {
		return
	}

	err := bc.books.DeleteBook(GetUserID(c), bookID)
	if errors.Is(err, books.ErrBookNotFound) {
		respondNotFound(c, "Book")
		return
	}
	if err != nil {
		respondInternalError(c, bc.log, err, "delete book")
		return
	}
	respondSuccess(c, "Book deleted successfully", gin.H{"book_id": bookID})
}

type syncRequest struct {
	Added   []entities.Book `json:"added"`
	Updated []entities.Book `json:"updated"`
	Deleted []string        `json:"deleted"`
}

// Sync handles POST /api/sync. The batch is applied atomically and the
// resulting library is returned without content.
func (bc *BooksController) Sync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	for i := range req.Added {
		b := &req.Added[i]
		if strings.TrimSpace(b.BookID) == "" {
			b.BookID = uuid.NewString()
		}
		if err := bc.prepare(b); err != nil {
			respondBadRequest(c, fmt.Sprintf("added book %q: %v", b.BookID, err))
			return
		}
	}
	for i := range req.Updated {
		b := &req.Updated[i]
		if strings.TrimSpace(b.BookID) == "" {
			respondBadRequest(c, "updated books require an id")
			return
		}
		if err := bc.prepare(b); err != nil {
			respondBadRequest(c, fmt.Sprintf("updated book %q: %v", b.BookID, err))
			return
		}
	}

	userID := GetUserID(c)
	if err := bc.books.ApplySync(userID, req.Added, req.Updated, req.Deleted); err != nil {
		respondInternalError(c, bc.log, err, "sync")
		return
	}
	for _, batch := range [][]entities.Book{req.Added, req.Updated} {
		for i := range batch {
			bc.scheduleLocations(c.Request.Context(), userID, &batch[i])
		}
	}

	list, err := bc.books.ListBooks(userID, false)
	if err != nil {
		respondInternalError(c, bc.log, err, "list books after sync")
		return
	}
	if list == nil {
		list = []entities.Book{}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sync completed", "books": list})
}

// prepare fills the format and unit count that can be derived from the
// content and stamps the last-read date.
func (bc *BooksController) prepare(b *entities.Book) error {
	if b.Format == "" {
		if len(b.Data) == 0 {
			b.Format = entities.BookFormatEPUB
		} else {
			format, err := renderer.DetectFormat("", b.Data)
			if err != nil {
				return err
			}
			b.Format = format
		}
	}
	if !b.Format.Valid() {
		return fmt.Errorf("unsupported format %q", b.Format)
	}
	if b.Format == entities.BookFormatPDF && b.TotalUnits == 0 && len(b.Data) > 0 {
		pages, err := pdf.CountPages(b.Data)
		if err != nil {
			return err
		}
		b.TotalUnits = pages
	}
	if b.LastReadAt == nil {
		now := bc.now()
		b.LastReadAt = &now
	}
	return nil
}

// scheduleLocations queues index generation for EPUB uploads that arrive
// without one. Failing to queue does not fail the upload; the periodic
// sweep picks the book up later.
func (bc *BooksController) scheduleLocations(ctx context.Context, userID uint, b *entities.Book) {
	if bc.queue == nil || b.Format != entities.BookFormatEPUB || len(b.Data) == 0 || b.HasLocations() {
		return
	}
	if err := bc.queue.EnqueueLocations(ctx, userID, b.BookID); err != nil {
		bc.log.Warn("failed to queue location generation",
			zap.Uint("user_id", userID),
			zap.String("book_id", b.BookID),
			zap.Error(err))
	}
}
