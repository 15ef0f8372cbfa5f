// Package reader maps the signals of a reading view onto the renderer and
// the progress tracker of the open book.
//
// # Usage
//
//	c := reader.New(library, gateway, reader.WithListener(view))
//	book, err := c.Open(ctx, "book.epub")
//	c.Next()
//	c.SliderDrag(0.4) // preview only
//	c.SliderRelease(0.4)
//	defer c.Close(ctx)
//
// EPUB books without a stored location index get one generated in the
// background; the index is stored so the next open is immediately precise.
package reader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/database/books"
	"github.com/mrlokans/rustypages/internal/entities"
	"github.com/mrlokans/rustypages/internal/locations"
	"github.com/mrlokans/rustypages/internal/progress"
	"github.com/mrlokans/rustypages/internal/renderer"
)

var ErrNoBook = errors.New("no book is open")

// Library is the local book store. Implemented by books.Repository.
type Library interface {
	GetBook(userID uint, bookID string) (*entities.Book, error)
	SaveBook(userID uint, book *entities.Book) (bool, error)
	SetLocations(userID uint, bookID, locations string, totalUnits int) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithListener receives page and percent display updates.
func WithListener(l progress.Listener) Option {
	return func(c *Controller) { c.listener = l }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithUserID sets the library owner. Defaults to 0, the local user.
func WithUserID(id uint) Option {
	return func(c *Controller) { c.userID = id }
}

// WithAckGrace is passed on to every tracker.
func WithAckGrace(d time.Duration) Option {
	return func(c *Controller) { c.ackGrace = d }
}

// WithChunkSize sets the characters per generated location.
func WithChunkSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithErrorHandler receives navigation, persistence and indexing failures.
// It is called from background goroutines.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.onError = fn
		}
	}
}

// Controller drives one open book at a time.
type Controller struct {
	library   Library
	gateway   progress.Gateway
	listener  progress.Listener
	log       *zap.Logger
	userID    uint
	ackGrace  time.Duration
	chunkSize int
	onError   func(error)

	mu       sync.Mutex
	book     *entities.Book
	handle   *renderer.Handle
	tracker  *progress.Tracker
	stopIdx  context.CancelFunc
	indexing conc.WaitGroup
}

// New creates a controller. library may be nil, in which case books are not
// recorded and generated indexes are not stored.
func New(library Library, gateway progress.Gateway, opts ...Option) *Controller {
	c := &Controller{
		library:   library,
		gateway:   gateway,
		log:       zap.NewNop(),
		ackGrace:  progress.DefaultAckGrace,
		chunkSize: locations.DefaultChunkSize,
		onError:   func(error) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("reader")
	return c
}

// Open reads the book at path and restores its saved position. A book that
// is already open is closed first.
func (c *Controller) Open(ctx context.Context, path string) (*entities.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read book: %w", err)
	}
	format, err := renderer.DetectFormat(path, data)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return c.OpenBytes(ctx, title, format, data)
}

// OpenBytes opens in-memory content. The book id is derived from the
// content, so the same file resumes wherever it is stored.
func (c *Controller) OpenBytes(ctx context.Context, title string, format entities.BookFormat, data []byte) (*entities.Book, error) {
	if err := c.Close(ctx); err != nil {
		c.log.Warn("failed to flush previous book", zap.Error(err))
	}

	handle, err := renderer.Open(format, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", progress.ErrRendererUnavailable, err)
	}

	book := c.record(title, format, data, handle)

	tracker := progress.NewTracker(book.BookID, handle.Renderer, c.gateway,
		progress.WithListener(c.listener),
		progress.WithLogger(c.log),
		progress.WithAckGrace(c.ackGrace),
		progress.WithErrorHandler(c.onError),
	)

	precomputed := c.loadIndex(book, handle)
	if precomputed {
		tracker.IndexReady()
	}

	if err := tracker.Open(ctx); err != nil {
		tracker.Unload()
		return nil, err
	}

	idxCtx, stop := context.WithCancel(context.Background())
	c.mu.Lock()
	c.book, c.handle, c.tracker, c.stopIdx = book, handle, tracker, stop
	c.mu.Unlock()

	if handle.EPUB != nil && !precomputed {
		c.generateIndex(idxCtx, book, handle, tracker)
	}

	c.log.Info("book opened",
		zap.String("book_id", book.BookID),
		zap.String("title", book.Title),
		zap.String("format", string(format)),
		zap.Int("units", handle.Renderer.TotalUnits()),
		zap.Bool("precomputed_index", precomputed))
	return book, nil
}

// record stores the book in the local library, keeping any index stored
// for the same content.
func (c *Controller) record(title string, format entities.BookFormat, data []byte, handle *renderer.Handle) *entities.Book {
	hash := books.ContentHash(data)
	book := &entities.Book{
		BookID:      hash[:32],
		Title:       title,
		Format:      format,
		TotalUnits:  handle.Renderer.TotalUnits(),
		ContentHash: hash,
		Data:        data,
	}
	if c.library == nil {
		return book
	}

	if stored, err := c.library.GetBook(c.userID, book.BookID); err == nil {
		book.Locations = stored.Locations
		book.AddedAt = stored.AddedAt
		book.LastReadAt = stored.LastReadAt
	}
	now := time.Now()
	book.LastReadAt = &now
	if _, err := c.library.SaveBook(c.userID, book); err != nil {
		c.log.Warn("failed to record book in library", zap.String("book_id", book.BookID), zap.Error(err))
	}
	return book
}

// loadIndex attaches a stored location index. A stored index that does not
// match the book is discarded and regenerated.
func (c *Controller) loadIndex(book *entities.Book, handle *renderer.Handle) bool {
	if handle.EPUB == nil || !book.HasLocations() {
		return false
	}
	ix, err := locations.Load([]byte(book.Locations))
	if err == nil {
		err = handle.EPUB.SetIndex(ix)
	}
	if err != nil {
		c.log.Warn("stored location index rejected", zap.String("book_id", book.BookID), zap.Error(err))
		return false
	}
	return true
}

func (c *Controller) generateIndex(ctx context.Context, book *entities.Book, handle *renderer.Handle, tracker *progress.Tracker) {
	tracker.BeginIndexing()
	bookID, texts := book.BookID, handle.Texts

	c.indexing.Go(func() {
		start := time.Now()
		ix := locations.Generate(texts, c.chunkSize)
		if ctx.Err() != nil {
			return
		}
		if err := handle.EPUB.SetIndex(ix); err != nil {
			c.log.Warn("generated location index rejected", zap.String("book_id", bookID), zap.Error(err))
			c.onError(err)
			return
		}
		tracker.IndexReady()
		c.log.Debug("location index generated",
			zap.String("book_id", bookID),
			zap.Int("locations", ix.Total),
			zap.Duration("took", time.Since(start)))

		if c.library == nil {
			return
		}
		data, err := ix.Save()
		if err == nil {
			err = c.library.SetLocations(c.userID, bookID, string(data), ix.UnitCount())
		}
		if err != nil {
			c.log.Warn("failed to store location index", zap.String("book_id", bookID), zap.Error(err))
		}
	})
}

func (c *Controller) current() (*progress.Tracker, *renderer.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker, c.handle
}

// Next moves one unit forward. It returns false at the end of the book.
func (c *Controller) Next() bool {
	t, _ := c.current()
	return t != nil && t.RequestNavigate(progress.Next)
}

// Prev moves one unit back. It returns false at the start of the book.
func (c *Controller) Prev() bool {
	t, _ := c.current()
	return t != nil && t.RequestNavigate(progress.Prev)
}

// SliderDrag previews the page the slider points at without moving.
func (c *Controller) SliderDrag(percent float64) int {
	t, _ := c.current()
	if t == nil {
		return 0
	}
	return t.Preview(percent)
}

// SliderRelease jumps to the slider position.
func (c *Controller) SliderRelease(percent float64) {
	if t, _ := c.current(); t != nil {
		t.RequestJump(percent)
	}
}

// Resize re-lays out the view. The reading position does not change.
func (c *Controller) Resize(width, height int) {
	if t, _ := c.current(); t != nil {
		t.Relayout(width, height)
	}
}

// Scroll reports scrolling to fraction of the current unit. Only reflowable
// books have positions inside a unit.
func (c *Controller) Scroll(fraction float64) {
	t, h := c.current()
	if t == nil || h.EPUB == nil {
		return
	}
	t.OnRendererLocation(h.EPUB.Locate(fraction))
}

// Position returns the reading position of the open book.
func (c *Controller) Position() (progress.ReadingPosition, error) {
	t, _ := c.current()
	if t == nil {
		return progress.ReadingPosition{}, ErrNoBook
	}
	return t.Position(), nil
}

// Book returns the open book, or nil.
func (c *Controller) Book() *entities.Book {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.book
}

// Text returns what the view shows for the current unit: the whole text of
// an EPUB unit, or a page caption for PDFs.
func (c *Controller) Text() string {
	t, h := c.current()
	switch {
	case t == nil:
		return ""
	case h.EPUB != nil:
		text, _ := h.EPUB.Current()
		return text
	default:
		return fmt.Sprintf("Page %d of %d", h.PDF.Page(), h.PDF.TotalUnits())
	}
}

// Wait blocks until renderer calls and index generation started so far are
// done.
func (c *Controller) Wait() {
	if t, _ := c.current(); t != nil {
		t.Wait()
	}
	c.indexing.Wait()
}

// Close flushes the position of the open book and releases it. Closing
// without an open book is a no-op.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	t, book, stop := c.tracker, c.book, c.stopIdx
	c.book, c.handle, c.tracker, c.stopIdx = nil, nil, nil, nil
	c.mu.Unlock()

	if t == nil {
		return nil
	}
	stop()
	c.indexing.Wait()
	err := t.Close(ctx)
	c.log.Info("book closed", zap.String("book_id", book.BookID))
	return err
}
