package epub

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/mrlokans/rustypages/internal/locations"
	"github.com/mrlokans/rustypages/internal/progress"
)

var (
	ErrOutOfRange = errors.New("unit out of range")
	ErrBoundary   = errors.New("no unit in that direction")
)

// Renderer displays one spine unit at a time and reports positions as
// locators. It satisfies progress.Renderer.
type Renderer struct {
	book *Book

	mu     sync.Mutex
	index  *locations.Index
	unit   int
	offset int
	width  int
	height int
}

// NewRenderer creates a renderer positioned at the start of the book.
func NewRenderer(book *Book) *Renderer {
	return &Renderer{book: book}
}

// SetIndex installs a location index. An index built for a different spine is
// rejected.
func (r *Renderer) SetIndex(ix *locations.Index) error {
	if ix != nil && ix.UnitCount() != len(r.book.Units) {
		return fmt.Errorf("%w: index covers %d units, book has %d",
			locations.ErrInvalidIndex, ix.UnitCount(), len(r.book.Units))
	}
	r.mu.Lock()
	r.index = ix
	r.mu.Unlock()
	return nil
}

// HasIndex reports whether a location index is installed.
func (r *Renderer) HasIndex() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index != nil
}

func (r *Renderer) TotalUnits() int {
	return len(r.book.Units)
}

// Display shows the position addressed by loc, or the start of the book when
// loc is empty.
func (r *Renderer) Display(ctx context.Context, loc progress.Locator) (progress.Location, error) {
	if err := ctx.Err(); err != nil {
		return progress.Location{}, err
	}
	unit, offset := 0, 0
	if loc != "" {
		var err error
		if unit, offset, err = ParseLocator(loc); err != nil {
			return progress.Location{}, err
		}
	}
	if unit < 0 || unit >= len(r.book.Units) {
		return progress.Location{}, fmt.Errorf("%w: %d", ErrOutOfRange, unit+1)
	}
	return r.show(unit, offset), nil
}

// DisplayUnit shows the start of the unit with the given page number.
func (r *Renderer) DisplayUnit(ctx context.Context, page int) (progress.Location, error) {
	if err := ctx.Err(); err != nil {
		return progress.Location{}, err
	}
	if page < 1 || page > len(r.book.Units) {
		return progress.Location{}, fmt.Errorf("%w: %d", ErrOutOfRange, page)
	}
	return r.show(page-1, 0), nil
}

// Step shows the start of the adjacent unit.
func (r *Renderer) Step(ctx context.Context, dir progress.Direction) (progress.Location, error) {
	if err := ctx.Err(); err != nil {
		return progress.Location{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.unit
	switch dir {
	case progress.Next:
		next++
	case progress.Prev:
		next--
	}
	if next < 0 || next >= len(r.book.Units) {
		return progress.Location{}, ErrBoundary
	}
	return r.showLocked(next, 0), nil
}

// Locate moves within the current unit to the given fraction of its text,
// as scrolling does, and returns the resulting location.
func (r *Renderer) Locate(fraction float64) progress.Location {
	if math.IsNaN(fraction) {
		fraction = 0
	}
	fraction = math.Max(0, math.Min(1, fraction))

	r.mu.Lock()
	defer r.mu.Unlock()

	chars := len(r.book.Units[r.unit].Text)
	return r.showLocked(r.unit, int(fraction*float64(chars)))
}

func (r *Renderer) ResolvePercent(percent float64) (progress.Locator, bool) {
	r.mu.Lock()
	ix := r.index
	r.mu.Unlock()

	if ix == nil {
		return "", false
	}
	unit, offset, ok := ix.Resolve(percent)
	if !ok {
		return "", false
	}
	return FormatLocator(unit, offset), true
}

func (r *Renderer) ResolveLocator(loc progress.Locator) (float64, bool) {
	r.mu.Lock()
	ix := r.index
	r.mu.Unlock()

	if ix == nil {
		return 0, false
	}
	unit, offset, err := ParseLocator(loc)
	if err != nil {
		return 0, false
	}
	return ix.PercentOf(unit, offset)
}

// Relayout records the viewport size.
func (r *Renderer) Relayout(width, height int) {
	r.mu.Lock()
	r.width, r.height = width, height
	r.mu.Unlock()
}

// Viewport returns the last size passed to Relayout.
func (r *Renderer) Viewport() (width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// Current returns the displayed unit's text and the offset within it.
func (r *Renderer) Current() (text string, offset int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.book.Units[r.unit].Text), r.offset
}

func (r *Renderer) show(unit, offset int) progress.Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.showLocked(unit, offset)
}

func (r *Renderer) showLocked(unit, offset int) progress.Location {
	offset = max(0, min(offset, len(r.book.Units[unit].Text)))
	r.unit, r.offset = unit, offset
	return progress.Location{Locator: FormatLocator(unit, offset), PageHint: unit + 1}
}
