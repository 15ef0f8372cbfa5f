// Package progress keeps the displayed page number, the progress slider and the
// persisted reading position of one open book consistent.
//
// A Tracker reconciles three signals: locations reported by the content
// renderer, navigation requested by the user, and its own locally tracked page
// counter. Renderer calls run asynchronously and may be slow, fail or never
// answer; the tracker applies every user-driven change synchronously and treats
// renderer acknowledgements as corrections of that optimistic state.
//
// # Usage
//
//	tracker := progress.NewTracker(bookID, renderer, gateway,
//		progress.WithListener(display),
//		progress.WithLogger(logger),
//	)
//	if err := tracker.Open(ctx); err != nil {
//		// ErrRendererUnavailable: leave the reading session
//	}
//	tracker.RequestNavigate(progress.Next)
//	tracker.RequestJump(0.5)
//	defer tracker.Close(ctx)
package progress

import (
	"math"
	"time"
)

// Locator is a renderer-native position token: an EPUB CFI or a PDF page
// number. Only the renderer that produced it can interpret it.
type Locator string

// Location is what a renderer reports once it has settled on a displayed unit.
// PageHint is the 1-based page index derived from the locator, or 0 when the
// renderer could not tell.
type Location struct {
	Locator  Locator
	PageHint int
}

// Direction of a single-unit navigation step.
type Direction int

const (
	Next Direction = iota + 1
	Prev
)

func (d Direction) String() string {
	switch d {
	case Next:
		return "next"
	case Prev:
		return "prev"
	default:
		return "unknown"
	}
}

// GenerationState reports whether a fine-grained location index is available.
type GenerationState int

const (
	GenerationNotStarted GenerationState = iota
	GenerationInProgress
	GenerationReady
)

func (g GenerationState) String() string {
	switch g {
	case GenerationNotStarted:
		return "not_started"
	case GenerationInProgress:
		return "in_progress"
	case GenerationReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ReadingPosition is where the reader currently is in a book. Percent is
// derived on every snapshot and never treated as a source of truth.
type ReadingPosition struct {
	BookID     string          `json:"book_id"`
	Locator    Locator         `json:"locator,omitempty"`
	PageIndex  int             `json:"page_index"`
	TotalUnits int             `json:"total_units"`
	Percent    float64         `json:"percent"`
	Generation GenerationState `json:"generation"`
}

// SavedPosition is the durable part of a ReadingPosition.
type SavedPosition struct {
	BookID     string    `json:"book_id"`
	Locator    Locator   `json:"locator"`
	PageIndex  int       `json:"page_index"`
	LastReadAt time.Time `json:"last_read_at"`
}

// clampPage keeps a page index inside [1, total].
func clampPage(page, total int) int {
	if total < 1 {
		total = 1
	}
	return max(1, min(page, total))
}

// clampUnit maps any float onto [0, 1]; NaN becomes 0.
func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
