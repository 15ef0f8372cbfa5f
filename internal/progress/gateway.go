package progress

import "context"

// Gateway persists the last known position of a book. Save is an upsert that
// records the current time as the last-read timestamp. Load returns
// ErrNotFound when the book has never been saved.
type Gateway interface {
	Save(ctx context.Context, bookID string, loc Locator, pageIndex int) error
	Load(ctx context.Context, bookID string) (SavedPosition, error)
}

// Listener receives the display values produced by a tracker. Calls may come
// from any goroutine.
type Listener interface {
	PageDisplayChanged(pageIndex, totalUnits int)
	PercentDisplayChanged(percent float64)
}

type nopListener struct{}

func (nopListener) PageDisplayChanged(int, int)   {}
func (nopListener) PercentDisplayChanged(float64) {}
