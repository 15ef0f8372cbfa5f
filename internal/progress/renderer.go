package progress

import "context"

// LocatorResolver maps a locator to a fine-grained progress fraction.
type LocatorResolver interface {
	// ResolveLocator returns false when no fine-grained percentage is known.
	ResolveLocator(loc Locator) (float64, bool)
}

// Renderer is the content engine capability the tracker drives. Both the
// reflowable EPUB and the fixed-page PDF renderers implement it.
//
// Navigation methods block until the renderer has settled and return the
// location it settled on. The tracker always calls them from a goroutine, and
// cancels ctx when the book is unloaded. Resolution methods are called while the
// tracker holds its lock and must not call back into the tracker.
type Renderer interface {
	LocatorResolver

	// Display shows the unit addressed by loc, or the beginning of the book
	// when loc is empty.
	Display(ctx context.Context, loc Locator) (Location, error)

	// DisplayUnit shows the unit with the given 1-based page index (spine
	// item for EPUB, page for PDF).
	DisplayUnit(ctx context.Context, pageIndex int) (Location, error)

	// Step advances or retreats by one unit.
	Step(ctx context.Context, dir Direction) (Location, error)

	// ResolvePercent returns the locator for a fraction of the book, or false
	// when fine-grained resolution is not possible.
	ResolvePercent(percent float64) (Locator, bool)

	// TotalUnits is the number of spine items or pages; always at least 1.
	TotalUnits() int
}

// Relayouter is implemented by renderers that re-layout on resize. A resize
// never changes the reading position.
type Relayouter interface {
	Relayout(width, height int)
}
