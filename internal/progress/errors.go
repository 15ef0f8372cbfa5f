package progress

import "errors"

var (
	// ErrRendererUnavailable means the renderer could not open the content.
	// It ends the reading session; the tracker does not retry.
	ErrRendererUnavailable = errors.New("renderer unavailable")

	// ErrNavigationFailed means a single step or jump was rejected. The
	// optimistic position is kept.
	ErrNavigationFailed = errors.New("navigation failed")

	// ErrResolutionUnavailable means a percent/locator conversion was not
	// possible. It always has a page-index fallback and is never shown to
	// the reader.
	ErrResolutionUnavailable = errors.New("resolution unavailable")

	// ErrPersistenceFailed means a save or load failed. The in-memory
	// position stays authoritative for the session.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrNotFound is returned by Gateway.Load for books without a saved
	// position.
	ErrNotFound = errors.New("reading position not found")
)
