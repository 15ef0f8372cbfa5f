package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const saveTimeout = 10 * time.Second

// saver serializes position writes for one book. Only the latest pending
// position is kept, so a burst of page turns costs at most two writes and an
// older position can never overwrite a newer one.
type saver struct {
	gateway Gateway
	bookID  string
	log     *zap.Logger
	report  func(error)

	mu      sync.Mutex
	pending *SavedPosition
	done    chan struct{} // closed when the running worker drains; nil when idle
}

func newSaver(g Gateway, bookID string, log *zap.Logger, report func(error)) *saver {
	return &saver{gateway: g, bookID: bookID, log: log, report: report}
}

func (s *saver) schedule(loc Locator, pageIndex int) {
	if s.gateway == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = &SavedPosition{BookID: s.bookID, Locator: loc, PageIndex: pageIndex}
	if s.done != nil {
		return
	}
	s.done = make(chan struct{})
	go s.run(s.done)
}

func (s *saver) run(done chan struct{}) {
	defer close(done)

	for {
		s.mu.Lock()
		next := s.pending
		s.pending = nil
		if next == nil {
			s.done = nil
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		err := s.gateway.Save(ctx, next.BookID, next.Locator, next.PageIndex)
		cancel()
		if err != nil {
			s.log.Warn("failed to save reading position",
				zap.String("book_id", next.BookID),
				zap.Int("page_index", next.PageIndex),
				zap.Error(err))
			s.report(fmt.Errorf("%w: save %s: %w", ErrPersistenceFailed, next.BookID, err))
			continue
		}
		s.log.Debug("saved reading position",
			zap.String("book_id", next.BookID),
			zap.Int("page_index", next.PageIndex))
	}
}

// flush waits until every scheduled write has been attempted.
func (s *saver) flush(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
