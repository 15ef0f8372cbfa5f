package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// DefaultAckGrace is how long the tracker waits for a renderer to acknowledge
// a navigation request before the optimistic position becomes the saved one.
const DefaultAckGrace = 250 * time.Millisecond

// Option configures a Tracker.
type Option func(*Tracker)

// WithListener sets the receiver of page and percent display updates.
func WithListener(l Listener) Option {
	return func(t *Tracker) {
		if l != nil {
			t.listener = l
		}
	}
}

// WithLogger sets the tracker logger.
func WithLogger(log *zap.Logger) Option {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// WithAckGrace overrides DefaultAckGrace.
func WithAckGrace(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.grace = d
		}
	}
}

// WithErrorHandler receives navigation and persistence failures. Handlers are
// called from background goroutines.
func WithErrorHandler(fn func(error)) Option {
	return func(t *Tracker) {
		if fn != nil {
			t.onError = fn
		}
	}
}

// Tracker owns the reading position of one open book.
//
// Every mutation runs under a single mutex and is applied before the method
// returns. Renderer calls happen on goroutines tagged with the current epoch
// and request sequence: results from an unloaded book or from a request that a
// newer one has superseded are dropped. Navigation calls reach the renderer one
// at a time, in request order, so relative steps compose.
type Tracker struct {
	bookID   string
	log      *zap.Logger
	listener Listener
	grace    time.Duration
	onError  func(error)
	saver    *saver
	calls    conc.WaitGroup

	mu         sync.Mutex
	renderer   Renderer
	epoch      uint64
	ctx        context.Context
	cancel     context.CancelFunc
	locator    Locator
	page       int
	total      int
	generation GenerationState
	seq        uint64
	acked      uint64
	// tail is closed when the most recently queued renderer call returns.
	tail chan struct{}
}

// NewTracker creates a tracker for bookID, driving r and saving through g.
// A nil gateway disables persistence.
func NewTracker(bookID string, r Renderer, g Gateway, opts ...Option) *Tracker {
	t := &Tracker{
		bookID:   bookID,
		log:      zap.NewNop(),
		listener: nopListener{},
		grace:    DefaultAckGrace,
		onError:  func(error) {},
		renderer: r,
		page:     1,
		total:    1,
	}
	for _, opt := range opts {
		opt(t)
	}
	if r != nil {
		t.total = max(1, r.TotalUnits())
	}
	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.saver = newSaver(g, bookID, t.log, t.report)
	return t
}

// Open restores the saved position, if any, and displays it. A saved locator
// the renderer no longer accepts falls back to the saved page index, then to
// the beginning of the book.
func (t *Tracker) Open(ctx context.Context) error {
	t.mu.Lock()
	r, epoch := t.renderer, t.epoch
	t.mu.Unlock()

	if r == nil {
		return ErrRendererUnavailable
	}

	var saved SavedPosition
	if gw := t.saver.gateway; gw != nil {
		var err error
		saved, err = gw.Load(ctx, t.bookID)
		switch {
		case err == nil:
			t.log.Debug("restoring reading position",
				zap.String("book_id", t.bookID),
				zap.String("locator", string(saved.Locator)),
				zap.Int("page_index", saved.PageIndex))
		case errors.Is(err, ErrNotFound):
			saved = SavedPosition{}
		default:
			saved = SavedPosition{}
			t.log.Warn("failed to load reading position", zap.String("book_id", t.bookID), zap.Error(err))
			t.report(fmt.Errorf("%w: load %s: %w", ErrPersistenceFailed, t.bookID, err))
		}
	}

	loc, err := t.restore(ctx, r, saved)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRendererUnavailable, err)
	}

	t.apply(epoch, 0, loc)
	return nil
}

func (t *Tracker) restore(ctx context.Context, r Renderer, saved SavedPosition) (Location, error) {
	if saved.Locator != "" {
		loc, err := r.Display(ctx, saved.Locator)
		if err == nil {
			if loc.PageHint <= 0 && saved.PageIndex > 0 {
				loc.PageHint = saved.PageIndex
			}
			return loc, nil
		}
		t.log.Info("saved locator rejected by renderer",
			zap.String("book_id", t.bookID),
			zap.String("locator", string(saved.Locator)),
			zap.Error(err))
	}
	if saved.PageIndex > 1 {
		if loc, err := r.DisplayUnit(ctx, clampPage(saved.PageIndex, r.TotalUnits())); err == nil {
			return loc, nil
		}
	}
	return r.Display(ctx, "")
}

// OnRendererLocation applies a location the renderer reported on its own, for
// example after scrolling inside a unit. Events that arrive after the book was
// unloaded are ignored.
func (t *Tracker) OnRendererLocation(loc Location) {
	t.mu.Lock()
	epoch := t.epoch
	t.mu.Unlock()
	t.apply(epoch, 0, loc)
}

// LocationCallback returns a callback bound to the current book. Once the book
// is unloaded the callback becomes a no-op, so renderer events queued before
// the unload cannot touch the next session.
func (t *Tracker) LocationCallback() func(Location) {
	t.mu.Lock()
	epoch := t.epoch
	t.mu.Unlock()
	return func(loc Location) { t.apply(epoch, 0, loc) }
}

// RequestNavigate moves one unit in dir. It returns false, without calling the
// renderer, when the move would leave [1, TotalUnits] or no book is loaded.
func (t *Tracker) RequestNavigate(dir Direction) bool {
	t.mu.Lock()
	r := t.renderer
	if r == nil {
		t.mu.Unlock()
		return false
	}
	switch {
	case dir == Next && t.page < t.total:
		t.page++
	case dir == Prev && t.page > 1:
		t.page--
	default:
		t.mu.Unlock()
		return false
	}
	// The previous locator no longer describes the displayed unit.
	t.locator = ""
	t.seq++
	seq, epoch, ctx := t.seq, t.epoch, t.ctx
	snap := t.snapshotLocked()
	start := t.queueLocked(ctx, func() {
		loc, err := r.Step(ctx, dir)
		if err != nil {
			t.fail(epoch, seq, fmt.Errorf("%w: step %s: %w", ErrNavigationFailed, dir, err))
			return
		}
		t.apply(epoch, seq, loc)
	})
	t.mu.Unlock()

	t.publish(snap)
	start()
	t.watchAck(epoch, seq)
	return true
}

// RequestJump moves to the given fraction of the book. The page index is
// updated immediately; the renderer is asked for the fine-grained locator when
// the location index is ready, and for the whole unit otherwise.
func (t *Tracker) RequestJump(percent float64) {
	p := clampUnit(percent)

	t.mu.Lock()
	r := t.renderer
	if r == nil {
		t.mu.Unlock()
		return
	}
	target := TargetPage(p, t.total)
	t.page = target
	t.locator = ""
	t.seq++
	seq, epoch, ctx, generation := t.seq, t.epoch, t.ctx, t.generation
	snap := t.snapshotLocked()
	start := t.queueLocked(ctx, func() {
		if generation == GenerationReady {
			if loc, ok := r.ResolvePercent(p); ok {
				settled, err := r.Display(ctx, loc)
				if err == nil {
					t.apply(epoch, seq, settled)
					return
				}
				t.log.Debug("fine-grained jump failed; falling back to unit",
					zap.String("book_id", t.bookID),
					zap.Error(fmt.Errorf("%w: %w", ErrResolutionUnavailable, err)))
			} else {
				t.log.Debug("percent not resolvable; falling back to unit",
					zap.String("book_id", t.bookID),
					zap.Float64("percent", p))
			}
		}
		settled, err := r.DisplayUnit(ctx, target)
		if err != nil {
			t.fail(epoch, seq, fmt.Errorf("%w: jump to %d: %w", ErrNavigationFailed, target, err))
			return
		}
		t.apply(epoch, seq, settled)
	})
	t.mu.Unlock()

	t.publish(snap)
	start()
	t.watchAck(epoch, seq)
}

// Preview reports the page a jump to percent would land on, without moving.
// It is used while the slider is being dragged.
func (t *Tracker) Preview(percent float64) int {
	p := clampUnit(percent)

	t.mu.Lock()
	total := t.total
	t.mu.Unlock()

	page := TargetPage(p, total)
	t.listener.PageDisplayChanged(page, total)
	t.listener.PercentDisplayChanged(p)
	return page
}

// PercentOf computes the progress fraction of pos using the loaded renderer's
// location index.
func (t *Tracker) PercentOf(pos ReadingPosition) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Percent(pos, t.resolverLocked())
}

// Position returns a snapshot of the current reading position.
func (t *Tracker) Position() ReadingPosition {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// BeginIndexing marks the location index as being generated.
func (t *Tracker) BeginIndexing() {
	t.setGeneration(GenerationInProgress)
}

// IndexReady marks the location index as usable, either because generation
// finished or because a precomputed index was loaded.
func (t *Tracker) IndexReady() {
	t.setGeneration(GenerationReady)
}

func (t *Tracker) setGeneration(g GenerationState) {
	t.mu.Lock()
	if t.renderer == nil || g <= t.generation {
		t.mu.Unlock()
		return
	}
	t.generation = g
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.log.Debug("location index state changed",
		zap.String("book_id", t.bookID),
		zap.Stringer("generation", g))
	t.publish(snap)
}

// Relayout forwards a viewport change to renderers that support it. The
// reading position is left untouched.
func (t *Tracker) Relayout(width, height int) {
	t.mu.Lock()
	r := t.renderer
	t.mu.Unlock()

	if rl, ok := r.(Relayouter); ok {
		rl.Relayout(width, height)
	}
}

// Unload releases the renderer and resets the position. In-flight renderer
// calls are cancelled and their results ignored. Unload is idempotent.
func (t *Tracker) Unload() {
	t.mu.Lock()
	t.epoch++
	t.cancel()
	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.renderer = nil
	t.locator = ""
	t.page = 1
	t.total = 1
	t.generation = GenerationNotStarted
	t.seq = 0
	t.acked = 0
	t.tail = nil
	t.mu.Unlock()

	t.log.Debug("book unloaded", zap.String("book_id", t.bookID))
}

// Wait blocks until every renderer call started so far has returned.
func (t *Tracker) Wait() {
	t.calls.Wait()
}

// Flush waits for pending position writes.
func (t *Tracker) Flush(ctx context.Context) error {
	return t.saver.flush(ctx)
}

// Close unloads the book and waits for pending position writes. A request
// the renderer has not acknowledged yet is saved with its optimistic page.
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	pending := t.renderer != nil && t.acked < t.seq
	snap := t.snapshotLocked()
	t.mu.Unlock()

	if pending {
		t.saver.schedule(snap.Locator, snap.PageIndex)
	}
	t.Unload()
	t.Wait()
	return t.saver.flush(ctx)
}

// queueLocked reserves the next slot in the renderer call order. The returned
// start launches fn, which runs once every call queued before it has returned.
// A cancelled ctx releases the wait so an unloaded book drains its queue.
func (t *Tracker) queueLocked(ctx context.Context, fn func()) (start func()) {
	prev, done := t.tail, make(chan struct{})
	t.tail = done
	return func() {
		t.calls.Go(func() {
			defer close(done)
			if prev != nil {
				select {
				case <-prev:
				case <-ctx.Done():
					return
				}
			}
			fn()
		})
	}
}

// apply reconciles a renderer-reported location. seq is 0 for unsolicited
// events and the request sequence for acknowledgements.
func (t *Tracker) apply(epoch, seq uint64, loc Location) {
	t.mu.Lock()
	if epoch != t.epoch || t.renderer == nil {
		t.mu.Unlock()
		return
	}
	if seq != 0 {
		if seq != t.seq {
			t.mu.Unlock()
			t.log.Debug("dropping superseded renderer acknowledgement",
				zap.String("book_id", t.bookID),
				zap.Uint64("seq", seq))
			return
		}
		t.acked = seq
	}
	if loc.Locator != "" {
		t.locator = loc.Locator
	}
	if loc.PageHint > 0 {
		t.page = clampPage(loc.PageHint, t.total)
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.publish(snap)
	t.saver.schedule(snap.Locator, snap.PageIndex)
}

// watchAck persists the optimistic position when the renderer has not
// acknowledged request seq within the grace period.
func (t *Tracker) watchAck(epoch, seq uint64) {
	time.AfterFunc(t.grace, func() {
		t.mu.Lock()
		if epoch != t.epoch || seq != t.seq || t.acked >= seq {
			t.mu.Unlock()
			return
		}
		snap := t.snapshotLocked()
		t.mu.Unlock()

		t.log.Debug("renderer did not acknowledge navigation; keeping optimistic position",
			zap.String("book_id", t.bookID),
			zap.Int("page_index", snap.PageIndex),
			zap.Duration("grace", t.grace))
		t.saver.schedule(snap.Locator, snap.PageIndex)
	})
}

// fail reports a failed request unless the book was unloaded or a newer
// request replaced it.
func (t *Tracker) fail(epoch, seq uint64, err error) {
	t.mu.Lock()
	current := epoch == t.epoch && seq == t.seq
	t.mu.Unlock()

	if !current {
		t.log.Debug("ignoring failure of superseded request", zap.String("book_id", t.bookID), zap.Error(err))
		return
	}
	t.log.Warn("renderer navigation failed", zap.String("book_id", t.bookID), zap.Error(err))
	t.report(err)
}

func (t *Tracker) report(err error) {
	t.onError(err)
}

func (t *Tracker) publish(pos ReadingPosition) {
	t.listener.PageDisplayChanged(pos.PageIndex, pos.TotalUnits)
	t.listener.PercentDisplayChanged(pos.Percent)
}

func (t *Tracker) resolverLocked() LocatorResolver {
	if t.renderer == nil {
		return nil
	}
	return t.renderer
}

func (t *Tracker) snapshotLocked() ReadingPosition {
	pos := ReadingPosition{
		BookID:     t.bookID,
		Locator:    t.locator,
		PageIndex:  t.page,
		TotalUnits: t.total,
		Generation: t.generation,
	}
	pos.Percent = Percent(pos, t.resolverLocked())
	return pos
}
