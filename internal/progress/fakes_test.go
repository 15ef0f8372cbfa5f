package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// fakeRenderer addresses units through locators of the form "unit-N".
type fakeRenderer struct {
	mu      sync.Mutex
	total   int
	unit    int
	fine    map[Locator]float64
	reject  map[Locator]bool
	openErr error
	stepFn  func(ctx context.Context, dir Direction) (Location, error)
	percent func(p float64) (Locator, bool)
	calls   []string
	width   int
	height  int
}

func newFakeRenderer(total int) *fakeRenderer {
	return &fakeRenderer{total: total, unit: 1, fine: map[Locator]float64{}, reject: map[Locator]bool{}}
}

func unitLocator(n int) Locator { return Locator(fmt.Sprintf("unit-%d", n)) }

func (f *fakeRenderer) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRenderer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRenderer) Display(ctx context.Context, loc Locator) (Location, error) {
	f.record("display:" + string(loc))
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.openErr != nil {
		return Location{}, f.openErr
	}
	if f.reject[loc] {
		return Location{}, errors.New("unknown locator")
	}
	if loc == "" {
		f.unit = 1
		return Location{Locator: unitLocator(1), PageHint: 1}, nil
	}
	var n int
	if _, err := fmt.Sscanf(string(loc), "unit-%d", &n); err != nil {
		// Fine-grained locators carry no page hint.
		return Location{Locator: loc}, nil
	}
	f.unit = n
	return Location{Locator: loc, PageHint: n}, nil
}

func (f *fakeRenderer) DisplayUnit(ctx context.Context, pageIndex int) (Location, error) {
	f.record(fmt.Sprintf("unit:%d", pageIndex))
	f.mu.Lock()
	defer f.mu.Unlock()

	f.unit = pageIndex
	return Location{Locator: unitLocator(pageIndex), PageHint: pageIndex}, nil
}

func (f *fakeRenderer) Step(ctx context.Context, dir Direction) (Location, error) {
	f.record("step:" + dir.String())
	if f.stepFn != nil {
		return f.stepFn(ctx, dir)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if dir == Next {
		f.unit++
	} else {
		f.unit--
	}
	return Location{Locator: unitLocator(f.unit), PageHint: f.unit}, nil
}

func (f *fakeRenderer) ResolvePercent(p float64) (Locator, bool) {
	if f.percent == nil {
		return "", false
	}
	return f.percent(p)
}

func (f *fakeRenderer) ResolveLocator(loc Locator) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.fine[loc]
	return p, ok
}

func (f *fakeRenderer) TotalUnits() int { return f.total }

func (f *fakeRenderer) Relayout(width, height int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.width, f.height = width, height
}

type memGateway struct {
	mu      sync.Mutex
	saved   map[string]SavedPosition
	history []SavedPosition
	loadErr error
	saveErr error
	gate    chan struct{}
}

func newMemGateway() *memGateway {
	return &memGateway{saved: map[string]SavedPosition{}}
}

func (g *memGateway) Save(ctx context.Context, bookID string, loc Locator, pageIndex int) error {
	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.saveErr != nil {
		return g.saveErr
	}
	pos := SavedPosition{BookID: bookID, Locator: loc, PageIndex: pageIndex, LastReadAt: time.Now()}
	g.saved[bookID] = pos
	g.history = append(g.history, pos)
	return nil
}

func (g *memGateway) Load(ctx context.Context, bookID string) (SavedPosition, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.loadErr != nil {
		return SavedPosition{}, g.loadErr
	}
	pos, ok := g.saved[bookID]
	if !ok {
		return SavedPosition{}, ErrNotFound
	}
	return pos, nil
}

func (g *memGateway) Saved(bookID string) (SavedPosition, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	pos, ok := g.saved[bookID]
	return pos, ok
}

func (g *memGateway) History() []SavedPosition {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]SavedPosition(nil), g.history...)
}

type recordingListener struct {
	mu      sync.Mutex
	page    int
	total   int
	percent float64
	updates int
}

func (l *recordingListener) PageDisplayChanged(pageIndex, totalUnits int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.page, l.total = pageIndex, totalUnits
	l.updates++
}

func (l *recordingListener) PercentDisplayChanged(percent float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.percent = percent
}

func (l *recordingListener) Last() (int, int, float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page, l.total, l.percent
}

type errorSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *errorSink) Handle(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *errorSink) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}
