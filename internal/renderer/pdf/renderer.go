package pdf

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/mrlokans/rustypages/internal/progress"
)

var (
	ErrOutOfRange = errors.New("page out of range")
	ErrBoundary   = errors.New("no page in that direction")
	// ErrSuperseded is returned to a queued render that a newer one replaced.
	ErrSuperseded = errors.New("render superseded")
)

// RenderFunc draws one page. It is called for one page at a time.
type RenderFunc func(ctx context.Context, page int) error

type request struct {
	ctx  context.Context
	page int
	done chan result
}

type result struct {
	loc progress.Location
	err error
}

// Renderer shows one page at a time. Page requests arriving while a page is
// being drawn are coalesced: only the newest waits for its turn and older
// queued requests fail with ErrSuperseded.
type Renderer struct {
	doc    *Document
	render RenderFunc

	mu        sync.Mutex
	current   int
	target    int // newest requested page
	rendering bool
	pending   *request
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithRenderFunc sets the page drawing hook.
func WithRenderFunc(fn RenderFunc) Option {
	return func(r *Renderer) {
		if fn != nil {
			r.render = fn
		}
	}
}

func NewRenderer(doc *Document, opts ...Option) *Renderer {
	r := &Renderer{
		doc:     doc,
		current: 1,
		target:  1,
		render:  func(context.Context, int) error { return nil },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) TotalUnits() int {
	return r.doc.Pages
}

// Page returns the page last drawn.
func (r *Renderer) Page() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Renderer) Display(ctx context.Context, loc progress.Locator) (progress.Location, error) {
	if loc == "" {
		return r.show(ctx, 1)
	}
	page, err := strconv.Atoi(string(loc))
	if err != nil {
		return progress.Location{}, fmt.Errorf("malformed locator %q", loc)
	}
	return r.show(ctx, page)
}

func (r *Renderer) DisplayUnit(ctx context.Context, page int) (progress.Location, error) {
	return r.show(ctx, page)
}

// Step moves relative to the newest requested page, so steps issued while a
// page is still being drawn accumulate.
func (r *Renderer) Step(ctx context.Context, dir progress.Direction) (progress.Location, error) {
	r.mu.Lock()
	page := r.target
	switch dir {
	case progress.Next:
		page++
	case progress.Prev:
		page--
	}
	if page < 1 || page > r.doc.Pages {
		r.mu.Unlock()
		return progress.Location{}, ErrBoundary
	}
	r.target = page
	r.mu.Unlock()

	return r.show(ctx, page)
}

// ResolvePercent always fails; page-level positions are all a PDF has.
func (r *Renderer) ResolvePercent(float64) (progress.Locator, bool) {
	return "", false
}

func (r *Renderer) ResolveLocator(progress.Locator) (float64, bool) {
	return 0, false
}

func (r *Renderer) show(ctx context.Context, page int) (progress.Location, error) {
	if err := ctx.Err(); err != nil {
		return progress.Location{}, err
	}
	if page < 1 || page > r.doc.Pages {
		return progress.Location{}, fmt.Errorf("%w: %d", ErrOutOfRange, page)
	}

	r.mu.Lock()
	r.target = page
	if r.rendering {
		if r.pending != nil {
			r.pending.done <- result{err: ErrSuperseded}
		}
		req := &request{ctx: ctx, page: page, done: make(chan result, 1)}
		r.pending = req
		r.mu.Unlock()

		select {
		case res := <-req.done:
			return res.loc, res.err
		case <-ctx.Done():
			return progress.Location{}, ctx.Err()
		}
	}
	r.rendering = true
	r.mu.Unlock()

	res := r.draw(ctx, page)
	for {
		r.mu.Lock()
		next := r.pending
		r.pending = nil
		if next == nil {
			r.rendering = false
			r.mu.Unlock()
			return res.loc, res.err
		}
		r.mu.Unlock()

		next.done <- r.draw(next.ctx, next.page)
	}
}

func (r *Renderer) draw(ctx context.Context, page int) result {
	if err := r.render(ctx, page); err != nil {
		r.mu.Lock()
		if r.pending == nil {
			r.target = r.current
		}
		r.mu.Unlock()
		return result{err: fmt.Errorf("render page %d: %w", page, err)}
	}
	r.mu.Lock()
	r.current = page
	r.mu.Unlock()
	return result{loc: progress.Location{Locator: progress.Locator(strconv.Itoa(page)), PageHint: page}}
}
