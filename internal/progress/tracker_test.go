package progress

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGrace = 20 * time.Millisecond

func openTracker(t *testing.T, r *fakeRenderer, g *memGateway, opts ...Option) *Tracker {
	t.Helper()
	opts = append([]Option{WithAckGrace(testGrace)}, opts...)
	var gw Gateway
	if g != nil {
		gw = g
	}
	tr := NewTracker("book-1", r, gw, opts...)
	require.NoError(t, tr.Open(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = tr.Close(ctx)
	})
	return tr
}

func TestTracker_OpenStartsAtBeginning(t *testing.T) {
	r := newFakeRenderer(10)
	tr := openTracker(t, r, newMemGateway())

	pos := tr.Position()
	assert.Equal(t, 1, pos.PageIndex)
	assert.Equal(t, 10, pos.TotalUnits)
	assert.Equal(t, unitLocator(1), pos.Locator)
	assert.Equal(t, 0.0, pos.Percent)
}

func TestTracker_OpenRestoresSavedPosition(t *testing.T) {
	g := newMemGateway()
	g.saved["book-1"] = SavedPosition{BookID: "book-1", Locator: unitLocator(4), PageIndex: 4}

	tr := openTracker(t, newFakeRenderer(10), g)

	pos := tr.Position()
	assert.Equal(t, 4, pos.PageIndex)
	assert.Equal(t, unitLocator(4), pos.Locator)
}

func TestTracker_OpenFallsBackToSavedPageWhenLocatorRejected(t *testing.T) {
	g := newMemGateway()
	g.saved["book-1"] = SavedPosition{BookID: "book-1", Locator: "stale", PageIndex: 7}
	r := newFakeRenderer(10)
	r.reject["stale"] = true

	tr := openTracker(t, r, g)

	assert.Equal(t, 7, tr.Position().PageIndex)
	assert.Contains(t, r.Calls(), "unit:7")
}

func TestTracker_OpenSurvivesLoadFailure(t *testing.T) {
	g := newMemGateway()
	g.loadErr = errors.New("disk unavailable")
	sink := &errorSink{}

	tr := openTracker(t, newFakeRenderer(10), g, WithErrorHandler(sink.Handle))

	assert.Equal(t, 1, tr.Position().PageIndex)
	require.Len(t, sink.Errors(), 1)
	assert.ErrorIs(t, sink.Errors()[0], ErrPersistenceFailed)
}

func TestTracker_OpenRendererUnavailable(t *testing.T) {
	r := newFakeRenderer(10)
	r.openErr = errors.New("corrupt archive")

	tr := NewTracker("book-1", r, nil)
	err := tr.Open(context.Background())

	assert.ErrorIs(t, err, ErrRendererUnavailable)
}

func TestTracker_OpenWithoutRenderer(t *testing.T) {
	tr := NewTracker("book-1", nil, nil)
	assert.ErrorIs(t, tr.Open(context.Background()), ErrRendererUnavailable)
}

func TestTracker_JumpToMiddle(t *testing.T) {
	r := newFakeRenderer(10)
	listener := &recordingListener{}
	tr := openTracker(t, r, newMemGateway(), WithListener(listener))

	tr.RequestJump(0.5)

	assert.Equal(t, 6, tr.Position().PageIndex)
	page, total, percent := listener.Last()
	assert.Equal(t, 6, page)
	assert.Equal(t, 10, total)
	assert.InDelta(t, 5.0/9, percent, 1e-9, "display shows the landed page, not the slider value")
	assert.Equal(t, tr.Position().Percent, percent)

	tr.Wait()
	assert.Equal(t, 6, tr.Position().PageIndex)
	assert.Contains(t, r.Calls(), "unit:6")
}

func TestTracker_JumpClampsPercent(t *testing.T) {
	tr := openTracker(t, newFakeRenderer(10), nil)

	tr.RequestJump(3.5)
	assert.Equal(t, 10, tr.Position().PageIndex)

	tr.RequestJump(-1)
	assert.Equal(t, 1, tr.Position().PageIndex)
}

func TestTracker_JumpUsesLocationIndexWhenReady(t *testing.T) {
	r := newFakeRenderer(10)
	r.percent = func(p float64) (Locator, bool) { return "cfi-middle", true }
	r.fine["cfi-middle"] = 0.5
	tr := openTracker(t, r, newMemGateway())

	tr.BeginIndexing()
	tr.IndexReady()
	tr.RequestJump(0.5)
	tr.Wait()

	pos := tr.Position()
	assert.Equal(t, Locator("cfi-middle"), pos.Locator)
	assert.Equal(t, 6, pos.PageIndex)
	assert.Equal(t, 0.5, pos.Percent)
	assert.Contains(t, r.Calls(), "display:cfi-middle")
	assert.NotContains(t, r.Calls(), "unit:6")
}

func TestTracker_JumpFallsBackWhenPercentUnresolvable(t *testing.T) {
	r := newFakeRenderer(10)
	tr := openTracker(t, r, nil)

	tr.IndexReady()
	tr.RequestJump(1)
	tr.Wait()

	assert.Equal(t, 10, tr.Position().PageIndex)
	assert.Contains(t, r.Calls(), "unit:10")
}

func TestTracker_ProgressWhileIndexing(t *testing.T) {
	r := newFakeRenderer(21)
	tr := openTracker(t, r, nil)

	tr.BeginIndexing()
	tr.RequestJump(0.1)
	tr.Wait()

	pos := tr.Position()
	assert.Equal(t, GenerationInProgress, pos.Generation)
	assert.Equal(t, 3, pos.PageIndex)
	assert.InDelta(t, 0.1, pos.Percent, 1e-9)
}

func TestTracker_NavigateAcknowledged(t *testing.T) {
	r := newFakeRenderer(10)
	g := newMemGateway()
	tr := openTracker(t, r, g)

	assert.True(t, tr.RequestNavigate(Next))
	assert.Equal(t, 2, tr.Position().PageIndex)
	tr.Wait()

	pos := tr.Position()
	assert.Equal(t, 2, pos.PageIndex)
	assert.Equal(t, unitLocator(2), pos.Locator)

	require.NoError(t, tr.Flush(context.Background()))
	saved, ok := g.Saved("book-1")
	require.True(t, ok)
	assert.Equal(t, 2, saved.PageIndex)
	assert.Equal(t, unitLocator(2), saved.Locator)
}

func TestTracker_DoubleNextWithoutAcknowledgement(t *testing.T) {
	g := newMemGateway()
	g.saved["book-1"] = SavedPosition{BookID: "book-1", Locator: unitLocator(4), PageIndex: 4}
	r := newFakeRenderer(10)
	r.stepFn = func(ctx context.Context, dir Direction) (Location, error) {
		<-ctx.Done()
		return Location{}, ctx.Err()
	}
	tr := openTracker(t, r, g)

	assert.True(t, tr.RequestNavigate(Next))
	assert.True(t, tr.RequestNavigate(Next))

	assert.Equal(t, 6, tr.Position().PageIndex)

	assert.Eventually(t, func() bool {
		saved, _ := g.Saved("book-1")
		return saved.PageIndex == 6
	}, time.Second, 5*time.Millisecond)
}

func TestTracker_SupersededAcknowledgementIsDropped(t *testing.T) {
	g := newMemGateway()
	g.saved["book-1"] = SavedPosition{BookID: "book-1", Locator: unitLocator(4), PageIndex: 4}
	r := newFakeRenderer(10)

	entered := make(chan struct{})
	release := make(chan struct{})
	var steps atomic.Int32
	r.stepFn = func(ctx context.Context, dir Direction) (Location, error) {
		if steps.Add(1) == 1 {
			close(entered)
			<-release
			// A stale acknowledgement for the first request.
			return Location{Locator: unitLocator(2), PageHint: 2}, nil
		}
		return Location{Locator: unitLocator(6), PageHint: 6}, nil
	}
	tr := openTracker(t, r, g)

	require.True(t, tr.RequestNavigate(Next))
	<-entered
	require.True(t, tr.RequestNavigate(Next))

	// The second step waits for the first to return.
	time.Sleep(2 * testGrace)
	assert.Equal(t, int32(1), steps.Load())
	assert.Equal(t, 6, tr.Position().PageIndex)

	close(release)
	tr.Wait()

	pos := tr.Position()
	assert.Equal(t, 6, pos.PageIndex)
	assert.Equal(t, unitLocator(6), pos.Locator)
}

func TestTracker_StepsReachRendererInRequestOrder(t *testing.T) {
	r := newFakeRenderer(10)
	var mu sync.Mutex
	var order []Direction
	r.stepFn = func(ctx context.Context, dir Direction) (Location, error) {
		mu.Lock()
		order = append(order, dir)
		mu.Unlock()
		return Location{}, nil
	}
	tr := openTracker(t, r, nil)

	want := []Direction{Next, Next, Prev, Next, Next, Prev, Next}
	for _, dir := range want {
		require.True(t, tr.RequestNavigate(dir))
	}
	tr.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, order)
	assert.Equal(t, 4, tr.Position().PageIndex)
}

func TestTracker_JumpThenStepsAreOrdered(t *testing.T) {
	r := newFakeRenderer(10)
	tr := openTracker(t, r, nil)

	tr.RequestJump(3.0 / 9)
	require.True(t, tr.RequestNavigate(Next))
	require.True(t, tr.RequestNavigate(Next))
	tr.Wait()

	calls := r.Calls()
	require.GreaterOrEqual(t, len(calls), 3)
	assert.Equal(t, []string{"unit:4", "step:next", "step:next"}, calls[len(calls)-3:])
	assert.Equal(t, 6, tr.Position().PageIndex)
}

func TestTracker_BoundaryNavigationIsNoop(t *testing.T) {
	r := newFakeRenderer(3)
	tr := openTracker(t, r, nil)

	assert.False(t, tr.RequestNavigate(Prev))
	assert.Equal(t, 1, tr.Position().PageIndex)

	tr.RequestJump(1)
	tr.Wait()
	assert.False(t, tr.RequestNavigate(Next))
	assert.Equal(t, 3, tr.Position().PageIndex)

	for _, call := range r.Calls() {
		assert.NotContains(t, call, "step:")
	}
}

func TestTracker_UnknownDirectionIsNoop(t *testing.T) {
	tr := openTracker(t, newFakeRenderer(3), nil)
	assert.False(t, tr.RequestNavigate(Direction(42)))
}

func TestTracker_NavigationFailureKeepsOptimisticPosition(t *testing.T) {
	r := newFakeRenderer(10)
	r.stepFn = func(ctx context.Context, dir Direction) (Location, error) {
		return Location{}, errors.New("layout failed")
	}
	sink := &errorSink{}
	tr := openTracker(t, r, nil, WithErrorHandler(sink.Handle))

	require.True(t, tr.RequestNavigate(Next))
	tr.Wait()

	assert.Equal(t, 2, tr.Position().PageIndex)
	require.Len(t, sink.Errors(), 1)
	assert.ErrorIs(t, sink.Errors()[0], ErrNavigationFailed)
}

func TestTracker_RendererLocationAdoptsHint(t *testing.T) {
	tr := openTracker(t, newFakeRenderer(10), nil)

	tr.OnRendererLocation(Location{Locator: unitLocator(5), PageHint: 5})
	assert.Equal(t, 5, tr.Position().PageIndex)

	tr.OnRendererLocation(Location{Locator: "inside-5"})
	pos := tr.Position()
	assert.Equal(t, 5, pos.PageIndex)
	assert.Equal(t, Locator("inside-5"), pos.Locator)

	tr.OnRendererLocation(Location{Locator: unitLocator(99), PageHint: 99})
	assert.Equal(t, 10, tr.Position().PageIndex)
}

func TestTracker_UnloadIsIdempotent(t *testing.T) {
	tr := openTracker(t, newFakeRenderer(10), nil)
	tr.RequestJump(0.7)

	tr.Unload()
	first := tr.Position()
	tr.Unload()
	second := tr.Position()

	assert.Equal(t, first, second)
	assert.Equal(t, 1, second.PageIndex)
	assert.Empty(t, second.Locator)
	assert.Equal(t, GenerationNotStarted, second.Generation)
}

func TestTracker_LateCallbackAfterUnloadIsIgnored(t *testing.T) {
	tr := openTracker(t, newFakeRenderer(10), nil)
	callback := tr.LocationCallback()

	tr.Unload()
	callback(Location{Locator: unitLocator(3), PageHint: 3})

	pos := tr.Position()
	assert.Equal(t, 1, pos.PageIndex)
	assert.Empty(t, pos.Locator)
}

func TestTracker_UnloadCancelsInFlightNavigation(t *testing.T) {
	r := newFakeRenderer(10)
	r.stepFn = func(ctx context.Context, dir Direction) (Location, error) {
		<-ctx.Done()
		return Location{Locator: unitLocator(2), PageHint: 2}, nil
	}
	sink := &errorSink{}
	tr := openTracker(t, r, nil, WithErrorHandler(sink.Handle))

	require.True(t, tr.RequestNavigate(Next))
	tr.Unload()
	tr.Wait()

	assert.Equal(t, 1, tr.Position().PageIndex)
	assert.Empty(t, sink.Errors())
	assert.False(t, tr.RequestNavigate(Next))
}

func TestTracker_CloseSavesUnacknowledgedNavigation(t *testing.T) {
	r := newFakeRenderer(10)
	r.stepFn = func(ctx context.Context, dir Direction) (Location, error) {
		<-ctx.Done()
		return Location{}, ctx.Err()
	}
	g := newMemGateway()
	sink := &errorSink{}
	tr := NewTracker("book-1", r, g, WithAckGrace(time.Hour), WithErrorHandler(sink.Handle))
	require.NoError(t, tr.Open(context.Background()))

	require.True(t, tr.RequestNavigate(Next))
	require.NoError(t, tr.Close(context.Background()))

	saved, ok := g.Saved("book-1")
	require.True(t, ok)
	assert.Equal(t, 2, saved.PageIndex)
	assert.Empty(t, sink.Errors(), "the cancelled step belongs to the closed session")
}

func TestTracker_IndexReadyRecomputesPercent(t *testing.T) {
	r := newFakeRenderer(10)
	r.fine[unitLocator(1)] = 0.03
	tr := openTracker(t, r, nil)

	assert.Equal(t, 0.0, tr.Position().Percent)
	tr.IndexReady()
	assert.Equal(t, GenerationReady, tr.Position().Generation)
	assert.InDelta(t, 0.03, tr.Position().Percent, 1e-9)

	tr.BeginIndexing()
	assert.Equal(t, GenerationReady, tr.Position().Generation)
}

func TestTracker_PreviewDoesNotMove(t *testing.T) {
	listener := &recordingListener{}
	tr := openTracker(t, newFakeRenderer(10), nil, WithListener(listener))

	page := tr.Preview(0.5)

	assert.Equal(t, 6, page)
	assert.Equal(t, 1, tr.Position().PageIndex)
	shown, _, percent := listener.Last()
	assert.Equal(t, 6, shown)
	assert.Equal(t, 0.5, percent)
}

func TestTracker_RelayoutKeepsPosition(t *testing.T) {
	r := newFakeRenderer(10)
	tr := openTracker(t, r, nil)
	tr.RequestJump(0.5)
	tr.Wait()
	before := tr.Position()

	tr.Relayout(120, 40)

	assert.Equal(t, before, tr.Position())
	assert.Equal(t, 120, r.width)
	assert.Equal(t, 40, r.height)
}

func TestTracker_PercentOf(t *testing.T) {
	r := newFakeRenderer(21)
	r.fine["cfi"] = 0.77
	tr := openTracker(t, r, nil)

	assert.InDelta(t, 0.77, tr.PercentOf(ReadingPosition{Locator: "cfi", PageIndex: 3, TotalUnits: 21, Generation: GenerationReady}), 1e-9)
	assert.InDelta(t, 0.1, tr.PercentOf(ReadingPosition{Locator: "cfi", PageIndex: 3, TotalUnits: 21}), 1e-9)
}

func TestTracker_SingleUnitBookIsComplete(t *testing.T) {
	tr := openTracker(t, newFakeRenderer(1), nil)

	assert.Equal(t, 1.0, tr.Position().Percent)
	assert.False(t, tr.RequestNavigate(Next))
	assert.False(t, tr.RequestNavigate(Prev))
}
