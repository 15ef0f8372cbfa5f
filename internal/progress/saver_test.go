package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSaver_CoalescesToLatestPosition(t *testing.T) {
	g := newMemGateway()
	g.gate = make(chan struct{})
	s := newSaver(g, "book-1", zap.NewNop(), func(error) {})

	for page := 1; page <= 5; page++ {
		s.schedule(unitLocator(page), page)
	}
	close(g.gate)

	require.NoError(t, s.flush(context.Background()))

	history := g.History()
	require.NotEmpty(t, history)
	assert.LessOrEqual(t, len(history), 2)
	assert.Equal(t, 5, history[len(history)-1].PageIndex)
	assert.Equal(t, unitLocator(5), history[len(history)-1].Locator)
}

func TestSaver_ReportsFailures(t *testing.T) {
	g := newMemGateway()
	g.saveErr = errors.New("read-only database")
	sink := &errorSink{}
	s := newSaver(g, "book-1", zap.NewNop(), sink.Handle)

	s.schedule(unitLocator(2), 2)
	require.NoError(t, s.flush(context.Background()))

	require.Len(t, sink.Errors(), 1)
	assert.ErrorIs(t, sink.Errors()[0], ErrPersistenceFailed)
}

func TestSaver_FlushHonoursContext(t *testing.T) {
	g := newMemGateway()
	g.gate = make(chan struct{})
	s := newSaver(g, "book-1", zap.NewNop(), func(error) {})

	s.schedule(unitLocator(1), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.flush(ctx), context.DeadlineExceeded)

	close(g.gate)
	require.NoError(t, s.flush(context.Background()))
}

func TestSaver_NilGatewayIsNoop(t *testing.T) {
	s := newSaver(nil, "book-1", zap.NewNop(), func(error) {})
	s.schedule(unitLocator(1), 1)
	assert.NoError(t, s.flush(context.Background()))
}
