package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/progress"
)

// MirrorGateway saves to a local gateway and copies every save to a remote
// one in the background. The local store is authoritative for Save; Load
// returns whichever record was read most recently, so a book resumes where
// it was last read on any device.
type MirrorGateway struct {
	local   progress.Gateway
	remote  progress.Gateway
	log     *zap.Logger
	timeout time.Duration
	mirrors conc.WaitGroup
}

func NewMirrorGateway(local, remote progress.Gateway, log *zap.Logger) *MirrorGateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &MirrorGateway{
		local:   local,
		remote:  remote,
		log:     log.Named("mirror_gateway"),
		timeout: 30 * time.Second,
	}
}

func (g *MirrorGateway) Save(ctx context.Context, bookID string, loc progress.Locator, pageIndex int) error {
	if err := g.local.Save(ctx, bookID, loc, pageIndex); err != nil {
		return err
	}

	g.mirrors.Go(func() {
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()
		if err := g.remote.Save(mctx, bookID, loc, pageIndex); err != nil {
			g.log.Warn("failed to mirror reading position",
				zap.String("book_id", bookID),
				zap.Error(err))
		}
	})
	return nil
}

func (g *MirrorGateway) Load(ctx context.Context, bookID string) (progress.SavedPosition, error) {
	var (
		local, remote       progress.SavedPosition
		localErr, remoteErr error
		wg                  conc.WaitGroup
	)
	wg.Go(func() { local, localErr = g.local.Load(ctx, bookID) })
	wg.Go(func() { remote, remoteErr = g.remote.Load(ctx, bookID) })
	wg.Wait()

	if remoteErr != nil && !errors.Is(remoteErr, progress.ErrNotFound) {
		g.log.Info("remote reading position unavailable",
			zap.String("book_id", bookID),
			zap.Error(remoteErr))
	}

	switch {
	case localErr == nil && remoteErr == nil:
		if remote.LastReadAt.After(local.LastReadAt) {
			return remote, nil
		}
		return local, nil
	case localErr == nil:
		return local, nil
	case remoteErr == nil && errors.Is(localErr, progress.ErrNotFound):
		return remote, nil
	case remoteErr == nil:
		g.log.Warn("local reading position unavailable, using remote",
			zap.String("book_id", bookID),
			zap.Error(localErr))
		return remote, nil
	default:
		return progress.SavedPosition{}, localErr
	}
}

// Wait blocks until background mirror writes have finished.
func (g *MirrorGateway) Wait() {
	g.mirrors.Wait()
}
