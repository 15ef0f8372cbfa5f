// Package persistence provides progress.Gateway implementations: the local
// database, the sync API of a remote server, and a mirror that combines both.
//
// # Usage
//
//	local := persistence.NewDatabaseGateway(positions.NewRepository(db), userID)
//	remote := persistence.NewRemoteGateway(baseURL, token, log)
//	gw := persistence.NewMirrorGateway(local, remote, log)
//	tracker := progress.NewTracker(bookID, r, gw)
package persistence

import (
	"context"
	"errors"

	"github.com/mrlokans/rustypages/internal/database/positions"
	"github.com/mrlokans/rustypages/internal/entities"
	"github.com/mrlokans/rustypages/internal/progress"
)

// PositionStore is the subset of positions.Repository used by DatabaseGateway.
type PositionStore interface {
	Upsert(userID uint, bookID, locator string, pageIndex int) error
	Get(userID uint, bookID string) (*entities.ReadingPosition, error)
}

// DatabaseGateway stores positions of one user in the local database.
type DatabaseGateway struct {
	store  PositionStore
	userID uint
}

func NewDatabaseGateway(store PositionStore, userID uint) *DatabaseGateway {
	return &DatabaseGateway{store: store, userID: userID}
}

func (g *DatabaseGateway) Save(ctx context.Context, bookID string, loc progress.Locator, pageIndex int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.store.Upsert(g.userID, bookID, string(loc), pageIndex)
}

func (g *DatabaseGateway) Load(ctx context.Context, bookID string) (progress.SavedPosition, error) {
	if err := ctx.Err(); err != nil {
		return progress.SavedPosition{}, err
	}
	pos, err := g.store.Get(g.userID, bookID)
	if errors.Is(err, positions.ErrPositionNotFound) {
		return progress.SavedPosition{}, progress.ErrNotFound
	}
	if err != nil {
		return progress.SavedPosition{}, err
	}
	return progress.SavedPosition{
		BookID:     pos.BookID,
		Locator:    progress.Locator(pos.Locator),
		PageIndex:  pos.PageIndex,
		LastReadAt: pos.LastReadAt,
	}, nil
}
