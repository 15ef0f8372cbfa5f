package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/database/positions"
	"github.com/mrlokans/rustypages/internal/entities"
	"github.com/mrlokans/rustypages/internal/persistence"
)

// PositionsController serves reading positions to remote reader gateways.
type PositionsController struct {
	positions PositionStore
	log       *zap.Logger
	now       func() time.Time
}

func NewPositionsController(store PositionStore, log *zap.Logger) *PositionsController {
	if log == nil {
		log = zap.NewNop()
	}
	return &PositionsController{positions: store, log: log, now: time.Now}
}

func toPayload(p *entities.ReadingPosition) persistence.PositionPayload {
	return persistence.PositionPayload{
		BookID:     p.BookID,
		Locator:    p.Locator,
		PageIndex:  p.PageIndex,
		LastReadAt: p.LastReadAt,
	}
}

// GetPosition handles GET /api/books/:id/position.
func (pc *PositionsController) GetPosition(c *gin.Context) {
	bookID, ok := parseBookIDParam(c, "id")
	if !ok {
		return
	}

	pos, err := pc.positions.Get(GetUserID(c), bookID)
	if errors.Is(err, positions.ErrPositionNotFound) {
		respondNotFound(c, "Position")
		return
	}
	if err != nil {
		respondInternalError(c, pc.log, err, "get position")
		return
	}
	c.JSON(http.StatusOK, toPayload(pos))
}

// PutPosition handles PUT /api/books/:id/position. A write older than the
// stored position is accepted but does not replace it; the response carries
// the position that is stored afterwards.
func (pc *PositionsController) PutPosition(c *gin.Context) {
	bookID, ok := parseBookIDParam(c, "id")
	if !ok {
		return
	}

	var req persistence.PositionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}
	if req.PageIndex < 1 {
		respondBadRequest(c, "page_index must be at least 1")
		return
	}
	if req.LastReadAt.IsZero() {
		req.LastReadAt = pc.now()
	}

	userID := GetUserID(c)
	if err := pc.positions.UpsertAt(userID, bookID, req.Locator, req.PageIndex, req.LastReadAt); err != nil {
		respondInternalError(c, pc.log, err, "save position")
		return
	}
	stored, err := pc.positions.Get(userID, bookID)
	if err != nil {
		respondInternalError(c, pc.log, err, "reload position")
		return
	}
	c.JSON(http.StatusOK, toPayload(stored))
}

// ListPositions handles GET /api/positions, most recently read first.
func (pc *PositionsController) ListPositions(c *gin.Context) {
	list, err := pc.positions.List(GetUserID(c))
	if err != nil {
		respondInternalError(c, pc.log, err, "list positions")
		return
	}
	out := make([]persistence.PositionPayload, 0, len(list))
	for i := range list {
		out = append(out, toPayload(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"positions": out})
}
