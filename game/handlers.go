package game

import (
	"errors"
	"io"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"yojiquiz/domain"
)

type GameHandler struct {
	service   *Service
	registry  *Registry
	snapshots SnapshotStore
	results   ResultsRepo
	tickers   PeriodicTickerCreator
	upgrader  websocket.Upgrader
}

func NewGameHandler(service *Service, registry *Registry, snapshots SnapshotStore, results ResultsRepo, tickers PeriodicTickerCreator, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		service:   service,
		registry:  registry,
		snapshots: snapshots,
		results:   results,
		tickers:   tickers,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
}

// WebsocketHandler upgrades the request and runs the connection until it
// drops. Rooms are created and joined through packets on the socket.
func (h *GameHandler) WebsocketHandler(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	c := NewConnection(NewWebsocketConnection(conn), h.tickers)
	go c.WritePump()
	c.ReadPump(ctx.Request.Context(), h.service)
}

func (h *GameHandler) GetRoomHandler(ctx *gin.Context) {
	code := ctx.Param("code")
	if err := ValidateCode(code); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.loadSnapshot(ctx, code)
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, snap)
}

// WatchRoomHandler streams the room's snapshots as server-sent events until
// the client goes away or the room is removed.
func (h *GameHandler) WatchRoomHandler(ctx *gin.Context) {
	code := ctx.Param("code")
	if err := ValidateCode(code); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.snapshots == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "watch-unavailable"})
		return
	}

	reqCtx := ctx.Request.Context()
	changes, err := h.snapshots.Subscribe(reqCtx, code)
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}
	current, err := h.snapshots.Load(reqCtx, code)
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}

	ctx.SSEvent("snapshot", current)
	ctx.Stream(func(w io.Writer) bool {
		select {
		case snap, ok := <-changes:
			if !ok {
				return false
			}
			ctx.SSEvent("snapshot", snap)
			return true
		case <-reqCtx.Done():
			return false
		}
	})
}

func (h *GameHandler) GetResultsHandler(ctx *gin.Context) {
	code := ctx.Param("code")
	if err := ValidateCode(code); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.results == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "results-unavailable"})
		return
	}

	result, err := h.results.GetResult(ctx.Request.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "results-not-found"})
			return
		}
		log.Error().Err(err).Str("room", code).Msg("failed to load session result")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": string(KindUnknown)})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (h *GameHandler) loadSnapshot(ctx *gin.Context, code string) (domain.RoomSnapshot, error) {
	if h.snapshots != nil {
		return h.snapshots.Load(ctx.Request.Context(), code)
	}
	room, err := h.registry.Get(code)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	return room.Snapshot(ctx.Request.Context())
}

func (h *GameHandler) abortWithError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrRoomClosed):
		ctx.JSON(http.StatusNotFound, gin.H{"error": string(KindRoomNotFound)})
	default:
		log.Error().Err(err).Str("path", ctx.FullPath()).Msg("room lookup failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": string(KindUnknown)})
	}
}
