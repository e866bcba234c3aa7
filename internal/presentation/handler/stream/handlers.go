// Package stream upgrades room members to a websocket carrying the live
// marker feed in one direction and position reports in the other.
package stream

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/feed"
	"github.com/G1okz/Geo-app/internal/infrastructure/json"
	"github.com/G1okz/Geo-app/internal/infrastructure/logging"
	"github.com/G1okz/Geo-app/internal/infrastructure/ws"
	"github.com/G1okz/Geo-app/internal/presentation/utils"
	"github.com/G1okz/Geo-app/internal/registry"
	"github.com/G1okz/Geo-app/internal/reporter"
	"github.com/G1okz/Geo-app/internal/store"
)

type Handler struct {
	registry         *registry.Registry
	store            *store.Store
	mux              *feed.Multiplexer
	reporterInterval time.Duration
	sampleBuffer     int
	logger           logging.Logger

	upgrader websocket.Upgrader
}

func NewHandler(registry *registry.Registry, store *store.Store, mux *feed.Multiplexer, reporterInterval time.Duration, sampleBuffer int, logger logging.Logger) *Handler {
	return &Handler{
		registry:         registry,
		store:            store,
		mux:              mux,
		reporterInterval: reporterInterval,
		sampleBuffer:     sampleBuffer,
		logger:           logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS policy is enforced by the HTTP middleware in front.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// StreamRoomHandler godoc
// @Summary      Open a room's live stream
// @Description  Upgrades to WebSocket; pushes marker snapshots out, accepts position reports in
// @Tags         stream
// @Param        roomId path string true "Room ID"
// @Param        username query string false "Display name for reported positions"
// @Success      101 "Switching Protocols"
// @Failure      400 {object} json.ErrorResponse "Bad request - missing room ID"
// @Failure      403 {object} json.ErrorResponse "Forbidden - not a member"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Router       /rooms/{roomId}/stream [get]
func (h *Handler) StreamRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	userID := utils.EnsureUserID(w, r)
	username := r.URL.Query().Get("username")

	member, err := h.registry.IsMember(r.Context(), roomID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}
	if !member {
		json.WriteError(w, http.StatusForbidden, errors.New("forbidden"), "Join the room first")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed for room %s: %v", roomID, err)
		return
	}

	// The subscription, not the request, scopes this connection's lifetime.
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := h.mux.Subscribe(ctx, roomID)
	if err != nil {
		cancel()
		_ = conn.WriteJSON(ws.NewError(roomID, "Failed to open stream"))
		_ = conn.Close()
		return
	}

	source := reporter.NewChannelSource(h.sampleBuffer)
	rep := reporter.New(h.store, source, roomID, userID, username, h.reporterInterval, h.logger)
	go func() {
		_ = rep.Run(ctx)
	}()

	client := ws.NewClient(conn, sub, source, cancel, userID, roomID, username)

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info(logging.Feed, logging.Subscription, "stream opened", map[logging.ExtraKey]any{
		logging.RoomId: roomID,
		logging.UserId: userID,
	})
}
