package rooms

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/infrastructure/json"
	"github.com/G1okz/Geo-app/internal/infrastructure/validate"
	"github.com/G1okz/Geo-app/internal/presentation/utils"
	"github.com/G1okz/Geo-app/internal/registry"
)

type Handler struct {
	registry *registry.Registry
}

func NewHandler(registry *registry.Registry) *Handler {
	return &Handler{
		registry: registry,
	}
}

var validateRoomName = validate.Field("name",
	validate.Required(),
	validate.LengthBetween(1, 100),
)

// CreateRoomHandler godoc
// @Summary      Create a new sharing room
// @Description  Creates a room with a fresh join code and returns its details
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        request body createRoomRequest true "Room creation parameters"
// @Success      201 {object} createRoomResponse "Room created successfully"
// @Failure      400 {object} json.ErrorResponse "Bad request - validation error"
// @Failure      500 {object} json.ErrorResponse "Internal server error"
// @Router       /rooms [post]
func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := validateRoomName(req.Name); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	userID := utils.EnsureUserID(w, r)

	room, err := h.registry.CreateRoom(r.Context(), req.Name, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			json.WriteValidationError(w, err)
		case errors.Is(err, domain.ErrCodeExhausted):
			log.Printf("Join code space exhausted creating room for %s: %v", userID, err)
			json.WriteInternalError(w, err)
		default:
			log.Printf("Failed to create room for %s: %v", userID, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusCreated, createRoomResponse{
		RoomID:    room.ID,
		Name:      room.Name,
		Code:      room.Code,
		CreatedAt: room.CreatedAt,
	})
}

// JoinRoomHandler godoc
// @Summary      Join a room by code
// @Description  Resolves the join code and records membership; re-joining is a no-op
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        request body joinRoomRequest true "Join parameters"
// @Success      200 {object} roomResponse "Joined room"
// @Failure      400 {object} json.ErrorResponse "Bad request - malformed code"
// @Failure      404 {object} json.ErrorResponse "No room with that code"
// @Failure      500 {object} json.ErrorResponse "Internal server error"
// @Router       /rooms/join [post]
func (h *Handler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	code := domain.NormalizeJoinCode(req.Code)
	if err := validate.Field("code", validate.JoinCode())(code); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	userID := utils.EnsureUserID(w, r)

	room, err := h.registry.JoinRoom(r.Context(), code, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "No room with that code")
		case errors.Is(err, domain.ErrInvalidInput):
			json.WriteValidationError(w, err)
		default:
			log.Printf("Failed to join room with code %s: %v", code, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusOK, toRoomResponse(room))
}

// LeaveRoomHandler godoc
// @Summary      Leave a room
// @Description  Removes the caller's location records and membership
// @Tags         rooms
// @Produce      json
// @Param        roomId path string true "Room ID"
// @Success      204 "Left room successfully"
// @Failure      400 {object} json.ErrorResponse "Bad request - missing room ID"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Failure      500 {object} json.ErrorResponse "Internal server error"
// @Router       /rooms/{roomId}/leave [post]
func (h *Handler) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	userID := utils.EnsureUserID(w, r)

	if err := h.registry.LeaveRoom(r.Context(), roomID, userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		default:
			log.Printf("Failed to leave room %s: %v", roomID, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteRoomHandler godoc
// @Summary      Delete a room
// @Description  Permanently deletes a room, its locations and memberships (owner only)
// @Tags         rooms
// @Produce      json
// @Param        roomId path string true "Room ID"
// @Success      204 "Room deleted successfully"
// @Failure      400 {object} json.ErrorResponse "Bad request - missing room ID"
// @Failure      403 {object} json.ErrorResponse "Forbidden - not the owner"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Failure      500 {object} json.ErrorResponse "Internal server error"
// @Router       /rooms/{roomId} [delete]
func (h *Handler) DeleteRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	userID := utils.EnsureUserID(w, r)

	if err := h.registry.DeleteRoom(r.Context(), roomID, userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		case errors.Is(err, domain.ErrNotRoomOwner):
			json.WriteError(w, http.StatusForbidden, err, "Only the owner can delete the room")
		default:
			log.Printf("Failed to delete room %s: %v", roomID, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListOwnedRoomsHandler godoc
// @Summary      List rooms created by the caller
// @Tags         rooms
// @Produce      json
// @Success      200 {object} roomListResponse "Rooms, newest first"
// @Failure      500 {object} json.ErrorResponse "Internal server error"
// @Router       /rooms/owned [get]
func (h *Handler) ListOwnedRoomsHandler(w http.ResponseWriter, r *http.Request) {
	userID := utils.EnsureUserID(w, r)

	rooms, err := h.registry.ListOwnedRooms(r.Context(), userID)
	if err != nil {
		log.Printf("Failed to list owned rooms for %s: %v", userID, err)
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, toRoomListResponse(rooms))
}

// ListJoinedRoomsHandler godoc
// @Summary      List rooms the caller has joined
// @Tags         rooms
// @Produce      json
// @Success      200 {object} roomListResponse "Rooms, newest first"
// @Failure      500 {object} json.ErrorResponse "Internal server error"
// @Router       /rooms/joined [get]
func (h *Handler) ListJoinedRoomsHandler(w http.ResponseWriter, r *http.Request) {
	userID := utils.EnsureUserID(w, r)

	rooms, err := h.registry.ListJoinedRooms(r.Context(), userID)
	if err != nil {
		log.Printf("Failed to list joined rooms for %s: %v", userID, err)
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, toRoomListResponse(rooms))
}

func toRoomResponse(room *domain.Room) roomResponse {
	return roomResponse{
		ID:        room.ID,
		Name:      room.Name,
		Code:      room.Code,
		CreatedBy: room.CreatedBy,
		CreatedAt: room.CreatedAt,
	}
}

func toRoomListResponse(rooms []domain.Room) roomListResponse {
	mapped := make([]roomResponse, 0, len(rooms))
	for i := range rooms {
		mapped = append(mapped, toRoomResponse(&rooms[i]))
	}
	return roomListResponse{Rooms: mapped}
}
