package locations

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/infrastructure/json"
	"github.com/G1okz/Geo-app/internal/infrastructure/validate"
	"github.com/G1okz/Geo-app/internal/presentation/utils"
	"github.com/G1okz/Geo-app/internal/projection"
	"github.com/G1okz/Geo-app/internal/registry"
	"github.com/G1okz/Geo-app/internal/store"
)

type Handler struct {
	registry *registry.Registry
	store    *store.Store
}

func NewHandler(registry *registry.Registry, store *store.Store) *Handler {
	return &Handler{
		registry: registry,
		store:    store,
	}
}

// ReportPositionHandler godoc
// @Summary      Report a live position
// @Description  Replaces (or creates) the caller's single live position in the room
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        roomId path string true "Room ID"
// @Param        request body reportPositionRequest true "Position sample"
// @Success      202 {object} locationResponse "Position recorded"
// @Failure      400 {object} json.ErrorResponse "Bad request - validation error"
// @Failure      403 {object} json.ErrorResponse "Forbidden - not a member"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Failure      500 {object} json.ErrorResponse "Internal server error"
// @Router       /rooms/{roomId}/positions [post]
func (h *Handler) ReportPositionHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	var req reportPositionRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := validate.Latitude(req.Latitude); err != nil {
		json.WriteValidationError(w, err)
		return
	}
	if err := validate.Longitude(req.Longitude); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	userID, ok := h.requireMember(w, r, roomID)
	if !ok {
		return
	}

	loc, err := h.store.ReportPosition(r.Context(), roomID, userID, req.Username, req.Latitude, req.Longitude, req.Timestamp)
	if err != nil {
		log.Printf("Failed to report position in room %s: %v", roomID, err)
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusAccepted, toLocationResponse(loc))
}

// CreateMarkerHandler godoc
// @Summary      Place a custom marker
// @Description  Inserts a marker record; markers accumulate and are never deduplicated
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        roomId path string true "Room ID"
// @Param        request body createMarkerRequest true "Marker"
// @Success      201 {object} locationResponse "Marker created"
// @Failure      400 {object} json.ErrorResponse "Bad request - validation error"
// @Failure      403 {object} json.ErrorResponse "Forbidden - not a member"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Failure      500 {object} json.ErrorResponse "Internal server error"
// @Router       /rooms/{roomId}/markers [post]
func (h *Handler) CreateMarkerHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	var req createMarkerRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := validate.Field("name", validate.Required(), validate.LengthBetween(1, 100))(req.Name); err != nil {
		json.WriteValidationError(w, err)
		return
	}
	if err := validate.Latitude(req.Latitude); err != nil {
		json.WriteValidationError(w, err)
		return
	}
	if err := validate.Longitude(req.Longitude); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	userID, ok := h.requireMember(w, r, roomID)
	if !ok {
		return
	}

	loc, err := h.store.AddMarker(r.Context(), roomID, userID, req.Username, req.Name, req.Description, req.Latitude, req.Longitude, req.Timestamp)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			json.WriteValidationError(w, err)
			return
		}
		log.Printf("Failed to create marker in room %s: %v", roomID, err)
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, toLocationResponse(loc))
}

// ListMarkersHandler godoc
// @Summary      Read the room's visible marker set
// @Description  Returns every custom marker plus the newest live position per member
// @Tags         locations
// @Produce      json
// @Param        roomId path string true "Room ID"
// @Success      200 {object} markersResponse "Visible markers, newest first"
// @Failure      403 {object} json.ErrorResponse "Forbidden - not a member"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Failure      500 {object} json.ErrorResponse "Internal server error"
// @Router       /rooms/{roomId}/markers [get]
func (h *Handler) ListMarkersHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	if _, ok := h.requireMember(w, r, roomID); !ok {
		return
	}

	records, err := h.store.ListByRoom(r.Context(), roomID)
	if err != nil {
		log.Printf("Failed to list markers in room %s: %v", roomID, err)
		json.WriteInternalError(w, err)
		return
	}

	visible := projection.VisibleMarkers(records)
	mapped := make([]locationResponse, 0, len(visible))
	for i := range visible {
		mapped = append(mapped, toLocationResponse(&visible[i]))
	}

	json.Write(w, http.StatusOK, markersResponse{Markers: mapped})
}

// DeleteMarkerHandler godoc
// @Summary      Remove a custom marker
// @Description  Deletes one marker record; only its author may remove it
// @Tags         locations
// @Produce      json
// @Param        roomId path string true "Room ID"
// @Param        locationId path string true "Marker record ID"
// @Success      204 "Marker removed (or already gone)"
// @Failure      400 {object} json.ErrorResponse "Bad request - record is not a marker"
// @Failure      403 {object} json.ErrorResponse "Forbidden - not the author"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Failure      500 {object} json.ErrorResponse "Internal server error"
// @Router       /rooms/{roomId}/markers/{locationId} [delete]
func (h *Handler) DeleteMarkerHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	locationID := chi.URLParam(r, "locationId")
	if roomID == "" || locationID == "" {
		json.WriteValidationError(w, errors.New("room ID or location ID is missing"))
		return
	}

	userID, ok := h.requireMember(w, r, roomID)
	if !ok {
		return
	}

	loc, err := h.store.GetLocation(r.Context(), locationID)
	if err != nil {
		if errors.Is(err, domain.ErrLocationNotFound) {
			// Removing what is already gone succeeds.
			w.WriteHeader(http.StatusNoContent)
			return
		}
		log.Printf("Failed to load marker %s: %v", locationID, err)
		json.WriteInternalError(w, err)
		return
	}

	if loc.RoomID != roomID || !loc.IsCustomMarker() {
		json.WriteBadRequestError(w, "Record is not a marker of this room")
		return
	}
	if loc.UserID != userID {
		json.WriteError(w, http.StatusForbidden, domain.ErrNotMarkerAuthor, "Only the author can remove a marker")
		return
	}

	if err := h.store.RemoveLocation(r.Context(), locationID); err != nil {
		log.Printf("Failed to delete marker %s: %v", locationID, err)
		json.WriteInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireMember resolves the caller's identity and rejects non-members.
func (h *Handler) requireMember(w http.ResponseWriter, r *http.Request, roomID string) (string, bool) {
	userID := utils.EnsureUserID(w, r)

	member, err := h.registry.IsMember(r.Context(), roomID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
			return "", false
		}
		log.Printf("Failed membership check for room %s: %v", roomID, err)
		json.WriteInternalError(w, err)
		return "", false
	}
	if !member {
		json.WriteError(w, http.StatusForbidden, errors.New("forbidden"), "Join the room first")
		return "", false
	}

	return userID, true
}

func toLocationResponse(loc *domain.Location) locationResponse {
	return locationResponse{
		ID:          loc.ID,
		RoomID:      loc.RoomID,
		UserID:      loc.UserID,
		Username:    loc.UserName,
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		Timestamp:   loc.Timestamp,
		Kind:        string(loc.Kind),
		Name:        loc.Name,
		Description: loc.Description,
	}
}
