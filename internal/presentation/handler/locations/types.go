package locations

import "time"

// reportPositionRequest represents a live position sample
type reportPositionRequest struct {
	Latitude  float64   `json:"latitude" example:"40.4168"`   // Degrees, -90 to 90
	Longitude float64   `json:"longitude" example:"-3.7038"`  // Degrees, -180 to 180
	Timestamp time.Time `json:"timestamp,omitempty"`          // Sample time; server time when absent
	Username  string    `json:"username,omitempty" example:"ana"` // Display name shown to other members
}

// createMarkerRequest represents a new custom marker
type createMarkerRequest struct {
	Name        string    `json:"name" example:"Café"`       // Marker label
	Description string    `json:"description,omitempty"`     // Optional free text
	Latitude    float64   `json:"latitude" example:"40.42"`  // Degrees, -90 to 90
	Longitude   float64   `json:"longitude" example:"-3.70"` // Degrees, -180 to 180
	Timestamp   time.Time `json:"timestamp,omitempty"`       // Placement time; server time when absent
	Username    string    `json:"username,omitempty"`        // Display name shown to other members
}

// locationResponse represents one visible record
type locationResponse struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"roomId"`
	UserID      string    `json:"userId"`
	Username    string    `json:"username,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Timestamp   time.Time `json:"timestamp"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
}

// markersResponse is the projection snapshot of a room
type markersResponse struct {
	Markers []locationResponse `json:"markers"`
}
