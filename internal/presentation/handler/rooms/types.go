package rooms

import "time"

// createRoomRequest represents the request to create a new sharing room
type createRoomRequest struct {
	Name string `json:"name" example:"Weekend Trip" minLength:"1"` // Display name of the room
}

// createRoomResponse represents the response after creating a room
type createRoomResponse struct {
	RoomID    string    `json:"roomId" example:"550e8400-e29b-41d4-a716-446655440000"` // Unique room identifier
	Name      string    `json:"name" example:"Weekend Trip"`                           // Display name of the room
	Code      string    `json:"code" example:"ABC123"`                                 // Code required to join the room
	CreatedAt time.Time `json:"createdAt" example:"2024-01-01T12:00:00Z"`              // Room creation timestamp
}

// joinRoomRequest represents the request to join a room by code
type joinRoomRequest struct {
	Code string `json:"code" example:"ABC123"` // Six character join code
}

// roomResponse represents room information
type roomResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"` // Unique room identifier
	Name      string    `json:"name" example:"Weekend Trip"`                       // Display name of the room
	Code      string    `json:"code" example:"ABC123"`                             // Code required to join the room
	CreatedBy string    `json:"createdBy"`                                         // Owner's user ID
	CreatedAt time.Time `json:"createdAt" example:"2024-01-01T12:00:00Z"`          // Room creation timestamp
}

// roomListResponse represents a list of rooms
type roomListResponse struct {
	Rooms []roomResponse `json:"rooms"`
}
