package ws

const (
	MarkerSnapshot = "marker.snapshot"
	PositionReport = "position.report"

	ErrorEvent  = "error"
	RateLimited = "error.rate_limited"

	RoomDeleted = "room.deleted"
)
