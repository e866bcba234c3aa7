// Package projection derives the visible marker set of a room from its raw
// Location record set. The projection is a pure function: the same input set
// always yields the same output, regardless of input order.
package projection

import (
	"sort"

	"github.com/G1okz/Geo-app/internal/domain"
)

// VisibleMarkers computes the deduplicated view a client renders:
//   - every custom marker, untouched
//   - exactly one live-position record per user: the one with the greatest
//     timestamp, ties broken by record ID so recomputation is stable
//
// The result is ordered by timestamp descending (ID descending on equal
// timestamps) to keep snapshots comparable.
func VisibleMarkers(records []domain.Location) []domain.Location {
	newestLive := make(map[string]domain.Location)
	markers := make([]domain.Location, 0, len(records))

	for _, rec := range records {
		switch rec.Kind {
		case domain.KindCustomMarker:
			markers = append(markers, rec)
		case domain.KindLivePosition:
			current, ok := newestLive[rec.UserID]
			if !ok || supersedes(rec, current) {
				newestLive[rec.UserID] = rec
			}
		default:
			// Unknown kinds are not rendered.
		}
	}

	visible := markers
	for _, rec := range newestLive {
		visible = append(visible, rec)
	}

	sort.Slice(visible, func(i, j int) bool {
		a, b := visible[i], visible[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID > b.ID
	})

	return visible
}

// supersedes reports whether candidate replaces current as a user's visible
// live position. Strictly greater timestamps always win; equal timestamps
// fall back to the greater record ID.
func supersedes(candidate, current domain.Location) bool {
	if candidate.Timestamp.After(current.Timestamp) {
		return true
	}
	if candidate.Timestamp.Equal(current.Timestamp) {
		return candidate.ID > current.ID
	}
	return false
}
