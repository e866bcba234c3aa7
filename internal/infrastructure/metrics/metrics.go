// Package metrics holds the prometheus collectors shared by the feed,
// store, and websocket layers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoapp",
		Subsystem: "feed",
		Name:      "events_published_total",
		Help:      "Change feed events published, by event kind.",
	}, []string{"kind"})

	FeedEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geoapp",
		Subsystem: "feed",
		Name:      "events_dropped_total",
		Help:      "Events dropped because a subscriber buffer was full (forces a resync).",
	})

	FeedActiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geoapp",
		Subsystem: "feed",
		Name:      "active_subscriptions",
		Help:      "Currently attached feed subscriptions across all rooms.",
	})

	LivePositionUpserts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geoapp",
		Subsystem: "store",
		Name:      "live_position_upserts_total",
		Help:      "Live position upserts applied by the location store.",
	})

	CustomMarkerInserts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geoapp",
		Subsystem: "store",
		Name:      "custom_marker_inserts_total",
		Help:      "Custom marker records inserted.",
	})

	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geoapp",
		Subsystem: "ws",
		Name:      "connected_clients",
		Help:      "Open websocket connections.",
	})
)
