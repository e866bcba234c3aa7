// Package reporter runs the per-client sampling loop that reconciles device
// coordinates into the location store while a room is open.
package reporter

import (
	"context"
	"errors"
	"time"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/infrastructure/logging"
)

// Position is one device coordinate sample.
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	At        time.Time `json:"at"`
}

// Source supplies coordinate samples. The sampling mechanism itself (GPS,
// a websocket stream, a fixture) is outside the core; Sample may block until
// the next reading and must honor ctx cancellation.
type Source interface {
	Sample(ctx context.Context) (Position, error)
}

// Upserter is the write side of the location store the reporter feeds.
type Upserter interface {
	ReportPosition(ctx context.Context, roomID, userID, userName string, lat, lng float64, at time.Time) (*domain.Location, error)
}

type Reporter struct {
	store    Upserter
	source   Source
	interval time.Duration

	roomID   string
	userID   string
	userName string

	logger logging.Logger
}

// New builds a reporter for one client in one room. interval > 0 paces the
// loop between samples; zero means the source itself blocks until the next
// reading.
func New(store Upserter, source Source, roomID, userID, userName string, interval time.Duration, logger logging.Logger) *Reporter {
	if store == nil || source == nil {
		panic("reporter: store and source are required")
	}

	return &Reporter{
		store:    store,
		source:   source,
		interval: interval,
		roomID:   roomID,
		userID:   userID,
		userName: userName,
		logger:   logger,
	}
}

// Run samples and upserts until ctx is canceled. A failed sample or a failed
// write is logged and the loop moves on; the next sample retries
// independently. Once ctx is done no further write is issued.
func (r *Reporter) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		pos, err := r.source.Sample(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			r.logWarn("location sample failed", err)
		} else if ctx.Err() == nil {
			if _, err := r.store.ReportPosition(ctx, r.roomID, r.userID, r.userName, pos.Latitude, pos.Longitude, pos.At); err != nil {
				r.logWarn("position write failed", err)
			}
		}

		if r.interval > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(r.interval):
			}
		}
	}
}

func (r *Reporter) logWarn(msg string, err error) {
	if r.logger == nil {
		return
	}
	r.logger.Warn(logging.Reporter, logging.Sampling, msg, map[logging.ExtraKey]any{
		logging.RoomId:       r.roomID,
		logging.UserId:       r.userID,
		logging.ErrorMessage: err.Error(),
	})
}

// ChannelSource adapts a stream of pushed samples (for example, readings
// arriving over a websocket) into a Source.
type ChannelSource struct {
	samples chan Position
}

func NewChannelSource(buffer int) *ChannelSource {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelSource{samples: make(chan Position, buffer)}
}

// Push hands a sample to the source, dropping it if the reporter is behind.
// A dropped reading is superseded by the next one anyway.
func (c *ChannelSource) Push(pos Position) {
	select {
	case c.samples <- pos:
	default:
	}
}

func (c *ChannelSource) Sample(ctx context.Context) (Position, error) {
	select {
	case <-ctx.Done():
		return Position{}, ctx.Err()
	case pos := <-c.samples:
		return pos, nil
	}
}
