package reporter_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/infrastructure/logging"
	"github.com/G1okz/Geo-app/internal/reporter"
)

type recordedWrite struct {
	roomID, userID, userName string
	lat, lng                 float64
	at                       time.Time
}

type stubUpserter struct {
	mu     sync.Mutex
	writes []recordedWrite
	err    error
}

func (u *stubUpserter) ReportPosition(_ context.Context, roomID, userID, userName string, lat, lng float64, at time.Time) (*domain.Location, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return nil, u.err
	}
	u.writes = append(u.writes, recordedWrite{roomID, userID, userName, lat, lng, at})
	return &domain.Location{RoomID: roomID, UserID: userID}, nil
}

func (u *stubUpserter) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.writes)
}

func (u *stubUpserter) last() recordedWrite {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.writes[len(u.writes)-1]
}

func TestRunWritesEachSample(t *testing.T) {
	upserter := &stubUpserter{}
	source := reporter.NewChannelSource(4)
	r := reporter.New(upserter, source, "room-1", "user-a", "Ana", 0, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	at := time.Now().UTC()
	source.Push(reporter.Position{Latitude: 40.0, Longitude: -3.0, At: at})
	source.Push(reporter.Position{Latitude: 40.1, Longitude: -3.1, At: at.Add(time.Second)})

	require.Eventually(t, func() bool { return upserter.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	last := upserter.last()
	assert.Equal(t, "room-1", last.roomID)
	assert.Equal(t, "user-a", last.userID)
	assert.Equal(t, 40.1, last.lat)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reporter did not stop on cancel")
	}
}

func TestRunStopsWithoutSamples(t *testing.T) {
	r := reporter.New(&stubUpserter{}, reporter.NewChannelSource(1), "room-1", "user-a", "Ana", 0, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reporter blocked on an idle source")
	}
}

func TestRunNoWriteAfterCancel(t *testing.T) {
	upserter := &stubUpserter{}
	source := reporter.NewChannelSource(4)
	r := reporter.New(upserter, source, "room-1", "user-a", "Ana", 0, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source.Push(reporter.Position{Latitude: 40.0, Longitude: -3.0, At: time.Now()})
	require.NoError(t, r.Run(ctx))
	assert.Zero(t, upserter.count())
}

func TestRunSurvivesWriteFailures(t *testing.T) {
	upserter := &stubUpserter{err: errors.New("backend down")}
	source := reporter.NewChannelSource(4)
	r := reporter.New(upserter, source, "room-1", "user-a", "Ana", 0, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	source.Push(reporter.Position{Latitude: 40.0, Longitude: -3.0, At: time.Now()})

	// The failed write is logged and skipped; once the backend recovers the
	// next sample goes through.
	time.Sleep(50 * time.Millisecond)
	upserter.mu.Lock()
	upserter.err = nil
	upserter.mu.Unlock()

	source.Push(reporter.Position{Latitude: 40.1, Longitude: -3.1, At: time.Now()})
	require.Eventually(t, func() bool { return upserter.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestChannelSourceDropsWhenBehind(t *testing.T) {
	source := reporter.NewChannelSource(1)

	source.Push(reporter.Position{Latitude: 1})
	source.Push(reporter.Position{Latitude: 2}) // dropped, reporter is behind

	ctx := context.Background()
	pos, err := source.Sample(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, pos.Latitude)

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = source.Sample(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
