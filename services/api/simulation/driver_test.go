package simulation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priyanshu1258/Hackathon/services/api/db"
	"github.com/priyanshu1258/Hackathon/services/api/reading"
)

var fixedNow = time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGenerator() *reading.Generator {
	return reading.NewGenerator(rand.NewPCG(7, 7), time.UTC)
}

// flakyStore fails appends for one pair and counts calls.
type flakyStore struct {
	*db.MemStore
	failCategory reading.Category
	failBuilding reading.Building

	mu      sync.Mutex
	appends int
}

func (f *flakyStore) Append(ctx context.Context, c reading.Category, b reading.Building, r reading.Reading) (string, error) {
	f.mu.Lock()
	f.appends++
	f.mu.Unlock()
	if c == f.failCategory && b == f.failBuilding {
		return "", errors.New("connection reset")
	}
	return f.MemStore.Append(ctx, c, b, r)
}

func (f *flakyStore) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appends
}

// hangingStore blocks every call until its context expires.
type hangingStore struct{}

func (hangingStore) Append(ctx context.Context, _ reading.Category, _ reading.Building, _ reading.Reading) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (hangingStore) SetLatest(ctx context.Context, _ reading.Category, _ reading.Building, _ reading.Snapshot) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestTick_WritesEveryPairWithSharedTimestamp(t *testing.T) {
	store := db.NewMemStore()
	d := New(store, testGenerator(), Config{Clock: func() time.Time { return fixedNow }}, quietLogger())

	res := d.Tick(context.Background())

	assert.Equal(t, fixedNow.UnixMilli(), res.TS)
	assert.Equal(t, 12, res.Written)
	assert.Zero(t, res.Failed)
	require.Len(t, res.Readings, 12)
	for _, r := range res.Readings {
		assert.Equal(t, res.TS, r.TS)
		assert.Equal(t, "22:13", r.Time)
	}

	all, err := store.ReadLatestAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, r := range res.Readings {
		assert.Equal(t, r.Snapshot(), all[r.Category][r.Building])

		recent, err := store.ReadRecent(context.Background(), r.Category, r.Building, 10)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, r, recent[0].Reading)
	}
}

func TestTick_SweepOrder(t *testing.T) {
	d := New(db.NewMemStore(), testGenerator(), Config{}, quietLogger())
	res := d.Tick(context.Background())

	i := 0
	for _, c := range reading.Categories {
		for _, b := range reading.Buildings {
			assert.Equal(t, c, res.Readings[i].Category)
			assert.Equal(t, b, res.Readings[i].Building)
			i++
		}
	}
}

func TestTick_FailedPairDoesNotStopSweep(t *testing.T) {
	store := &flakyStore{MemStore: db.NewMemStore(), failCategory: reading.Water, failBuilding: reading.Library}
	d := New(store, testGenerator(), Config{}, quietLogger())

	res := d.Tick(context.Background())

	assert.Equal(t, 11, res.Written)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 12, store.appendCount())

	water, err := store.ReadLatest(context.Background(), reading.Water)
	require.NoError(t, err)
	assert.NotContains(t, water, reading.Library)
	assert.Contains(t, water, reading.Labs)
}

func TestTick_CallTimeoutBoundsHungStore(t *testing.T) {
	d := New(hangingStore{}, testGenerator(), Config{CallTimeout: 10 * time.Millisecond}, quietLogger())

	start := time.Now()
	res := d.Tick(context.Background())

	assert.Equal(t, 12, res.Failed)
	assert.Zero(t, res.Written)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestTick_CancelledContextStopsEarly(t *testing.T) {
	store := db.NewMemStore()
	d := New(store, testGenerator(), Config{}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := d.Tick(ctx)

	assert.Zero(t, res.Written)
	assert.Empty(t, res.Readings)
}

func TestTick_Retention(t *testing.T) {
	store := db.NewMemStore()
	now := fixedNow
	d := New(store, testGenerator(), Config{
		RetainPerPair: 2,
		Clock: func() time.Time {
			now = now.Add(time.Minute)
			return now
		},
	}, quietLogger())

	var last TickResult
	for i := 0; i < 5; i++ {
		last = d.Tick(context.Background())
	}

	recent, err := store.ReadRecent(context.Background(), reading.Electricity, reading.HostelA, 50)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, last.TS, recent[1].TS)
}

func TestStartStop(t *testing.T) {
	store := &flakyStore{MemStore: db.NewMemStore()}
	d := New(store, testGenerator(), Config{Interval: 20 * time.Millisecond}, quietLogger())

	require.NoError(t, d.Start(context.Background()))
	assert.True(t, d.Running())
	assert.ErrorIs(t, d.Start(context.Background()), ErrAlreadyRunning)

	// One immediate sweep plus at least one periodic sweep.
	require.Eventually(t, func() bool { return store.appendCount() >= 24 }, 2*time.Second, 5*time.Millisecond)

	d.Stop()
	assert.False(t, d.Running())

	after := store.appendCount()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, store.appendCount())

	// Stop is idempotent and the driver can be restarted.
	d.Stop()
	require.NoError(t, d.Start(context.Background()))
	d.Stop()
}

func TestStart_ImmediateTick(t *testing.T) {
	store := &flakyStore{MemStore: db.NewMemStore()}
	d := New(store, testGenerator(), Config{Interval: time.Hour}, quietLogger())

	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	require.Eventually(t, func() bool { return store.appendCount() == 12 }, time.Second, 5*time.Millisecond)
}
