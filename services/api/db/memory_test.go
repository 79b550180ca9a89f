package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priyanshu1258/Hackathon/services/api/reading"
)

func makeReading(c reading.Category, b reading.Building, ts int64, value float64) reading.Reading {
	return reading.Reading{
		Building: b,
		Category: c,
		TS:       ts,
		Time:     reading.FormatTime(ts, time.UTC),
		Value:    value,
		Unit:     reading.UnitFor(c),
	}
}

func TestMemStore_ReadLatestAllEmpty(t *testing.T) {
	s := NewMemStore()

	all, err := s.ReadLatestAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	byCat, err := s.ReadLatest(context.Background(), reading.Water)
	require.NoError(t, err)
	assert.NotNil(t, byCat)
	assert.Empty(t, byCat)
}

func TestMemStore_SetLatestOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	first := makeReading(reading.Electricity, reading.Labs, 1000, 80)
	second := makeReading(reading.Electricity, reading.Labs, 2000, 85.5)
	require.NoError(t, s.SetLatest(ctx, reading.Electricity, reading.Labs, first.Snapshot()))
	require.NoError(t, s.SetLatest(ctx, reading.Electricity, reading.Labs, second.Snapshot()))

	latest, err := s.ReadLatest(ctx, reading.Electricity)
	require.NoError(t, err)
	assert.Equal(t, second.Snapshot(), latest[reading.Labs])

	all, err := s.ReadLatestAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, second.Snapshot(), all[reading.Electricity][reading.Labs])
}

func TestMemStore_ReadRecentReturnsNewestInOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		id, err := s.Append(ctx, reading.Water, reading.Library, makeReading(reading.Water, reading.Library, int64(i), float64(i)))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	recent, err := s.ReadRecent(ctx, reading.Water, reading.Library, 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	for i, e := range recent {
		assert.Equal(t, ids[15+i], e.ID)
		assert.Equal(t, int64(15+i), e.TS)
	}

	other, err := s.ReadRecent(ctx, reading.Water, reading.Labs, 5)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemStore_EntryIDsAreUniqueAndOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	var prev string
	for i := 0; i < 50; i++ {
		id, err := s.Append(ctx, reading.Food, reading.Cafeteria, makeReading(reading.Food, reading.Cafeteria, int64(i), 10))
		require.NoError(t, err)
		assert.NotEqual(t, prev, id)
		prev = id
	}
}

func TestMemStore_ReadRecentIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	r := makeReading(reading.Food, reading.Cafeteria, 1, 0.5)
	r.Meta.MealsServed = 150
	_, err := s.Append(ctx, reading.Food, reading.Cafeteria, r)
	require.NoError(t, err)

	recent, err := s.ReadRecent(ctx, reading.Food, reading.Cafeteria, 10)
	require.NoError(t, err)
	recent[0].Value = 999
	recent[0].Meta.MealsServed = 1

	again, err := s.ReadRecent(ctx, reading.Food, reading.Cafeteria, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, again[0].Value, 0.0001)
	assert.Equal(t, 150, again[0].Meta.MealsServed)
}

func TestMemStore_Trim(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	for i := 0; i < 10; i++ {
		_, err := s.Append(ctx, reading.Electricity, reading.HostelA, makeReading(reading.Electricity, reading.HostelA, int64(i), 120))
		require.NoError(t, err)
	}

	removed, err := s.Trim(ctx, reading.Electricity, reading.HostelA, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), removed)

	recent, err := s.ReadRecent(ctx, reading.Electricity, reading.HostelA, 50)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, int64(7), recent[0].TS)

	removed, err = s.Trim(ctx, reading.Electricity, reading.HostelA, 3)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestMemStore_ListenReceivesAppends(t *testing.T) {
	s := NewMemStore()
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan Change, 4)
	done := make(chan error, 1)
	go func() { done <- s.Listen(ctx, func(c Change) { got <- c }) }()

	require.Eventually(t, func() bool { return s.ListenerCount() == 1 }, time.Second, 5*time.Millisecond)

	id, err := s.Append(context.Background(), reading.Electricity, reading.HostelA, makeReading(reading.Electricity, reading.HostelA, 5, 121))
	require.NoError(t, err)

	select {
	case c := <-got:
		assert.Equal(t, reading.Electricity, c.Category)
		assert.Equal(t, reading.HostelA, c.Building)
		assert.Equal(t, id, c.Entry.ID)
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 0, s.ListenerCount())
}

func TestMemStore_CloseReleasesListen(t *testing.T) {
	s := NewMemStore()

	done := make(chan error, 1)
	go func() { done <- s.Listen(context.Background(), func(Change) {}) }()
	require.Eventually(t, func() bool { return s.ListenerCount() == 1 }, time.Second, 5*time.Millisecond)

	s.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("listen still blocked after close")
	}
	assert.Equal(t, 0, s.ListenerCount())

	// A second close is a no-op.
	s.Close()
}

func TestMemStore_Closed(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	s.Close()

	_, err := s.Append(ctx, reading.Water, reading.Labs, makeReading(reading.Water, reading.Labs, 1, 600))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.ReadLatestAll(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Listen(ctx, func(Change) {}), ErrClosed)
	assert.ErrorIs(t, s.Ping(ctx), ErrClosed)
}
