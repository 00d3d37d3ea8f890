package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searoute/internal/types"
)

var (
	pointA = types.Coordinate{Lat: 18.93, Lon: 72.84}
	pointB = types.Coordinate{Lat: 13.10, Lon: 80.30}
	pointC = types.Coordinate{Lat: 6.93, Lon: 79.85}
)

func TestSelection_Rotation(t *testing.T) {
	t.Run("two picks fill start then end", func(t *testing.T) {
		var s Selection
		s.Select(pointA)
		s.Select(pointB)

		require.NotNil(t, s.Start)
		require.NotNil(t, s.End)
		assert.Equal(t, pointA, *s.Start)
		assert.Equal(t, pointB, *s.End)
		assert.True(t, s.Complete())
	})

	t.Run("third pick starts over", func(t *testing.T) {
		var s Selection
		s.Select(pointA)
		s.Select(pointB)
		s.Select(pointC)

		require.NotNil(t, s.Start)
		assert.Equal(t, pointC, *s.Start)
		assert.Nil(t, s.End)
		assert.False(t, s.Complete())
	})

	t.Run("single pick", func(t *testing.T) {
		var s Selection
		s.Select(pointA)
		assert.Equal(t, pointA, *s.Start)
		assert.Nil(t, s.End)
	})
}

func TestSelection_CloneIsIndependent(t *testing.T) {
	var s Selection
	s.Select(pointA)
	s.Select(pointB)

	c := s.clone()
	c.Start.Lat = 0

	assert.Equal(t, pointA, *s.Start)
}

func TestSelection_Reset(t *testing.T) {
	var s Selection
	s.Select(pointA)
	s.Reset()
	assert.Nil(t, s.Start)
	assert.Nil(t, s.End)
}

func TestUpdateLog_NewestFirstBounded(t *testing.T) {
	var log UpdateLog
	assert.Empty(t, log.Entries())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		log.Push(types.UpdateEvent{
			ID:        string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	entries := log.Entries()
	require.Len(t, entries, UpdateLogSize)
	assert.Equal(t, UpdateLogSize, log.Len())

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"g", "f", "e", "d", "c"}, ids)

	log.Reset()
	assert.Zero(t, log.Len())
	assert.Empty(t, log.Entries())
}

func TestUpdateLog_PartiallyFilled(t *testing.T) {
	var log UpdateLog
	log.Push(types.UpdateEvent{ID: "first"})
	log.Push(types.UpdateEvent{ID: "second"})

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].ID)
	assert.Equal(t, "first", entries[1].ID)
}
