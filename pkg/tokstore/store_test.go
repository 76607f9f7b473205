package tokstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateThenRotate(t *testing.T) {
	s := New(2 * time.Hour)

	t1, err := s.Create(Meta{"user": "alice", "year": 2022})
	require.NoError(t, err)
	require.NotEmpty(t, t1)

	entry, err := s.Rotate(t1, Meta{"period": 11}, true)
	require.NoError(t, err)
	assert.NotEqual(t, t1, entry.Token)
	assert.Equal(t, Meta{"user": "alice", "year": 2022, "period": 11}, entry.Meta)

	_, err = s.Rotate(t1, nil, false)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRotateWithoutMetadataKeepsOldMeta(t *testing.T) {
	s := New(2 * time.Hour)

	t1, err := s.Create(Meta{"k": float64(1)})
	require.NoError(t, err)

	entry, err := s.Rotate(t1, nil, false)
	require.NoError(t, err)
	assert.Equal(t, Meta{"k": float64(1)}, entry.Meta)
}

func TestRemoveThenRotateIsInvalid(t *testing.T) {
	s := New(2 * time.Hour)

	t1, err := s.Create(Meta{})
	require.NoError(t, err)

	s.Remove(t1)
	_, err = s.Rotate(t1, nil, false)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := New(2 * time.Hour)

	t1, err := s.Create(Meta{})
	require.NoError(t, err)

	s.Remove(t1)
	s.Remove(t1) // must not panic, must have no further observable effect

	_, err = s.Rotate(t1, nil, false)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRotateUnknownTokenIsInvalid(t *testing.T) {
	s := New(2 * time.Hour)
	_, err := s.Rotate("not-a-real-token", nil, false)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiryReturnsInvalidTokenAndShrinksStore(t *testing.T) {
	now := time.Now()
	clock := now
	s := New(time.Minute, withClock(func() time.Time { return clock }))

	before := s.Len()
	token, err := s.Create(Meta{})
	require.NoError(t, err)
	assert.Equal(t, before+1, s.Len())

	clock = now.Add(2 * time.Minute)
	_, err = s.Rotate(token, nil, false)
	assert.ErrorIs(t, err, ErrInvalidToken)

	removed := s.Purge(clock)
	assert.Equal(t, 1, removed)
	assert.Equal(t, before, s.Len())
}

func TestDumpFiltersExpiredEntries(t *testing.T) {
	now := time.Now()
	clock := now
	s := New(time.Minute, withClock(func() time.Time { return clock }))

	_, err := s.Create(Meta{"a": 1})
	require.NoError(t, err)

	clock = now.Add(2 * time.Minute)
	dump := s.Dump()
	assert.Empty(t, dump)
}
