package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSchema(db))
	return NewStore(db)
}

func TestBarsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	ts := []int64{100, 200, 300}
	closes := []float64{10.5, 11.0, 10.8}
	require.NoError(t, s.SaveBars("BTC-USD", ts, closes))

	gotTs, gotCl, err := s.LoadBars("BTC-USD", time.Hour)
	require.NoError(t, err)
	require.Equal(t, ts, gotTs)
	require.Equal(t, closes, gotCl)
}

func TestLoadBarsMissAndStale(t *testing.T) {
	s := openTestStore(t)

	_, _, err := s.LoadBars("^GSPC", time.Hour)
	require.Error(t, err)

	require.NoError(t, s.SaveBars("^GSPC", []int64{100}, []float64{50}))
	_, _, err = s.LoadBars("^GSPC", -time.Second)
	require.Error(t, err)
}

func TestSaveBarsReplacesOldSeries(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveBars("GLD", []int64{100, 200}, []float64{1, 2}))
	require.NoError(t, s.SaveBars("GLD", []int64{300}, []float64{3}))

	ts, cl, err := s.LoadBars("GLD", time.Hour)
	require.NoError(t, err)
	require.Equal(t, []int64{300}, ts)
	require.Equal(t, []float64{3}, cl)
}

func TestSaveBarsLengthMismatch(t *testing.T) {
	s := openTestStore(t)
	require.Error(t, s.SaveBars("GLD", []int64{1, 2}, []float64{1}))
}

func TestUsageStats(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.LogUsage("/frontier", 1))
	require.NoError(t, s.LogUsage("/frontier", 2))
	require.NoError(t, s.LogUsage("/prices", 1))

	stats, err := s.FetchUsageStats(7)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	require.Equal(t, 2, stats["/frontier"].Count)
	require.Equal(t, 1, stats["/prices"].Count)
	require.Greater(t, stats["/frontier"].LastUsed, int64(0))
}
