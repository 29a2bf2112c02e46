package finance

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// seriesWithGrowth builds a price series where each asset grows by a constant
// daily factor, so every daily log return is exactly ln(g).
func seriesWithGrowth(rows int, growth []float64) *PriceSeries {
	assets := make([]Asset, len(growth))
	closes := make([][]float64, len(growth))
	for a := range growth {
		assets[a] = Universe[a]
		closes[a] = make([]float64, rows)
		price := 100.0
		for i := 0; i < rows; i++ {
			closes[a][i] = price
			price *= growth[a]
		}
	}
	dates := make([]time.Time, rows)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return &PriceSeries{Assets: assets, Dates: dates, Close: closes}
}

func TestComputeReturnStatsAnnualization(t *testing.T) {
	p := seriesWithGrowth(10, []float64{1.01, 1.002})
	stats, err := ComputeReturnStats(p)
	require.NoError(t, err)
	require.Equal(t, []string{"BTC", "SPX"}, stats.Labels)
	require.Equal(t, 9, stats.Rows)

	// constant growth: mu = 252 * ln(g), zero variance
	require.InDelta(t, 252*math.Log(1.01), stats.Mu[0], 1e-9)
	require.InDelta(t, 252*math.Log(1.002), stats.Mu[1], 1e-9)
	require.InDelta(t, 0, stats.Cov[0][0], 1e-9)
	require.InDelta(t, 0, stats.Cov[0][1], 1e-9)
}

func TestComputeReturnStatsCovariance(t *testing.T) {
	// two perfectly correlated assets: off-diagonal equals the diagonals
	p := seriesWithGrowth(4, []float64{1.0, 1.0})
	p.Close[0] = []float64{100, 110, 100, 110}
	p.Close[1] = []float64{50, 55, 50, 55}
	stats, err := ComputeReturnStats(p)
	require.NoError(t, err)
	require.InDelta(t, stats.Cov[0][0], stats.Cov[0][1], 1e-9)
	require.InDelta(t, stats.Cov[0][0], stats.Cov[1][1], 1e-9)
	require.Equal(t, stats.Cov[0][1], stats.Cov[1][0])
	require.Greater(t, stats.Cov[0][0], 0.0)
}

func TestComputeReturnStatsTooShort(t *testing.T) {
	_, err := ComputeReturnStats(seriesWithGrowth(2, []float64{1.01, 1.002}))
	require.Error(t, err)

	_, err = ComputeReturnStats(nil)
	require.Error(t, err)
}

func TestStatsCacheKeyedByYears(t *testing.T) {
	statsCacheMu.Lock()
	statsCache = map[int]statsCacheEntry{}
	statsCacheMu.Unlock()

	p3 := seriesWithGrowth(10, []float64{1.01, 1.002})
	s3, err := ComputeReturnStats(p3)
	require.NoError(t, err)
	p7 := seriesWithGrowth(20, []float64{1.02, 1.001})
	s7, err := ComputeReturnStats(p7)
	require.NoError(t, err)

	statsCacheSet(3, p3, s3)
	statsCacheSet(7, p7, s7)

	series, stats, ok := statsCacheGet(3)
	require.True(t, ok)
	require.Same(t, p3, series)
	require.Same(t, s3, stats)

	series, stats, ok = statsCacheGet(7)
	require.True(t, ok)
	require.Same(t, p7, series)
	require.Same(t, s7, stats)

	// a history length never loaded must miss, forcing a recompute
	_, _, ok = statsCacheGet(5)
	require.False(t, ok)
}
