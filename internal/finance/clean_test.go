package finance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterPositive(t *testing.T) {
	ts, cl := filterPositive([]int64{1, 2, 3, 4}, []float64{10, 0, -5, 20})
	require.Equal(t, []int64{1, 4}, ts)
	require.Equal(t, []float64{10, 20}, cl)
}

func TestFilterIQRDropsOutliers(t *testing.T) {
	ts := make([]int64, 30)
	cl := make([]float64, 30)
	for i := range ts {
		ts[i] = int64(i)
		cl[i] = 100 + float64(i%5)
	}
	cl[10] = 100000 // spike

	outTs, outCl := filterIQR(ts, cl, 1.5, 20)
	require.Len(t, outCl, 29)
	require.NotContains(t, outCl, 100000.0)
	require.NotContains(t, outTs, int64(10))
}

func TestFilterIQRShortSeriesUntouched(t *testing.T) {
	ts := []int64{1, 2, 3}
	cl := []float64{1, 2, 1000}
	outTs, outCl := filterIQR(ts, cl, 1.5, 20)
	require.Equal(t, ts, outTs)
	require.Equal(t, cl, outCl)
}

func TestQuantile(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	require.Equal(t, 1.0, quantile(vals, 0))
	require.Equal(t, 3.0, quantile(vals, 0.5))
	require.Equal(t, 5.0, quantile(vals, 1))
	require.InDelta(t, 2.0, quantile(vals, 0.25), 1e-12)
}
