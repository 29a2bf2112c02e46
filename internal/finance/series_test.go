package finance

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsBadSeries(t *testing.T) {
	good := seriesWithGrowth(5, []float64{1.01, 1.002})
	require.NoError(t, good.validate())

	one := seriesWithGrowth(5, []float64{1.01})
	require.Error(t, one.validate())

	short := seriesWithGrowth(1, []float64{1.01, 1.002})
	require.Error(t, short.validate())

	dup := seriesWithGrowth(5, []float64{1.01, 1.002})
	dup.Dates[2] = dup.Dates[1]
	require.Error(t, dup.validate())

	neg := seriesWithGrowth(5, []float64{1.01, 1.002})
	neg.Close[1][3] = -4
	require.Error(t, neg.validate())
}

func TestForwardFill(t *testing.T) {
	timeline := []int64{100, 200, 300, 400}
	out, err := forwardFill("TEST", []int64{100, 300}, []float64{10, 30}, timeline)
	require.NoError(t, err)
	require.Equal(t, []float64{10, 10, 30, 30}, out)

	// leading gap falls back to the nearest later close
	out, err = forwardFill("TEST", []int64{300, 400}, []float64{30, 40}, timeline)
	require.NoError(t, err)
	require.Equal(t, []float64{30, 30, 30, 40}, out)

	// no usable price at all
	_, err = forwardFill("TEST", []int64{100}, []float64{-1}, timeline)
	require.Error(t, err)
}

func TestClosestClose(t *testing.T) {
	ts := []int64{100, 200, 300}
	cl := []float64{10, 20, 30}
	require.Equal(t, 20.0, closestClose(ts, cl, 250))
	require.Equal(t, 30.0, closestClose(ts, cl, 999))
	require.Equal(t, 10.0, closestClose(ts, cl, 50)) // nothing before, first after
}

func TestDedupeTimeline(t *testing.T) {
	require.Equal(t, []int64{1, 2, 3}, dedupeTimeline([]int64{1, 2, 2, 3, 3}))
}

func TestTail(t *testing.T) {
	p := seriesWithGrowth(10, []float64{1.01, 1.002})
	tail := p.Tail(3)
	require.Contains(t, tail, "BTC")
	require.Contains(t, tail, "SPX")
	// header plus 3 rows
	require.Equal(t, 4, strings.Count(tail, "\n"))
	require.Contains(t, tail, p.Dates[9].Format("2006-01-02"))

	// n larger than the series is not an error
	require.Equal(t, 11, strings.Count(p.Tail(99), "\n"))
}

func TestTrimToYears(t *testing.T) {
	now := time.Now().Unix()
	day := int64(24 * 3600)
	ts := []int64{now - 800*day, now - 400*day, now - 100*day, now}
	cl := []float64{1, 2, 3, 4}
	require.Equal(t, []int64{now - 400*day, now - 100*day, now}, trimToYears(ts, cl, 2))
	require.Equal(t, []float64{2, 3, 4}, trimClosesToYears(ts, cl, 2))
	require.Equal(t, ts, trimToYears(ts, cl, 10))
}
