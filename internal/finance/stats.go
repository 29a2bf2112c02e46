package finance

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// tradingDays is the annualization convention: daily mean and covariance of
// log returns scale by 252, assuming i.i.d. trading days.
const tradingDays = 252.0

// ReturnStats holds the annualized return vector and covariance matrix
// estimated from a price series. Immutable once computed.
type ReturnStats struct {
	Labels []string
	Mu     []float64   // annualized mean log return per asset
	Cov    [][]float64 // annualized sample covariance, symmetric PSD
	Rows   int         // number of daily return observations used
}

// ComputeReturnStats converts a price series into annualized statistics:
// daily log returns with the first row dropped, mean x 252, sample
// covariance (N-1) x 252.
func ComputeReturnStats(p *PriceSeries) (*ReturnStats, error) {
	if p == nil || p.Rows() < 2 {
		return nil, fmt.Errorf("need at least 2 price rows to compute returns")
	}
	nAssets := len(p.Assets)
	nRets := p.Rows() - 1
	if nRets < 2 {
		return nil, fmt.Errorf("need at least 2 return observations, have %d", nRets)
	}

	rets := make([][]float64, nAssets)
	for a := 0; a < nAssets; a++ {
		rets[a] = make([]float64, nRets)
		for t := 1; t < p.Rows(); t++ {
			rets[a][t-1] = math.Log(p.Close[a][t] / p.Close[a][t-1])
		}
	}

	labels := make([]string, nAssets)
	mu := make([]float64, nAssets)
	mean := make([]float64, nAssets)
	for a := 0; a < nAssets; a++ {
		labels[a] = p.Assets[a].Label
		sum := 0.0
		for _, r := range rets[a] {
			sum += r
		}
		mean[a] = sum / float64(nRets)
		mu[a] = mean[a] * tradingDays
	}

	cov := make([][]float64, nAssets)
	for a := range cov {
		cov[a] = make([]float64, nAssets)
	}
	for a := 0; a < nAssets; a++ {
		for b := a; b < nAssets; b++ {
			acc := 0.0
			for t := 0; t < nRets; t++ {
				acc += (rets[a][t] - mean[a]) * (rets[b][t] - mean[b])
			}
			c := acc / float64(nRets-1) * tradingDays
			cov[a][b] = c
			cov[b][a] = c
		}
	}

	return &ReturnStats{Labels: labels, Mu: mu, Cov: cov, Rows: nRets}, nil
}

// Statistics cache, keyed by history length in years. Changing the history
// length always recomputes from a freshly loaded series.
type statsCacheEntry struct {
	createdAt time.Time
	series    *PriceSeries
	stats     *ReturnStats
}

var (
	statsCache    = map[int]statsCacheEntry{}
	statsCacheMu  sync.Mutex
	statsCacheTTL = time.Hour
)

func statsCacheGet(years int) (*PriceSeries, *ReturnStats, bool) {
	statsCacheMu.Lock()
	defer statsCacheMu.Unlock()
	entry, ok := statsCache[years]
	if !ok || time.Now().After(entry.createdAt.Add(statsCacheTTL)) {
		return nil, nil, false
	}
	return entry.series, entry.stats, true
}

func statsCacheSet(years int, series *PriceSeries, stats *ReturnStats) {
	statsCacheMu.Lock()
	statsCache[years] = statsCacheEntry{createdAt: time.Now(), series: series, stats: stats}
	statsCacheMu.Unlock()
}

// StatsForYears loads (or serves from cache) the price series for the given
// history length and its derived statistics.
func StatsForYears(years int) (*PriceSeries, *ReturnStats, error) {
	if series, stats, ok := statsCacheGet(years); ok {
		return series, stats, nil
	}
	series, err := LoadPriceSeries(years)
	if err != nil {
		return nil, nil, err
	}
	stats, err := ComputeReturnStats(series)
	if err != nil {
		return nil, nil, err
	}
	statsCacheSet(years, series, stats)
	return series, stats, nil
}
