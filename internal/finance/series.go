package finance

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// PriceSeries is a date-indexed table of daily closes for the fixed universe:
// one shared, strictly increasing timeline, no missing values.
type PriceSeries struct {
	Assets []Asset
	Dates  []time.Time
	Close  [][]float64 // Close[asset][row]
}

// Rows returns the number of dates in the series.
func (p *PriceSeries) Rows() int {
	return len(p.Dates)
}

// LoadPriceSeries fetches and aligns daily closes for every asset in the
// universe over the requested history length. Any fetch failure propagates as
// a data-unavailable error for the whole load.
func LoadPriceSeries(years int) (*PriceSeries, error) {
	type raw struct {
		asset Asset
		ts    []int64
		cl    []float64
	}
	series := make([]raw, 0, len(Universe))
	for _, a := range Universe {
		ts, cl, err := fetchDailySeries(a.Symbol, years)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", a.Symbol, err)
		}
		if len(ts) == 0 {
			return nil, fmt.Errorf("no data available for %s", a.Symbol)
		}
		series = append(series, raw{asset: a, ts: ts, cl: cl})
	}

	// Base timeline is the least frequent series; this avoids inflating the
	// table when mixing 24/7 crypto with market-hours assets.
	base := 0
	for i := range series {
		if len(series[i].ts) < len(series[base].ts) {
			base = i
		}
	}
	timeline := make([]int64, len(series[base].ts))
	copy(timeline, series[base].ts)
	sort.Slice(timeline, func(i, j int) bool { return timeline[i] < timeline[j] })
	timeline = dedupeTimeline(timeline)

	assets := make([]Asset, len(series))
	closes := make([][]float64, len(series))
	for i, s := range series {
		assets[i] = s.asset
		aligned, err := forwardFill(s.asset.Symbol, s.ts, s.cl, timeline)
		if err != nil {
			return nil, err
		}
		closes[i] = aligned
	}

	dates := make([]time.Time, len(timeline))
	for i, ts := range timeline {
		dates[i] = time.Unix(ts, 0).UTC()
	}

	p := &PriceSeries{Assets: assets, Dates: dates, Close: closes}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func dedupeTimeline(ts []int64) []int64 {
	out := ts[:0]
	for i, t := range ts {
		if i > 0 && t == ts[i-1] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// forwardFill maps one asset's bars onto the shared timeline, carrying the
// last known close through gaps and falling back to the nearest close for
// leading entries.
func forwardFill(symbol string, ts []int64, cl []float64, timeline []int64) ([]float64, error) {
	priceAt := make(map[int64]float64, len(ts))
	for i, t := range ts {
		if i < len(cl) && cl[i] > 0 {
			priceAt[t] = cl[i]
		}
	}
	out := make([]float64, 0, len(timeline))
	var last float64
	haveLast := false
	for _, t := range timeline {
		if v, ok := priceAt[t]; ok {
			last = v
			haveLast = true
			out = append(out, v)
			continue
		}
		if haveLast {
			out = append(out, last)
			continue
		}
		v := closestClose(ts, cl, t)
		if v <= 0 {
			return nil, fmt.Errorf("no valid price for %s at or before %d", symbol, t)
		}
		last = v
		haveLast = true
		out = append(out, v)
	}
	return out, nil
}

// closestClose returns the most recent positive close at or before target,
// or the first positive close after it when none precedes.
func closestClose(ts []int64, cl []float64, target int64) float64 {
	var best float64
	var bestTs int64 = -1
	for i, t := range ts {
		if t <= target && i < len(cl) && cl[i] > 0 && t > bestTs {
			bestTs = t
			best = cl[i]
		}
	}
	if bestTs >= 0 {
		return best
	}
	for i, t := range ts {
		if t > target && i < len(cl) && cl[i] > 0 {
			return cl[i]
		}
	}
	return 0
}

// validate enforces the series invariants the estimator depends on.
func (p *PriceSeries) validate() error {
	if len(p.Assets) < 2 {
		return fmt.Errorf("need at least 2 assets, have %d", len(p.Assets))
	}
	if len(p.Dates) < 2 {
		return fmt.Errorf("need at least 2 rows of prices, have %d", len(p.Dates))
	}
	for i := 1; i < len(p.Dates); i++ {
		if !p.Dates[i].After(p.Dates[i-1]) {
			return fmt.Errorf("dates not strictly increasing at row %d", i)
		}
	}
	for a, col := range p.Close {
		if len(col) != len(p.Dates) {
			return fmt.Errorf("asset %s has %d prices, expected %d", p.Assets[a].Label, len(col), len(p.Dates))
		}
		for i, v := range col {
			if v <= 0 {
				return fmt.Errorf("invalid price for %s at row %d: %f", p.Assets[a].Label, i, v)
			}
		}
	}
	return nil
}

// Tail formats the most recent n rows as a fixed-width text table for
// diagnostic display.
func (p *PriceSeries) Tail(n int) string {
	if n > len(p.Dates) {
		n = len(p.Dates)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-12s", "Date"))
	for _, a := range p.Assets {
		b.WriteString(fmt.Sprintf("%12s", a.Label))
	}
	b.WriteString("\n")
	for i := len(p.Dates) - n; i < len(p.Dates); i++ {
		b.WriteString(p.Dates[i].Format("2006-01-02  "))
		for a := range p.Assets {
			b.WriteString(fmt.Sprintf("%12.2f", p.Close[a][i]))
		}
		b.WriteString("\n")
	}
	return b.String()
}
