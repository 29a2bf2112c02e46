package finance

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// BarCache persists fetched daily bars so repeat requests within the freshness
// window skip the network entirely.
type BarCache interface {
	LoadBars(symbol string, maxAge time.Duration) ([]int64, []float64, error)
	SaveBars(symbol string, ts []int64, closes []float64) error
}

var (
	barCache   BarCache
	barCacheMu sync.Mutex
)

const barCacheMaxAge = 6 * time.Hour

// SetBarCache wires a persistent bars cache into the fetch path.
func SetBarCache(c BarCache) {
	barCacheMu.Lock()
	barCache = c
	barCacheMu.Unlock()
}

func getBarCache() BarCache {
	barCacheMu.Lock()
	defer barCacheMu.Unlock()
	return barCache
}

// rangeForYears maps a history length in years onto the nearest Yahoo range
// parameter at or above it; the fetched series is trimmed back afterwards.
func rangeForYears(years int) string {
	switch {
	case years <= 1:
		return "1y"
	case years <= 2:
		return "2y"
	case years <= 5:
		return "5y"
	case years <= 10:
		return "10y"
	default:
		return "max"
	}
}

// fetchDailySeries fetches dividend/split-adjusted daily closes for one symbol
// covering the requested number of years. Bars come from the persistent cache
// when fresh; otherwise from the Yahoo v8 chart API with a v7 spark fallback,
// rotating hosts with bounded backoff.
func fetchDailySeries(symbol string, years int) ([]int64, []float64, error) {
	if cache := getBarCache(); cache != nil {
		ts, cl, err := cache.LoadBars(symbol, barCacheMaxAge)
		if err == nil && len(ts) >= 2 {
			return trimToYears(ts, cl, years), trimClosesToYears(ts, cl, years), nil
		}
	}

	ts, cl, err := fetchChartSeries(symbol, rangeForYears(years))
	if err != nil {
		ts, cl, err = fetchSparkSeries(symbol, rangeForYears(years))
	}
	if err != nil {
		return nil, nil, err
	}

	ts, cl = filterPositive(ts, cl)
	ts, cl = filterIQR(ts, cl, 1.5, 20)
	if len(ts) == 0 {
		return nil, nil, errors.New("no usable bars after filtering")
	}

	if cache := getBarCache(); cache != nil {
		// a failed save only costs a refetch next time
		_ = cache.SaveBars(symbol, ts, cl)
	}
	return trimToYears(ts, cl, years), trimClosesToYears(ts, cl, years), nil
}

// trimToYears keeps only the most recent N years of timestamps.
func trimToYears(ts []int64, cl []float64, years int) []int64 {
	idx := trimIndex(ts, years)
	out := make([]int64, len(ts)-idx)
	copy(out, ts[idx:])
	return out
}

func trimClosesToYears(ts []int64, cl []float64, years int) []float64 {
	idx := trimIndex(ts, years)
	out := make([]float64, len(cl)-idx)
	copy(out, cl[idx:])
	return out
}

func trimIndex(ts []int64, years int) int {
	if len(ts) == 0 || years <= 0 {
		return 0
	}
	cutoff := ts[len(ts)-1] - int64(years)*365*24*3600
	for i, t := range ts {
		if t >= cutoff {
			return i
		}
	}
	return 0
}

var yahooHosts = []string{"query1.finance.yahoo.com", "query2.finance.yahoo.com"}

var fetchBackoffs = []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, time.Second}

// fetchChartSeries hits the Yahoo v8 chart endpoint for daily bars.
func fetchChartSeries(symbol, rangeParam string) ([]int64, []float64, error) {
	var yc yahooChartResp
	var lastErr error
	for attempt := 0; attempt < len(fetchBackoffs)+1; attempt++ {
		for _, host := range yahooHosts {
			url := fmt.Sprintf("https://%s/v8/finance/chart/%s?range=%s&interval=1d&events=div,splits", host, symbol, rangeParam)
			body, err := fetchYahooBody(url, symbol)
			if err != nil {
				lastErr = err
				continue
			}
			if err := json.Unmarshal(body, &yc); err != nil {
				lastErr = fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(body))
				continue
			}
			lastErr = nil
			break
		}
		if lastErr == nil {
			break
		}
		if attempt < len(fetchBackoffs) {
			time.Sleep(fetchBackoffs[attempt])
		}
	}
	if lastErr != nil {
		return nil, nil, lastErr
	}
	if len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil, errors.New("no data")
	}
	ts := yc.Chart.Result[0].Timestamp
	cl := yc.Chart.Result[0].Indicators.Quote[0].Close
	if len(ts) == 0 || len(cl) == 0 {
		return nil, nil, errors.New("empty bars")
	}
	return ts, cl, nil
}

// fetchSparkSeries is the v7 spark fallback when the chart endpoint is down
// or rate limited.
func fetchSparkSeries(symbol, rangeParam string) ([]int64, []float64, error) {
	var sp yahooSparkResp
	var lastErr error
	for attempt := 0; attempt < len(fetchBackoffs)+1; attempt++ {
		for _, host := range yahooHosts {
			url := fmt.Sprintf("https://%s/v7/finance/spark?symbols=%s&range=%s&interval=1d", host, strings.ToUpper(symbol), rangeParam)
			body, err := fetchYahooBody(url, symbol)
			if err != nil {
				lastErr = err
				continue
			}
			if err := json.Unmarshal(body, &sp); err != nil {
				lastErr = fmt.Errorf("failed to parse yahoo spark json: %v", err)
				continue
			}
			if len(sp.Spark.Result) > 0 && len(sp.Spark.Result[0].Response) > 0 {
				r := sp.Spark.Result[0].Response[0]
				if len(r.Timestamp) > 0 {
					return r.Timestamp, r.Close, nil
				}
			}
			lastErr = errors.New("spark returned no series")
		}
		if attempt < len(fetchBackoffs) {
			time.Sleep(fetchBackoffs[attempt])
		}
	}
	return nil, nil, lastErr
}

// fetchYahooBody performs one request with browser-like headers and rejects
// rate-limit and non-JSON responses.
func fetchYahooBody(url, symbol string) ([]byte, error) {
	req, _ := http.NewRequest("GET", url, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/chart", strings.ToUpper(symbol)))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read yahoo response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return nil, fmt.Errorf("yahoo returned 429: Edge: Too Many Requests")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned %d: %s", resp.StatusCode, preview(body))
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return nil, fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}
	return body, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
