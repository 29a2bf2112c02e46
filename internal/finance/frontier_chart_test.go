package finance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderFrontierChart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Points = 15
	set, err := ComputeFrontier(testStats(), cfg)
	require.NoError(t, err)

	img, err := RenderFrontierChart(set, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, img)
	require.Equal(t, "\x89PNG", string(img[:4]))

	// second render for the same parameters is served from cache
	again, err := RenderFrontierChart(set, cfg)
	require.NoError(t, err)
	require.Equal(t, img, again)
}

func TestSummaryContents(t *testing.T) {
	cfg := DefaultConfig()
	set, err := ComputeFrontier(testStats(), cfg)
	require.NoError(t, err)

	s := Summary(set, cfg, 1000)
	require.Contains(t, s, "Sharpe")
	require.Contains(t, s, "BTC")
	require.Contains(t, s, "SPX")
	require.Contains(t, s, "GOLD")
	require.Contains(t, s, "targets dropped")
	require.Contains(t, s, "5y history")
	// one weight percentage per asset on the first line
	firstLine := strings.SplitN(s, "\n", 2)[0]
	require.Contains(t, firstLine, "%")
}

func TestRenderHistoryChart(t *testing.T) {
	p := seriesWithGrowth(40, []float64{1.01, 1.002})
	img, err := RenderHistoryChart(p, 2)
	require.NoError(t, err)
	require.NotEmpty(t, img)
	require.Equal(t, "\x89PNG", string(img[:4]))
}
