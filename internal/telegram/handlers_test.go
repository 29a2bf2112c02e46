package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"

	"frontierbot/internal/finance"
)

func TestParseFrontierArgsDefaults(t *testing.T) {
	cfg := parseFrontierArgs("")
	require.Equal(t, finance.DefaultConfig(), cfg)
}

func TestParseFrontierArgs(t *testing.T) {
	cfg := parseFrontierArgs(" 7y rf=2.5 short cap=0.3 pts=80")
	require.Equal(t, 7, cfg.Years)
	require.InDelta(t, 0.025, cfg.RiskFree, 1e-12)
	require.True(t, cfg.AllowShort)
	require.Equal(t, 0.3, cfg.BTCCap)
	require.Equal(t, 80, cfg.Points)

	cfg = parseFrontierArgs("years=3")
	require.Equal(t, 3, cfg.Years)
	require.False(t, cfg.AllowShort)
}

func TestParseFrontierArgsClamps(t *testing.T) {
	cfg := parseFrontierArgs("50y rf=99 cap=5 pts=1000")
	require.Equal(t, 10, cfg.Years)
	require.Equal(t, 0.10, cfg.RiskFree)
	require.Equal(t, 0.65, cfg.BTCCap)
	require.Equal(t, 120, cfg.Points)
}

func TestParseFrontierArgsIgnoresJunk(t *testing.T) {
	cfg := parseFrontierArgs("rf=abc cap=xyz wat 5q")
	require.Equal(t, finance.DefaultConfig(), cfg)
}

func TestCommandRegexes(t *testing.T) {
	require.True(t, reFrontier.MatchString("/frontier"))
	require.True(t, reFrontier.MatchString("/frontier@frontier_bot 5y short"))
	require.False(t, reFrontier.MatchString("/frontiers"))

	require.True(t, rePrices.MatchString("/prices 3y"))
	require.True(t, reHistory.MatchString("/history"))
	require.True(t, reExplain.MatchString("/explain"))
	require.True(t, reUsage.MatchString("/usage 30"))
	require.True(t, reHelp.MatchString("/help"))
	require.True(t, reHelp.MatchString("/start"))
}
