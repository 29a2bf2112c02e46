package finance

import (
	"fmt"
	"strings"

	"github.com/vicanso/go-charts/v2"
)

// RenderFrontierChart renders the frontier set as a PNG line chart with
// volatility % on x and return % on y, plus a second series holding only the
// tangency point so it shows up as a single marker.
func RenderFrontierChart(set *FrontierSet, cfg FrontierConfig) ([]byte, error) {
	if set == nil || len(set.Points) == 0 {
		return nil, ErrNoFeasibleFrontier
	}

	cacheKey := frontierCacheKey(cfg)
	if img, ok := cacheGet(cacheKey); ok {
		return img, nil
	}

	xLabels := make([]string, len(set.Points))
	frontier := make([]float64, len(set.Points))
	tangency := make([]float64, len(set.Points))
	yMin, yMax := set.Points[0].Return*100, set.Points[0].Return*100
	for i, p := range set.Points {
		xLabels[i] = fmt.Sprintf("%.1f", p.Volatility*100)
		frontier[i] = p.Return * 100
		tangency[i] = charts.GetNullValue()
		if frontier[i] < yMin {
			yMin = frontier[i]
		}
		if frontier[i] > yMax {
			yMax = frontier[i]
		}
	}
	best := set.Points[set.Tangency]
	tangency[set.Tangency] = best.Return * 100

	pad := (yMax - yMin) * 0.05
	if pad == 0 {
		pad = 1
	}
	yLo, yHi := yMin-pad, yMax+pad

	split := 8
	if len(xLabels) < 16 {
		split = len(xLabels)/2 + 1
	}

	title := "Efficient Frontier • BTC/SPX/GOLD"
	subtitle := fmt.Sprintf("Max-Sharpe: Ret %.2f%% Vol %.2f%% S %.2f | x: Ann. Vol %%  y: Ann. Ret %%",
		best.Return*100, best.Volatility*100, best.Sharpe)

	painter, err := charts.LineRender(
		[][]float64{frontier, tangency},
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yLo, Max: &yHi, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: []string{"Frontier", "Max-Sharpe"}}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render frontier chart: %w", err)
	}
	img, err := painter.Bytes()
	if err != nil {
		return nil, err
	}
	cacheSet(cacheKey, img)
	return img, nil
}

func frontierCacheKey(cfg FrontierConfig) string {
	return fmt.Sprintf("frontier-%dy-%.4f-%t-%.4f-%d", cfg.Years, cfg.RiskFree, cfg.AllowShort, cfg.BTCCap, cfg.Points)
}

// Summary builds the human-readable caption: tangency portfolio stats with
// per-asset weight percentages, asset baselines, row count and how many sweep
// targets were dropped.
func Summary(set *FrontierSet, cfg FrontierConfig, rows int) string {
	best := set.Points[set.Tangency]

	var w strings.Builder
	for i, label := range set.Labels {
		if i > 0 {
			w.WriteString(", ")
		}
		w.WriteString(fmt.Sprintf("%s %.0f%%", label, best.Weights[i]*100))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Return: %.2f%%, Vol: %.2f%%, Sharpe: %.2f | Weights: %s\n",
		best.Return*100, best.Volatility*100, best.Sharpe, w.String()))
	for _, a := range set.Assets {
		b.WriteString(fmt.Sprintf("%s alone: Ret %.2f%% Vol %.2f%%\n", a.Label, a.Return*100, a.Volatility*100))
	}
	b.WriteString(fmt.Sprintf("%d frontier points (%d targets dropped), %d return rows, %dy history",
		len(set.Points), set.Dropped, rows, cfg.Years))
	return b.String()
}
