package finance

import (
	"fmt"

	"github.com/vicanso/go-charts/v2"
)

// RenderHistoryChart renders the universe's daily closes indexed to 100 at
// the window start, one line per asset, for visual sanity checking.
func RenderHistoryChart(p *PriceSeries, years int) ([]byte, error) {
	if p == nil || p.Rows() < 2 {
		return nil, fmt.Errorf("not enough price rows to chart")
	}

	cacheKey := fmt.Sprintf("history-%dy", years)
	if img, ok := cacheGet(cacheKey); ok {
		return img, nil
	}

	names := make([]string, len(p.Assets))
	values := make([][]float64, len(p.Assets))
	var yMin, yMax *float64
	for a := range p.Assets {
		names[a] = p.Assets[a].Label
		base := p.Close[a][0]
		indexed := make([]float64, p.Rows())
		for i, v := range p.Close[a] {
			indexed[i] = v / base * 100
			if yMin == nil || indexed[i] < *yMin {
				vv := indexed[i]
				yMin = &vv
			}
			if yMax == nil || indexed[i] > *yMax {
				vv := indexed[i]
				yMax = &vv
			}
		}
		values[a] = indexed
	}
	pad := (*yMax - *yMin) * 0.05
	yLo, yHi := *yMin-pad, *yMax+pad

	xLabels := make([]string, p.Rows())
	for i, d := range p.Dates {
		xLabels[i] = d.Format("Jan '06")
	}

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(fmt.Sprintf("Price History • %dy", years), "indexed to 100 at window start"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: 10}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yLo, Max: &yHi, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render history chart: %w", err)
	}
	img, err := painter.Bytes()
	if err != nil {
		return nil, err
	}
	cacheSet(cacheKey, img)
	return img, nil
}
