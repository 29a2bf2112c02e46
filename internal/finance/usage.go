package finance

import (
	"fmt"
	"sort"
	"strings"

	"frontierbot/internal/storage"

	"github.com/vicanso/go-charts/v2"
)

// UsageAnalytics handles command-usage visualization
type UsageAnalytics struct{}

func NewUsageAnalytics() *UsageAnalytics {
	return &UsageAnalytics{}
}

// MakeUsageChart creates a pie chart of command usage distribution.
func (ua *UsageAnalytics) MakeUsageChart(stats map[string]*storage.UsageStats, days int) ([]byte, error) {
	if len(stats) == 0 {
		return nil, fmt.Errorf("no usage data available")
	}

	commands := make([]string, 0, len(stats))
	for cmd := range stats {
		commands = append(commands, cmd)
	}
	sort.Strings(commands)

	total := 0
	values := make([]float64, 0, len(commands))
	for _, cmd := range commands {
		values = append(values, float64(stats[cmd].Count))
		total += stats[cmd].Count
	}

	labels := make([]string, 0, len(commands))
	for i, cmd := range commands {
		labels = append(labels, fmt.Sprintf("%s (%.1f%%)", cmd, values[i]/float64(total)*100))
	}

	painter, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Command Usage (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{Data: labels, Top: charts.PositionTop}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render usage chart: %w", err)
	}
	return painter.Bytes()
}

// FormatUsageStatsText creates a text summary of usage statistics.
func (ua *UsageAnalytics) FormatUsageStatsText(stats map[string]*storage.UsageStats, days int) string {
	if len(stats) == 0 {
		return fmt.Sprintf("No usage recorded in the last %d days.", days)
	}
	commands := make([]string, 0, len(stats))
	for cmd := range stats {
		commands = append(commands, cmd)
	}
	sort.Slice(commands, func(i, j int) bool {
		return stats[commands[i]].Count > stats[commands[j]].Count
	})

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Usage, last %d days:\n", days))
	for _, cmd := range commands {
		b.WriteString(fmt.Sprintf("  %s: %d\n", cmd, stats[cmd].Count))
	}
	return b.String()
}
