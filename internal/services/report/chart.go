package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/tiemoko/brvmwatch/internal/interfaces"
	"github.com/tiemoko/brvmwatch/internal/models"
)

// RenderAllocationChart renders a PNG bar chart of portfolio weight per
// ticker. Lines without a price are skipped since they have no market
// value. Returns raw PNG bytes.
func RenderAllocationChart(report *models.Report) ([]byte, error) {
	var bars []chart.Value
	for _, line := range report.Lines {
		if line.PriceMissing {
			continue
		}
		bars = append(bars, chart.Value{
			Label: line.Ticker,
			Value: line.WeightPct,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("2563eb"), // blue-600
				StrokeColor: drawing.ColorFromHex("2563eb"),
			},
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no priced positions to chart")
	}

	graph := chart.BarChart{
		Title:  "Portfolio Allocation",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		BarWidth: 60,
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// SaveAllocationChart builds a report, renders its allocation chart, and
// writes the PNG under the charts data directory. Returns the storage key.
func (s *Service) SaveAllocationChart(ctx context.Context, userID string) (string, error) {
	report, err := s.BuildReport(ctx, userID, interfaces.ReportOptions{})
	if err != nil {
		return "", err
	}

	png, err := RenderAllocationChart(report)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s.png", userID)
	if err := s.storage.WriteRaw("charts", key, png); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}

	s.logger.Info().Str("user", userID).Str("chart", key).Msg("Allocation chart saved")
	return key, nil
}
