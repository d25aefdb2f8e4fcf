// Package chart renders aggregation results as PNG bar charts.
package chart

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/naka-gawa/repo-report/internal/domain"
	gochart "github.com/wcharczuk/go-chart/v2"
)

const (
	// TopContributors is the number of authors shown in the contributor chart.
	TopContributors = 10

	defaultWidth    = 1200
	defaultHeight   = 600
	defaultBarWidth = 60
	barSpacing      = 30
	horizontalPad   = 200
)

// Renderer draws bar charts. The zero value uses the default dimensions.
type Renderer struct {
	Width    int
	Height   int
	BarWidth int
}

// RenderBarChart draws one bar per label and returns the PNG encoded image.
// Every call builds its own chart, nothing is shared between calls.
func (r Renderer) RenderBarChart(labels []string, values []float64, title string) ([]byte, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("got %d labels for %d values", len(labels), len(values))
	}
	if len(labels) == 0 {
		return nil, errors.New("nothing to render")
	}

	barWidth := r.BarWidth
	if barWidth <= 0 {
		barWidth = defaultBarWidth
	}
	width := r.Width
	if width <= 0 {
		width = defaultWidth
	}
	if minWidth := len(labels)*(barWidth+barSpacing) + horizontalPad; width < minWidth {
		width = minWidth
	}
	height := r.Height
	if height <= 0 {
		height = defaultHeight
	}

	maxValue := 1.0
	bars := make([]gochart.Value, 0, len(values))
	for i, v := range values {
		if v > maxValue {
			maxValue = v
		}
		bars = append(bars, gochart.Value{Label: labels[i], Value: v})
	}

	bc := gochart.BarChart{
		Title:      title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: maxValue},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render %q chart: %w", title, err)
	}
	return buf.Bytes(), nil
}

// ContributorSeries returns the labels and values of the top authors, in aggregation order.
func ContributorSeries(agg domain.AggregationResult, limit int) ([]string, []float64) {
	authors := agg.AuthorCounts
	if limit > 0 && len(authors) > limit {
		authors = authors[:limit]
	}
	labels := make([]string, 0, len(authors))
	values := make([]float64, 0, len(authors))
	for _, ac := range authors {
		labels = append(labels, ac.Author)
		values = append(values, float64(ac.Count))
	}
	return labels, values
}

// WeekdaySeries returns all seven weekdays from Monday to Sunday with their commit counts.
// Days without commits get zero.
func WeekdaySeries(agg domain.AggregationResult) ([]string, []float64) {
	labels := make([]string, 0, len(domain.Weekdays))
	values := make([]float64, 0, len(domain.Weekdays))
	for _, day := range domain.Weekdays {
		labels = append(labels, day)
		values = append(values, float64(agg.CountsByWeekday[day]))
	}
	return labels, values
}

// EncodeInline encodes image data for embedding in a report.
func EncodeInline(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
