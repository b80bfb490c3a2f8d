// Package plot renders corpus statistics as ECharts bar charts.
package plot

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/treefeed/pkg/mathutil"
)

const (
	chartWidth  = "100%"
	chartHeight = "500px"

	dataZoomEndPercent = 100

	// DefaultBuckets is the histogram bucket count used by the stats command.
	DefaultBuckets = 20
)

// Bucket is one histogram bar: a value range label and the sample count in it.
type Bucket struct {
	Label string
	Count int
}

// Histogram buckets integer samples into equal-width ranges.
type Histogram struct {
	Buckets []Bucket
}

// NewHistogram distributes samples over at most buckets equal-width ranges
// spanning [min(samples), max(samples)]. Empty samples yield no buckets.
func NewHistogram(samples []int, buckets int) Histogram {
	counts := make(map[int]int, len(samples))
	for _, v := range samples {
		counts[v]++
	}

	return NewHistogramFromCounts(counts, buckets)
}

// NewHistogramFromCounts is NewHistogram over pre-tallied samples: counts maps
// a sample value to how many times it occurred.
func NewHistogramFromCounts(counts map[int]int, buckets int) Histogram {
	if len(counts) == 0 || buckets <= 0 {
		return Histogram{}
	}

	var lo, hi int

	first := true
	for v := range counts {
		if first {
			lo, hi = v, v
			first = false

			continue
		}

		lo = mathutil.Min(lo, v)
		hi = mathutil.Max(hi, v)
	}

	width := mathutil.CeilDiv(hi-lo+1, buckets)
	count := mathutil.CeilDiv(hi-lo+1, width)

	result := Histogram{Buckets: make([]Bucket, count)}

	for i := range result.Buckets {
		from := lo + i*width
		to := mathutil.Min(from+width-1, hi)

		if from == to {
			result.Buckets[i].Label = fmt.Sprintf("%d", from)
		} else {
			result.Buckets[i].Label = fmt.Sprintf("%d-%d", from, to)
		}
	}

	for v, n := range counts {
		idx := mathutil.Clamp((v-lo)/width, 0, count-1)
		result.Buckets[idx].Count += n
	}

	return result
}

// HistogramBar builds a bar chart from a histogram.
func HistogramBar(title, subtitle, seriesName string, h Histogram) *charts.Bar {
	labels := make([]string, len(h.Buckets))
	data := make([]opts.BarData, len(h.Buckets))

	for i, b := range h.Buckets {
		labels[i] = b.Label
		data[i] = opts.BarData{Value: b.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle, Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: dataZoomEndPercent},
			opts.DataZoom{Type: "inside"},
		),
	)

	bar.SetXAxis(labels)
	bar.AddSeries(seriesName, data)

	return bar
}

// RenderPage writes all charts as a single standalone HTML page.
func RenderPage(w io.Writer, title string, charters ...components.Charter) error {
	page := components.NewPage()
	page.PageTitle = title
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(charters...)

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render plot page: %w", err)
	}

	return nil
}
