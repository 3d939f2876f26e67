// Package chart renders decoded tracks as an interactive HTML page or a
// static PNG.
package chart

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/velocitek/vtk-protocol/internal/vtk"
)

const timeLabelLayout = "15:04:05.00"

// WriteHTML renders a go-echarts page with the attitude angles, the speed
// and course, and the plan view of the track.
func WriteHTML(w io.Writer, points []vtk.Point, title string) error {
	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Time.UTC().Format(timeLabelLayout)
	}
	subtitle := fmt.Sprintf("points=%d", len(points))
	if len(points) > 0 {
		subtitle = fmt.Sprintf("%s to %s, points=%d",
			points[0].Time.UTC().Format("2006-01-02 15:04:05"),
			points[len(points)-1].Time.UTC().Format("15:04:05"),
			len(points))
	}

	attitude := charts.NewLine()
	attitude.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title + " - attitude", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "degrees"}),
	)
	attitude.SetXAxis(labels).
		AddSeries("mag_heading", lineData(points, func(p vtk.Point) float64 { return p.MagHeading })).
		AddSeries("heel", lineData(points, func(p vtk.Point) float64 { return p.Heel })).
		AddSeries("pitch", lineData(points, func(p vtk.Point) float64 { return p.Pitch }))

	motion := charts.NewLine()
	motion.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title + " - speed and course"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	motion.SetXAxis(labels).
		AddSeries("sog (kn)", lineData(points, func(p vtk.Point) float64 { return p.SOG })).
		AddSeries("cog (deg)", lineData(points, func(p vtk.Point) float64 { return p.COG }))

	track := charts.NewScatter()
	track.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title + " - track"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "longitude", NameLocation: "middle", NameGap: 25, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "latitude", NameLocation: "middle", NameGap: 40, Scale: opts.Bool(true)}),
	)
	track.AddSeries("track", trackData(points), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(attitude, motion, track)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart page: %w", err)
	}
	return nil
}

// lineData extracts one series. Non-finite values become gaps because JSON
// cannot carry them.
func lineData(points []vtk.Point, value func(vtk.Point) float64) []opts.LineData {
	data := make([]opts.LineData, len(points))
	for i, p := range points {
		v := value(p)
		if isFinite(v) {
			data[i] = opts.LineData{Value: v}
		}
	}
	return data
}

func trackData(points []vtk.Point) []opts.ScatterData {
	data := make([]opts.ScatterData, 0, len(points))
	for _, p := range points {
		if !isFinite(p.Longitude) || !isFinite(p.Latitude) {
			continue
		}
		data = append(data, opts.ScatterData{Value: []interface{}{p.Longitude, p.Latitude}})
	}
	return data
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
