package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/rtm0/era5rain/internal/field"
)

// ErrEmptySeries is returned when a series has no finite points.
var ErrEmptySeries = errors.New("render: series has no finite points")

// SeriesOptions controls a time-series chart.
type SeriesOptions struct {
	Title  string
	YLabel string
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// TimeSeries draws s as a line of values against UTC time of day.
func TimeSeries(s field.Series, opts SeriesOptions) (*Figure, error) {
	xys := make(plotter.XYs, 0, s.Len())
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(s.Times[i].Unix()), Y: v})
	}
	if len(xys) == 0 {
		return nil, ErrEmptySeries
	}

	p := plot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = "Hourly Precipitation - Kathmandu Valley Average"
	}
	p.Y.Label.Text = opts.YLabel
	if p.Y.Label.Text == "" {
		p.Y.Label.Text = "Precipitation (mm/hour)"
	}
	p.X.Label.Text = "Time (UTC)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "15:04"}

	gl := plotter.NewGrid()
	gl.Vertical.Color = color.Gray{Y: 200}
	gl.Horizontal.Color = color.Gray{Y: 200}
	p.Add(gl)

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("render: time series: %w", err)
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Color = color.RGBA{B: 255, A: 255}
	p.Add(line)

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 12 * vg.Inch
	}
	if height <= 0 {
		height = 6 * vg.Inch
	}
	return &Figure{Main: p, Width: width, Height: height, DPI: opts.DPI}, nil
}
