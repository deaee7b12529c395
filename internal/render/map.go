package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/rtm0/era5rain/internal/field"
	"github.com/rtm0/era5rain/internal/region"
)

// ErrEmptyField is returned when a field has no finite values to draw.
var ErrEmptyField = errors.New("render: field has no finite values")

// Style selects the map variant.
type Style int

const (
	// Projected draws geographic overlays, dashed gridlines and degree ticks
	// in a map projection.
	Projected Style = iota
	// Plain draws unprojected lon/lat axes.
	Plain
)

// ParseStyle returns the style with the given name.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "projected", "map":
		return Projected, nil
	case "plain", "simple":
		return Plain, nil
	}
	return 0, fmt.Errorf("unknown map style %q", s)
}

func (s Style) String() string {
	if s == Plain {
		return "plain"
	}
	return "projected"
}

// Contour presentation.
const (
	fillLevels    = 20
	contourLevels = 10
)

// MapOptions controls a spatial map.
type MapOptions struct {
	// Title is appended below the fixed heading and names the output file.
	Title string
	Style Style
	// Projection is used by the Projected style; nil means PlateCarree.
	Projection Projection
	// Extent is the visible area. Zero means the field's own bounds.
	Extent region.Region
	Cities []region.City
	Layers []Layer
	// ColorBarLabel defaults to "Daily Precipitation (mm)".
	ColorBarLabel string
	Width         vg.Length
	Height        vg.Length
	DPI           int
}

// projectedGrid adapts a field to plotter.GridXYZ in projected coordinates.
type projectedGrid struct {
	f    *field.Field
	proj Projection
	midX float64
	midY float64
}

func newProjectedGrid(f *field.Field, proj Projection) projectedGrid {
	return projectedGrid{
		f:    f,
		proj: proj,
		midX: (f.Lons[0] + f.Lons[len(f.Lons)-1]) / 2,
		midY: (f.Lats[0] + f.Lats[len(f.Lats)-1]) / 2,
	}
}

func (g projectedGrid) Dims() (c, r int)   { return len(g.f.Lons), len(g.f.Lats) }
func (g projectedGrid) Z(c, r int) float64 { return g.f.Values[r][c] }
func (g projectedGrid) X(c int) float64 {
	return g.proj.Forward(orb.Point{g.f.Lons[c], g.midY})[0]
}
func (g projectedGrid) Y(r int) float64 {
	return g.proj.Forward(orb.Point{g.midX, g.f.Lats[r]})[1]
}

// Blues runs from near white to dark blue; moreland requires increasing
// luminance so the map is reversed.
func bluesColorMap(max float64) (palette.ColorMap, error) {
	cm, err := moreland.NewLuminance([]color.Color{
		color.NRGBA{R: 8, G: 48, B: 107, A: 255},
		color.NRGBA{R: 66, G: 146, B: 198, A: 255},
		color.NRGBA{R: 198, G: 219, B: 239, A: 255},
		color.NRGBA{R: 247, G: 251, B: 255, A: 255},
	})
	if err != nil {
		return nil, err
	}
	cm.SetMin(0)
	cm.SetMax(max)
	return palette.Reverse(cm), nil
}

// Map draws f as a filled contour map with black contour lines, an optional
// set of city markers and a horizontal color bar.
func Map(f *field.Field, opts MapOptions) (*Figure, error) {
	if f == nil || len(f.Lats) == 0 || len(f.Lons) == 0 || len(f.Flat()) == 0 {
		return nil, ErrEmptyField
	}

	proj := opts.Projection
	if proj == nil || opts.Style == Plain {
		proj = PlateCarree{}
	}
	extent := opts.Extent
	if extent == (region.Region{}) {
		extent = region.Region{
			North: f.Lats[len(f.Lats)-1],
			South: f.Lats[0],
			East:  f.Lons[len(f.Lons)-1],
			West:  f.Lons[0],
		}
	}
	if err := extent.Validate(); err != nil {
		return nil, err
	}

	zmax := f.Max()
	if !(zmax > 0) {
		zmax = 1
	}
	cm, err := bluesColorMap(zmax)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = "ERA5 Daily Precipitation - Kathmandu Valley"
	if opts.Title != "" {
		p.Title.Text += "\n" + opts.Title
	}
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.Padding = vg.Points(12)

	grid := newProjectedGrid(f, proj)
	fill := plotter.NewHeatMap(grid, cm.Palette(fillLevels))
	fill.Min, fill.Max = 0, zmax
	fill.Overflow = fill.Palette.Colors()[fillLevels-1]
	p.Add(fill)

	lines := plotter.NewContour(grid, contourLevelValues(f.Min(), f.Max()), nil)
	lines.LineStyles = []draw.LineStyle{{Color: color.NRGBA{A: 153}, Width: vg.Points(0.5)}}
	p.Add(lines)

	switch opts.Style {
	case Plain:
		p.X.Label.Text = "Longitude (°E)"
		p.Y.Label.Text = "Latitude (°N)"
		gl := plotter.NewGrid()
		gl.Vertical.Color = color.Gray{Y: 128}
		gl.Horizontal.Color = color.Gray{Y: 128}
		gl.Vertical.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		gl.Horizontal.Dashes = gl.Vertical.Dashes
		p.Add(gl)
	default:
		bound := extent.Bound()
		for _, l := range opts.Layers {
			ps, err := l.plotters(proj, bound)
			if err != nil {
				return nil, err
			}
			p.Add(ps...)
		}
		gl := plotter.NewGrid()
		gl.Vertical.Color = color.Gray{Y: 128}
		gl.Horizontal.Color = color.Gray{Y: 128}
		gl.Vertical.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		gl.Horizontal.Dashes = gl.Vertical.Dashes
		p.Add(gl)
		center := bound.Center()
		p.X.Tick.Marker = degreeTicks{proj: proj, reference: center.Lat()}
		p.Y.Tick.Marker = degreeTicks{proj: proj, latitude: true, reference: center.Lon()}
	}

	if err := addCities(p, proj, visibleCities(opts.Cities, extent), cityOffset(opts.Style)); err != nil {
		return nil, err
	}

	lo := proj.Forward(orb.Point{extent.West, extent.South})
	hi := proj.Forward(orb.Point{extent.East, extent.North})
	p.X.Min, p.X.Max = lo[0], hi[0]
	p.Y.Min, p.Y.Max = lo[1], hi[1]

	bar := plot.New()
	bar.Add(&plotter.ColorBar{ColorMap: cm})
	bar.HideY()
	bar.X.Padding = 0
	bar.X.Label.Text = opts.ColorBarLabel
	if bar.X.Label.Text == "" {
		bar.X.Label.Text = "Daily Precipitation (mm)"
	}
	bar.X.Label.TextStyle.Font.Size = vg.Points(12)

	return &Figure{Main: p, Bar: bar, Width: opts.Width, Height: opts.Height, DPI: opts.DPI}, nil
}

// contourLevelValues returns evenly spaced levels strictly inside (min, max).
func contourLevelValues(min, max float64) []float64 {
	if math.IsNaN(min) || math.IsNaN(max) || !(max > min) {
		return []float64{max}
	}
	levels := field.Linspace(min, max, contourLevels+2)
	return levels[1 : len(levels)-1]
}

// visibleCities returns the cities inside extent.
func visibleCities(cities []region.City, extent region.Region) []region.City {
	var out []region.City
	for _, c := range cities {
		if extent.Contains(c.Location) {
			out = append(out, c)
		}
	}
	return out
}

func cityOffset(s Style) float64 {
	if s == Plain {
		return 0.01
	}
	return 0.02
}

// addCities draws red circle markers with labels offset north-east by off
// degrees.
func addCities(p *plot.Plot, proj Projection, cities []region.City, off float64) error {
	if len(cities) == 0 {
		return nil
	}
	pts := make(plotter.XYs, len(cities))
	lbl := plotter.XYLabels{XYs: make(plotter.XYs, len(cities)), Labels: make([]string, len(cities))}
	for i, c := range cities {
		q := proj.Forward(c.Location)
		pts[i].X, pts[i].Y = q[0], q[1]
		q = proj.Forward(orb.Point{c.Lon() + off, c.Lat() + off})
		lbl.XYs[i].X, lbl.XYs[i].Y = q[0], q[1]
		lbl.Labels[i] = c.Name
	}

	markers, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("render: city markers: %w", err)
	}
	markers.GlyphStyle = draw.GlyphStyle{
		Color:  color.RGBA{R: 220, A: 255},
		Radius: vg.Points(4),
		Shape:  draw.CircleGlyph{},
	}
	labels, err := plotter.NewLabels(lbl)
	if err != nil {
		return fmt.Errorf("render: city labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Font.Size = vg.Points(10)
	}
	p.Add(markers, labels)
	return nil
}
