package render

import (
	"fmt"
	"image/color"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/geojson"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Layer is a GeoJSON overlay such as coastlines, borders, rivers or lakes.
// Polygons of a layer with a Fill color are filled as well as outlined.
type Layer struct {
	Name  string
	Style draw.LineStyle
	Fill  color.Color
	Geoms orb.Collection
}

// layerStyles mirror the usual map feature look: thin black boundaries and
// lighter blue water.
var layerStyles = map[string]draw.LineStyle{
	"coastline": {Color: color.Black, Width: vg.Points(0.5)},
	"borders":   {Color: color.Black, Width: vg.Points(0.5)},
	"rivers":    {Color: color.RGBA{R: 70, G: 130, B: 180, A: 180}, Width: vg.Points(0.3)},
	"lakes":     {Color: color.RGBA{R: 70, G: 130, B: 180, A: 80}, Width: vg.Points(0.3)},
}

// Lakes are filled at 30% opacity.
var layerFills = map[string]color.Color{
	"lakes": color.NRGBA{R: 70, G: 130, B: 180, A: 77},
}

// LayerStyle returns the line style for a named layer, defaulting to a thin
// grey line.
func LayerStyle(name string) draw.LineStyle {
	if s, ok := layerStyles[name]; ok {
		return s
	}
	return draw.LineStyle{Color: color.Gray{Y: 96}, Width: vg.Points(0.5)}
}

// LoadLayer reads a GeoJSON FeatureCollection or single Feature.
func LoadLayer(name, path string) (Layer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Layer{}, fmt.Errorf("layer %s: %w", name, err)
	}
	l := Layer{Name: name, Style: LayerStyle(name), Fill: layerFills[name]}
	if fc, err := geojson.UnmarshalFeatureCollection(b); err == nil && len(fc.Features) > 0 {
		for _, f := range fc.Features {
			if f.Geometry != nil {
				l.Geoms = append(l.Geoms, f.Geometry)
			}
		}
		return l, nil
	}
	f, err := geojson.UnmarshalFeature(b)
	if err != nil {
		return Layer{}, fmt.Errorf("layer %s: %w", name, err)
	}
	if f.Geometry != nil {
		l.Geoms = append(l.Geoms, f.Geometry)
	}
	return l, nil
}

// plotters clips the layer to extent and returns one filled polygon per
// polygon when the layer has a fill, and one line per remaining path.
func (l Layer) plotters(proj Projection, extent orb.Bound) ([]plot.Plotter, error) {
	var out []plot.Plotter
	for _, g := range l.Geoms {
		clipped := clip.Geometry(extent, g)
		if clipped == nil {
			continue
		}
		if l.Fill != nil {
			polys, rest := splitPolygons(clipped)
			for _, poly := range polys {
				rings := make([]plotter.XYer, 0, len(poly))
				for _, r := range poly {
					if len(r) >= 3 {
						rings = append(rings, projectPath(proj, r))
					}
				}
				if len(rings) == 0 {
					continue
				}
				pg, err := plotter.NewPolygon(rings...)
				if err != nil {
					return nil, fmt.Errorf("layer %s: %w", l.Name, err)
				}
				pg.Color = l.Fill
				pg.LineStyle = l.Style
				out = append(out, pg)
			}
			clipped = rest
		}
		for _, path := range paths(clipped) {
			if len(path) < 2 {
				continue
			}
			line, err := plotter.NewLine(projectPath(proj, path))
			if err != nil {
				return nil, fmt.Errorf("layer %s: %w", l.Name, err)
			}
			line.LineStyle = l.Style
			out = append(out, line)
		}
	}
	return out, nil
}

func projectPath(proj Projection, path []orb.Point) plotter.XYs {
	xys := make(plotter.XYs, len(path))
	for i, p := range path {
		q := proj.Forward(p)
		xys[i].X, xys[i].Y = q[0], q[1]
	}
	return xys
}

// splitPolygons separates the polygons of g from its other geometries.
func splitPolygons(g orb.Geometry) ([]orb.Polygon, orb.Collection) {
	switch g := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}, nil
	case orb.MultiPolygon:
		return g, nil
	case orb.Bound:
		return []orb.Polygon{g.ToPolygon()}, nil
	case orb.Collection:
		var (
			polys []orb.Polygon
			rest  orb.Collection
		)
		for _, c := range g {
			p, r := splitPolygons(c)
			polys = append(polys, p...)
			rest = append(rest, r...)
		}
		return polys, rest
	}
	return nil, orb.Collection{g}
}

// paths flattens a geometry into point sequences to stroke.
func paths(g orb.Geometry) [][]orb.Point {
	switch g := g.(type) {
	case orb.LineString:
		return [][]orb.Point{g}
	case orb.MultiLineString:
		out := make([][]orb.Point, 0, len(g))
		for _, ls := range g {
			out = append(out, ls)
		}
		return out
	case orb.Ring:
		return [][]orb.Point{g}
	case orb.Polygon:
		out := make([][]orb.Point, 0, len(g))
		for _, r := range g {
			out = append(out, r)
		}
		return out
	case orb.MultiPolygon:
		var out [][]orb.Point
		for _, p := range g {
			out = append(out, paths(p)...)
		}
		return out
	case orb.Collection:
		var out [][]orb.Point
		for _, c := range g {
			out = append(out, paths(c)...)
		}
		return out
	case orb.Bound:
		return [][]orb.Point{g.ToRing()}
	}
	return nil
}
