package render

import (
	"fmt"

	"github.com/paulmach/orb"
	"gonum.org/v1/plot"
)

// degreeTicks labels a projected axis in degrees, e.g. 85.30°E or 27.70°N.
type degreeTicks struct {
	proj      Projection
	latitude  bool
	reference float64 // the other coordinate, used when projecting
}

var _ plot.Ticker = degreeTicks{}

func (d degreeTicks) point(v float64) orb.Point {
	if d.latitude {
		return orb.Point{d.reference, v}
	}
	return orb.Point{v, d.reference}
}

func (d degreeTicks) coord(p orb.Point) float64 {
	if d.latitude {
		return p[1]
	}
	return p[0]
}

// Ticks implements plot.Ticker.
func (d degreeTicks) Ticks(min, max float64) []plot.Tick {
	lo := d.coord(d.proj.Inverse(d.point(min)))
	hi := d.coord(d.proj.Inverse(d.point(max)))
	ticks := plot.DefaultTicks{}.Ticks(lo, hi)
	for i := range ticks {
		deg := ticks[i].Value
		ticks[i].Value = d.coord(d.proj.Forward(d.point(deg)))
		if ticks[i].Label != "" {
			ticks[i].Label = formatDegrees(deg, d.latitude)
		}
	}
	return ticks
}

func formatDegrees(v float64, latitude bool) string {
	pos, neg := "E", "W"
	if latitude {
		pos, neg = "N", "S"
	}
	switch {
	case v > 0:
		return fmt.Sprintf("%.2f°%s", v, pos)
	case v < 0:
		return fmt.Sprintf("%.2f°%s", -v, neg)
	}
	return "0.00°"
}
