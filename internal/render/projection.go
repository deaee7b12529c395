package render

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Projection maps lon/lat points onto plot coordinates and back.
type Projection interface {
	Name() string
	Forward(orb.Point) orb.Point
	Inverse(orb.Point) orb.Point
}

// PlateCarree is the equirectangular projection: plot x/y are lon/lat.
type PlateCarree struct{}

func (PlateCarree) Name() string                  { return "platecarree" }
func (PlateCarree) Forward(p orb.Point) orb.Point { return p }
func (PlateCarree) Inverse(p orb.Point) orb.Point { return p }

// Mercator is the spherical web Mercator projection, in meters.
type Mercator struct{}

func (Mercator) Name() string                  { return "mercator" }
func (Mercator) Forward(p orb.Point) orb.Point { return project.Point(p, project.WGS84.ToMercator) }
func (Mercator) Inverse(p orb.Point) orb.Point { return project.Point(p, project.Mercator.ToWGS84) }

// ParseProjection returns the projection with the given name.
func ParseProjection(name string) (Projection, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "platecarree", "plate-carree", "equirectangular":
		return PlateCarree{}, nil
	case "mercator":
		return Mercator{}, nil
	}
	return nil, fmt.Errorf("unknown projection %q", name)
}
