package region

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// ErrInvalid is returned when a region's bounds are inverted or collapsed.
var ErrInvalid = errors.New("invalid region")

// Region is a rectangular bounding box in degrees latitude/longitude.
type Region struct {
	North float64 `yaml:"north"`
	South float64 `yaml:"south"`
	East  float64 `yaml:"east"`
	West  float64 `yaml:"west"`
}

// Kathmandu holds the approximate bounds of the Kathmandu Valley.
var Kathmandu = Region{
	North: 27.8,
	South: 27.6,
	East:  85.5,
	West:  85.2,
}

// Validate checks that north > south and east > west.
func (r Region) Validate() error {
	if !(r.North > r.South) {
		return fmt.Errorf("%w: north %.4f must be greater than south %.4f", ErrInvalid, r.North, r.South)
	}
	if !(r.East > r.West) {
		return fmt.Errorf("%w: east %.4f must be greater than west %.4f", ErrInvalid, r.East, r.West)
	}
	return nil
}

// Expand returns the region grown by margin degrees on all four sides.
func (r Region) Expand(margin float64) Region {
	return Region{
		North: r.North + margin,
		South: r.South - margin,
		East:  r.East + margin,
		West:  r.West - margin,
	}
}

// Bound returns the region as an orb.Bound with lon/lat ordered points.
func (r Region) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.West, r.South},
		Max: orb.Point{r.East, r.North},
	}
}

// Contains reports whether p (lon, lat) lies within the region.
func (r Region) Contains(p orb.Point) bool {
	return r.Bound().Contains(p)
}

func (r Region) String() string {
	return fmt.Sprintf("N%.3f S%.3f E%.3f W%.3f", r.North, r.South, r.East, r.West)
}
