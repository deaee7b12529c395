package field

import (
	"math"
	"math/rand/v2"

	"github.com/rtm0/era5rain/internal/region"
)

// Defaults for the sample generator.
const (
	DefaultResolution = 50
	DefaultMargin     = 0.1
)

// Bump is an isotropic Gaussian rain cell. Its value at (lat, lon) is
// Amplitude * exp(-d² * Decay) where d is the degree distance from the center.
type Bump struct {
	Lat       float64
	Lon       float64
	Amplitude float64
	Decay     float64
}

// Eval returns the bump value at (lat, lon).
func (b Bump) Eval(lat, lon float64) float64 {
	dlat := lat - b.Lat
	dlon := lon - b.Lon
	return b.Amplitude * math.Exp(-(dlat*dlat+dlon*dlon)*b.Decay)
}

// Bumps is a superposition of rain cells.
type Bumps []Bump

// Eval returns the sum of all bumps at (lat, lon).
func (bs Bumps) Eval(lat, lon float64) float64 {
	var v float64
	for _, b := range bs {
		v += b.Eval(lat, lon)
	}
	return v
}

// MonsoonBumps approximates orographic monsoon rainfall over the valley:
// a central, a southern and an eastern cell.
var MonsoonBumps = Bumps{
	{Lat: 27.70, Lon: 85.35, Amplitude: 10, Decay: 20},
	{Lat: 27.65, Lon: 85.25, Amplitude: 8, Decay: 30},
	{Lat: 27.75, Lon: 85.45, Amplitude: 5, Decay: 25},
}

// Synthesizer generates sample precipitation fields in millimeters.
type Synthesizer struct {
	Bumps      Bumps
	Resolution int
	Margin     float64
	// Base is added everywhere; Noise scales a uniform [0, 1) draw per point.
	Base  float64
	Noise float64
}

// DefaultSynthesizer returns the monsoon sample generator.
func DefaultSynthesizer() Synthesizer {
	return Synthesizer{
		Bumps:      MonsoonBumps,
		Resolution: DefaultResolution,
		Margin:     DefaultMargin,
		Base:       2,
		Noise:      3,
	}
}

// Generate returns a Resolution x Resolution field spanning r expanded by
// Margin. Values are non-negative as long as Base and Noise are.
func (s Synthesizer) Generate(r region.Region, rng *rand.Rand) (*Field, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	ext := r.Expand(s.Margin)
	g, err := NewGrid(
		Linspace(ext.South, ext.North, s.Resolution),
		Linspace(ext.West, ext.East, s.Resolution),
	)
	if err != nil {
		return nil, err
	}
	f := New(g, Millimeters)
	for i, lat := range g.Lats {
		for j, lon := range g.Lons {
			f.Values[i][j] = s.Bumps.Eval(lat, lon) + s.Base + s.Noise*rng.Float64()
		}
	}
	return f, nil
}

// NewRand returns a PCG-backed source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
