package field

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/era5rain/internal/region"
)

func TestSynthesizeShapeAndSign(t *testing.T) {
	f, err := DefaultSynthesizer().Generate(region.Kathmandu, NewRand(1))
	require.NoError(t, err)

	rows, cols := f.Shape()
	assert.Equal(t, 50, rows)
	assert.Equal(t, 50, cols)
	assert.Equal(t, Millimeters, f.Units)
	for i := range f.Values {
		require.Len(t, f.Values[i], 50)
		for j, v := range f.Values[i] {
			assert.GreaterOrEqual(t, v, 0.0, "value at (%d, %d)", i, j)
		}
	}
	assert.Greater(t, f.Max(), f.Min())
}

func TestSynthesizeAxes(t *testing.T) {
	regions := []region.Region{
		region.Kathmandu,
		{North: 10, South: -10, East: 20, West: -20},
		{North: 60.5, South: 60.1, East: 25.2, West: 24.6},
	}
	for _, r := range regions {
		f, err := DefaultSynthesizer().Generate(r, NewRand(7))
		require.NoError(t, err)

		assert.InDelta(t, r.South-0.1, f.Lats[0], 1e-9)
		assert.InDelta(t, r.North+0.1, f.Lats[len(f.Lats)-1], 1e-9)
		assert.InDelta(t, r.West-0.1, f.Lons[0], 1e-9)
		assert.InDelta(t, r.East+0.1, f.Lons[len(f.Lons)-1], 1e-9)
		for i := 1; i < len(f.Lats); i++ {
			assert.Greater(t, f.Lats[i], f.Lats[i-1])
			assert.Greater(t, f.Lons[i], f.Lons[i-1])
		}
	}
}

func TestSynthesizeInvalidRegion(t *testing.T) {
	_, err := DefaultSynthesizer().Generate(region.Region{North: 1, South: 2, East: 3, West: 0}, NewRand(1))
	assert.ErrorIs(t, err, region.ErrInvalid)
}

func TestSynthesizeNoise(t *testing.T) {
	a, err := DefaultSynthesizer().Generate(region.Kathmandu, NewRand(1))
	require.NoError(t, err)
	b, err := DefaultSynthesizer().Generate(region.Kathmandu, NewRand(2))
	require.NoError(t, err)
	c, err := DefaultSynthesizer().Generate(region.Kathmandu, NewRand(1))
	require.NoError(t, err)

	assert.NotEqual(t, a.Values, b.Values)
	assert.Equal(t, a.Values, c.Values)

	// Removing the deterministic part leaves base plus noise in [2, 5).
	for i, lat := range a.Lats {
		for j, lon := range a.Lons {
			residual := a.Values[i][j] - MonsoonBumps.Eval(lat, lon)
			assert.GreaterOrEqual(t, residual, 2.0-1e-9)
			assert.Less(t, residual, 5.0)
		}
	}
}

func TestBumpMonotonicWithDistance(t *testing.T) {
	for _, b := range MonsoonBumps {
		for _, dir := range [][2]float64{{1, 0}, {0, 1}, {-1, 0}, {0.6, -0.8}} {
			prev := math.Inf(1)
			for step := 0; step <= 40; step++ {
				d := float64(step) * 0.01
				v := b.Eval(b.Lat+dir[0]*d, b.Lon+dir[1]*d)
				assert.LessOrEqual(t, v, prev)
				prev = v
			}
		}
		assert.InDelta(t, b.Amplitude, b.Eval(b.Lat, b.Lon), 1e-12)
	}
}

func TestSynthesizerCustomResolution(t *testing.T) {
	s := DefaultSynthesizer()
	s.Resolution = 12
	s.Noise = 0
	f, err := s.Generate(region.Kathmandu, NewRand(3))
	require.NoError(t, err)

	rows, cols := f.Shape()
	assert.Equal(t, 12, rows)
	assert.Equal(t, 12, cols)
	assert.InDelta(t, MonsoonBumps.Eval(f.Lats[3], f.Lons[5])+2, f.Values[3][5], 1e-12)
}
