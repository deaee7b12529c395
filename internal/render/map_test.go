package render

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/rtm0/era5rain/internal/field"
	"github.com/rtm0/era5rain/internal/region"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sampleField(t *testing.T) *field.Field {
	t.Helper()
	s := field.DefaultSynthesizer()
	s.Resolution = 20
	f, err := s.Generate(region.Kathmandu, field.NewRand(42))
	require.NoError(t, err)
	return f
}

func smallMap(style Style) MapOptions {
	return MapOptions{
		Title:  "Sample Data",
		Style:  style,
		Extent: region.Kathmandu.Expand(0.1),
		Cities: region.KathmanduCities,
		Width:  4 * vg.Inch,
		Height: 3.5 * vg.Inch,
		DPI:    40,
	}
}

func TestParseStyle(t *testing.T) {
	s, err := ParseStyle("simple")
	require.NoError(t, err)
	assert.Equal(t, Plain, s)
	assert.Equal(t, "plain", s.String())

	s, err = ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, Projected, s)

	_, err = ParseStyle("3d")
	assert.Error(t, err)
}

func TestMapStyles(t *testing.T) {
	f := sampleField(t)
	for _, opts := range []MapOptions{
		smallMap(Projected),
		smallMap(Plain),
		func() MapOptions { o := smallMap(Projected); o.Projection = Mercator{}; return o }(),
	} {
		fig, err := Map(f, opts)
		require.NoError(t, err)
		require.NotNil(t, fig.Bar)
		assert.Contains(t, fig.Main.Title.Text, "Sample Data")
		assert.Less(t, fig.Main.X.Min, fig.Main.X.Max)
		assert.Less(t, fig.Main.Y.Min, fig.Main.Y.Max)

		var buf bytes.Buffer
		_, err = fig.WriteTo(&buf)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
	}
}

func TestMapExtent(t *testing.T) {
	f := sampleField(t)
	fig, err := Map(f, smallMap(Plain))
	require.NoError(t, err)
	ext := region.Kathmandu.Expand(0.1)
	assert.InDelta(t, ext.West, fig.Main.X.Min, 1e-9)
	assert.InDelta(t, ext.East, fig.Main.X.Max, 1e-9)
	assert.InDelta(t, ext.South, fig.Main.Y.Min, 1e-9)
	assert.InDelta(t, ext.North, fig.Main.Y.Max, 1e-9)
	assert.Equal(t, "Longitude (°E)", fig.Main.X.Label.Text)
}

func TestMapEmptyField(t *testing.T) {
	_, err := Map(nil, smallMap(Plain))
	assert.ErrorIs(t, err, ErrEmptyField)

	f := sampleField(t)
	for i := range f.Values {
		for j := range f.Values[i] {
			f.Values[i][j] = math.NaN()
		}
	}
	_, err = Map(f, smallMap(Projected))
	assert.ErrorIs(t, err, ErrEmptyField)
}

func TestMapWithLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rivers.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {"name": "Bagmati"},
			 "geometry": {"type": "LineString", "coordinates": [[85.25, 27.8], [85.30, 27.72], [85.32, 27.65], [85.60, 27.40]]}},
			{"type": "Feature", "properties": {},
			 "geometry": {"type": "Polygon", "coordinates": [[[85.40, 27.70], [85.42, 27.70], [85.42, 27.72], [85.40, 27.70]]]}},
			{"type": "Feature", "properties": {},
			 "geometry": {"type": "Point", "coordinates": [85.3, 27.7]}}
		]
	}`), 0o644))

	layer, err := LoadLayer("rivers", path)
	require.NoError(t, err)
	assert.Len(t, layer.Geoms, 3)
	assert.Equal(t, LayerStyle("rivers"), layer.Style)

	ps, err := layer.plotters(PlateCarree{}, region.Kathmandu.Expand(0.1).Bound())
	require.NoError(t, err)
	assert.Len(t, ps, 2, "point geometries are not stroked")

	opts := smallMap(Projected)
	opts.Layers = []Layer{layer}
	fig, err := Map(sampleField(t), opts)
	require.NoError(t, err)
	_, err = fig.WriteTo(&bytes.Buffer{})
	require.NoError(t, err)

	_, err = LoadLayer("missing", filepath.Join(t.TempDir(), "none.geojson"))
	assert.Error(t, err)
}

func TestLakesAreFilled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lakes.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {"name": "Taudaha"},
			 "geometry": {"type": "Polygon", "coordinates": [[[85.28, 27.64], [85.29, 27.64], [85.29, 27.65], [85.28, 27.64]]]}},
			{"type": "Feature", "properties": {},
			 "geometry": {"type": "LineString", "coordinates": [[85.3, 27.7], [85.31, 27.71]]}}
		]
	}`), 0o644))

	lakes, err := LoadLayer("lakes", path)
	require.NoError(t, err)
	require.NotNil(t, lakes.Fill)

	ps, err := lakes.plotters(Mercator{}, region.Kathmandu.Bound())
	require.NoError(t, err)
	require.Len(t, ps, 2)
	poly, ok := ps[0].(*plotter.Polygon)
	require.True(t, ok, "got %T", ps[0])
	assert.Equal(t, lakes.Fill, poly.Color)
	require.Len(t, poly.XYs, 1)
	assert.GreaterOrEqual(t, len(poly.XYs[0]), 3)
	_, ok = ps[1].(*plotter.Line)
	assert.True(t, ok, "got %T", ps[1])

	rivers, err := LoadLayer("rivers", path)
	require.NoError(t, err)
	assert.Nil(t, rivers.Fill)
	ps, err = rivers.plotters(PlateCarree{}, region.Kathmandu.Bound())
	require.NoError(t, err)
	for _, p := range ps {
		_, ok := p.(*plotter.Line)
		assert.True(t, ok, "got %T", p)
	}
}

func TestVisibleCities(t *testing.T) {
	cities := append([]region.City{{Name: "Pokhara", Location: orb.Point{83.9856, 28.2096}}}, region.KathmanduCities...)
	got := visibleCities(cities, region.Kathmandu.Expand(0.1))
	require.Len(t, got, 3)
	for _, c := range got {
		assert.NotEqual(t, "Pokhara", c.Name)
	}
	assert.Empty(t, visibleCities(region.KathmanduCities, region.Region{North: 28.3, South: 28.1, East: 84.1, West: 83.9}))
}

func TestPaths(t *testing.T) {
	ls := orb.LineString{{0, 0}, {1, 1}}
	poly := orb.Polygon{orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, orb.Ring{{0.2, 0.2}, {0.4, 0.2}, {0.4, 0.4}, {0.2, 0.2}}}
	assert.Len(t, paths(ls), 1)
	assert.Len(t, paths(poly), 2)
	assert.Len(t, paths(orb.MultiPolygon{poly, poly}), 4)
	assert.Len(t, paths(orb.Collection{ls, poly}), 3)
	assert.Nil(t, paths(orb.Point{1, 1}))
}

func TestTimeSeries(t *testing.T) {
	var s field.Series
	t0 := time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 24; h++ {
		s.Append(t0.Add(time.Duration(h)*time.Hour), math.Abs(math.Sin(float64(h)/4)))
	}
	s.Values[3] = math.NaN()

	fig, err := TimeSeries(s, SeriesOptions{Width: 4 * vg.Inch, Height: 2 * vg.Inch, DPI: 40})
	require.NoError(t, err)
	assert.Nil(t, fig.Bar)
	assert.Equal(t, "Precipitation (mm/hour)", fig.Main.Y.Label.Text)

	var buf bytes.Buffer
	_, err = fig.WriteTo(&buf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	_, err = TimeSeries(field.Series{}, SeriesOptions{})
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestRendererSaves(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	r := NewRenderer(zaptest.NewLogger(t).Sugar(), dir)

	_, path, err := r.SpatialMap(sampleField(t), smallMap(Projected), true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "kathmandu_rainfall_Sample_Data.png"), path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, pngMagic))

	_, path, err = r.SpatialMap(sampleField(t), smallMap(Plain), true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "kathmandu_rainfall_simple_Sample_Data.png"), path)

	fig, path, err := r.SpatialMap(sampleField(t), smallMap(Plain), false)
	require.NoError(t, err)
	assert.NotNil(t, fig)
	assert.Empty(t, path)

	s := field.Series{Times: []time.Time{time.Unix(0, 0), time.Unix(3600, 0)}, Values: []float64{0.1, 0.4}}
	_, path, err = r.HourlySeries(s, SeriesOptions{Width: 3 * vg.Inch, Height: 2 * vg.Inch, DPI: 40}, true)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, TimeSeriesFile, filepath.Base(path))
}
