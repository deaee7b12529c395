package era5

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/era5rain/internal/field"
	"github.com/rtm0/era5rain/internal/region"
)

func TestSampleRoundTrip(t *testing.T) {
	f, err := field.DefaultSynthesizer().Generate(region.Kathmandu, field.NewRand(11))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sample.nc")
	require.NoError(t, WriteSample(path, f))

	s, err := NewScanner(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Empty(t, s.Times())
	assert.InDeltaSlice(t, f.Lats, s.Grid().Lats, 1e-9)
	assert.InDeltaSlice(t, f.Lons, s.Grid().Lons, 1e-9)
	assert.Len(t, s.Summary(), 10)

	require.True(t, s.Scan())
	got := s.Step().Field
	assert.Equal(t, field.Meters, got.Units)
	assert.InDelta(t, f.Values[10][20]*1e-3, got.Values[10][20], 1e-12)
	assert.False(t, s.Scan())
	assert.NoError(t, s.Err())
}

func TestLoadSample(t *testing.T) {
	f, err := field.DefaultSynthesizer().Generate(region.Kathmandu, field.NewRand(5))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sample.nc")
	require.NoError(t, WriteSample(path, f))

	totals, err := load(t, path)
	require.NoError(t, err)
	assert.Equal(t, field.Millimeters, totals.Daily.Units)
	assert.InDelta(t, f.Max(), totals.Daily.Max(), 1e-9)
	assert.InDelta(t, f.Min(), totals.Daily.Min(), 1e-9)
	assert.Zero(t, totals.Hourly.Len())
}

func TestNewScannerMissingFile(t *testing.T) {
	_, err := NewScanner(filepath.Join(t.TempDir(), "missing.nc"))
	assert.Error(t, err)
}

func load(t *testing.T, path string) (Totals, error) {
	t.Helper()
	s, err := NewScanner(path)
	if err != nil {
		return Totals{}, err
	}
	defer s.Close()
	return s.Accumulate()
}

const tpFill = int16(-32767)

var hourlyStart = time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC)

// hourlyTP returns three hours of packed tp over a 3x3 grid stored north to
// south. Cell (i, j) at hour h holds 100*(i+1) + 10*j + h. The north-west
// cell is missing at hour 1 and the south-east cell is always missing.
func hourlyTP() [][][]int16 {
	tp := make([][][]int16, 3)
	for h := range tp {
		tp[h] = make([][]int16, 3)
		for i := range tp[h] {
			tp[h][i] = make([]int16, 3)
			for j := range tp[h][i] {
				tp[h][i][j] = int16(100*(i+1) + 10*j + h)
			}
		}
		tp[h][2][2] = tpFill
	}
	tp[1][0][0] = tpFill
	return tp
}

// writeHourly writes an ERA5-like file with a time axis named timeName.
func writeHourly(t *testing.T, path, timeName string, times any, units string) {
	t.Helper()
	cw, err := cdf.OpenWriter(path)
	require.NoError(t, err)

	add := func(name string, values any, dims []string, keys []string, attrs map[string]any) {
		am, err := util.NewOrderedMap(keys, attrs)
		require.NoError(t, err)
		require.NoError(t, cw.AddVar(name, api.Variable{Values: values, Dimensions: dims, Attributes: am}))
	}
	add(timeName, times, []string{timeName}, []string{"units"}, map[string]any{"units": units})
	add("latitude", []float64{27.9, 27.7, 27.5}, []string{"latitude"},
		[]string{"units"}, map[string]any{"units": "degrees_north"})
	add("longitude", []float64{85.1, 85.3, 85.5}, []string{"longitude"},
		[]string{"units"}, map[string]any{"units": "degrees_east"})
	add(PrecipitationVar, hourlyTP(), []string{timeName, "latitude", "longitude"},
		[]string{"scale_factor", "add_offset", "_FillValue", "units"},
		map[string]any{"scale_factor": 1e-5, "add_offset": 0.0, "_FillValue": tpFill, "units": "m"})
	require.NoError(t, cw.Close())
}

func TestScanHourlyFile(t *testing.T) {
	hours := make([]int32, 3)
	for h := range hours {
		hours[h] = int32((hourlyStart.Unix()-unixSecs1900)/3600) + int32(h)
	}
	path := filepath.Join(t.TempDir(), "era5.nc")
	writeHourly(t, path, "time", hours, "hours since 1900-01-01 00:00:00.0")

	s, err := NewScanner(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []float64{27.5, 27.7, 27.9}, s.Grid().Lats, "latitude is flipped to increase")
	require.Len(t, s.Times(), 3)
	for h, ts := range s.Times() {
		assert.True(t, hourlyStart.Add(time.Duration(h)*time.Hour).Equal(ts), "hour %d: %s", h, ts)
	}

	require.True(t, s.Scan())
	first := s.Step()
	assert.True(t, hourlyStart.Equal(first.Time))
	assert.Equal(t, field.Meters, first.Field.Units)
	// Row 0 is the southernmost stored row.
	assert.InDelta(t, 310*1e-5, first.Field.Values[0][1], 1e-12)
	assert.InDelta(t, 100*1e-5, first.Field.Values[2][0], 1e-12)
	assert.True(t, math.IsNaN(first.Field.Values[0][2]))

	totals, err := s.Accumulate()
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Hourly.Len(), "accumulation continues after the first scan")
}

func TestAccumulateHourlyFile(t *testing.T) {
	secs := make([]int64, 3)
	for h := range secs {
		secs[h] = hourlyStart.Add(time.Duration(h) * time.Hour).Unix()
	}
	path := filepath.Join(t.TempDir(), "era5.nc")
	writeHourly(t, path, "valid_time", secs, "seconds since 1970-01-01")

	totals, err := load(t, path)
	require.NoError(t, err)

	daily := totals.Daily
	assert.Equal(t, field.Millimeters, daily.Units)
	assert.Equal(t, []float64{27.5, 27.7, 27.9}, daily.Lats)
	// (310 + 311 + 312) * 1e-5 m.
	assert.InDelta(t, 9.33, daily.Values[0][1], 1e-9)
	// The missing hour is skipped: (100 + 102) * 1e-5 m.
	assert.InDelta(t, 2.02, daily.Values[2][0], 1e-9)
	assert.True(t, math.IsNaN(daily.Values[0][2]), "a cell missing every hour has no total")

	require.Equal(t, 3, totals.Hourly.Len())
	assert.Equal(t, "mm/hour", totals.Hourly.Units)
	assert.True(t, hourlyStart.Add(2*time.Hour).Equal(totals.Hourly.Times[2]))
	// Hour 0: eight finite cells summing to 1570 * 1e-5 m.
	assert.InDelta(t, 1570.0/8*1e-2, totals.Hourly.Values[0], 1e-9)
}
