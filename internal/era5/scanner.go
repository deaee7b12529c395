// Package era5 builds ERA5 retrieval queries and reads ERA5 precipitation
// files in NetCDF format.
package era5

import (
	"errors"
	"fmt"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/rtm0/era5rain/internal/field"
)

// PrecipitationVar is the short name of total precipitation in ERA5 files.
const PrecipitationVar = "tp"

// ERA5 files written by the legacy CDS name the time axis "time"; the
// current service uses "valid_time".
var timeVarNames = []string{"valid_time", "time"}

// Scanner retrieves the precipitation field from a file one timestamp at a
// time. Files without a time axis hold a single field.
type Scanner struct {
	nc      api.Group
	grid    field.Grid
	flipLat bool
	ts      []time.Time
	tp      api.VarGetter
	pack    packing
	units   string
	pos     int
	step    Step
	err     error
}

// Step is the field read by one Scan call.
type Step struct {
	Time  time.Time
	Field *field.Field
}

// NewScanner opens an ERA5 file for scanning.
func NewScanner(filePath string) (*Scanner, error) {
	nc, err := netcdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	s := &Scanner{nc: nc}
	if err := s.init(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	return s, nil
}

func (s *Scanner) init() error {
	la, err := axisValues(s.nc, "latitude")
	if err != nil {
		return err
	}
	lo, err := axisValues(s.nc, "longitude")
	if err != nil {
		return err
	}
	// ERA5 stores latitude north to south.
	if len(la) > 1 && la[0] > la[len(la)-1] {
		s.flipLat = true
		la = reversed(la)
	}
	s.grid, err = field.NewGrid(la, lo)
	if err != nil {
		return err
	}

	for _, name := range timeVarNames {
		vg, err := s.nc.GetVarGetter(name)
		if err != nil {
			continue
		}
		v, err := vg.Values()
		if err != nil {
			return fmt.Errorf("%s values: %w", name, err)
		}
		s.ts, err = decodeTimes(v, attrString(vg.Attributes(), "units"))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		break
	}

	s.tp, err = s.nc.GetVarGetter(PrecipitationVar)
	if err != nil {
		return fmt.Errorf("variable %q: %w", PrecipitationVar, err)
	}
	attrs := s.tp.Attributes()
	s.pack = packingOf(attrs)
	s.units = attrString(attrs, "units")
	if s.units == "" {
		s.units = field.Meters
	}
	return nil
}

func axisValues(nc api.Group, name string) ([]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("axis %q: %w", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("axis %q values: %w", name, err)
	}
	return toFloat1D(v)
}

func reversed(in []float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// Close closes the scanner.
func (s *Scanner) Close() {
	s.nc.Close()
}

// Grid returns the increasing latitude/longitude axes of the file.
func (s *Scanner) Grid() field.Grid {
	return s.grid
}

// Times returns the decoded time axis; it is empty for files without one.
func (s *Scanner) Times() []time.Time {
	return s.ts
}

// Summary returns the summary information about the dataset suitable for
// logging.
func (s *Scanner) Summary() []any {
	return []any{
		"variable", PrecipitationVar,
		"units", s.units,
		"tsCnt", len(s.ts),
		"laCnt", len(s.grid.Lats),
		"loCnt", len(s.grid.Lons),
	}
}

func (s *Scanner) steps() int {
	if len(s.ts) == 0 {
		return 1
	}
	return len(s.ts)
}

// Scan reads the field for the next timestamp.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.pos >= s.steps() {
		return false
	}

	var (
		raw any
		err error
	)
	if len(s.ts) == 0 {
		raw, err = s.tp.Values()
	} else {
		begin := int64(s.pos)
		raw, err = s.tp.GetSlice(begin, begin+1)
	}
	if err != nil {
		s.err = err
		return false
	}
	values, err := toFloat2D(raw)
	if err != nil {
		s.err = err
		return false
	}
	f, err := s.toField(values)
	if err != nil {
		s.err = err
		return false
	}

	s.step = Step{Field: f}
	if len(s.ts) > 0 {
		s.step.Time = s.ts[s.pos]
	}
	s.pos++
	return true
}

func (s *Scanner) toField(values [][]float64) (*field.Field, error) {
	rows, cols := len(s.grid.Lats), len(s.grid.Lons)
	if len(values) != rows {
		return nil, fmt.Errorf("%s has %d rows, latitude axis has %d", PrecipitationVar, len(values), rows)
	}
	f := field.New(s.grid, s.units)
	for i, row := range values {
		if len(row) != cols {
			return nil, fmt.Errorf("%s row %d has %d columns, longitude axis has %d", PrecipitationVar, i, len(row), cols)
		}
		dst := f.Values[i]
		if s.flipLat {
			dst = f.Values[rows-1-i]
		}
		for j, v := range row {
			dst[j] = s.pack.unpack(v)
		}
	}
	return f, nil
}

// Step returns the field read by the last Scan() operation.
func (s *Scanner) Step() Step {
	return s.step
}

// Err returns the first error encountered while scanning.
func (s *Scanner) Err() error {
	return s.err
}

// ErrNoData is returned when a file yields no precipitation fields.
var ErrNoData = errors.New("no precipitation data")

// Totals holds the accumulated precipitation of a file.
type Totals struct {
	// Daily is the sum over all timestamps, in millimeters.
	Daily *field.Field
	// Hourly is the spatial mean per timestamp, in mm/hour.
	Hourly field.Series
}

// Accumulate scans the remaining timestamps, summing them into a daily total
// and recording the spatial mean of each.
func (s *Scanner) Accumulate() (Totals, error) {
	var t Totals
	t.Hourly.Units = "mm/hour"
	for s.Scan() {
		mm := s.Step().Field.Millimeters()
		if t.Daily == nil {
			t.Daily = mm
		} else if err := t.Daily.Accumulate(mm); err != nil {
			return Totals{}, err
		}
		if len(s.ts) > 0 {
			t.Hourly.Append(s.Step().Time, field.SpatialMean(mm))
		}
	}
	if err := s.Err(); err != nil {
		return Totals{}, err
	}
	if t.Daily == nil {
		return Totals{}, ErrNoData
	}
	return t, nil
}
