// Package field holds gridded precipitation fields and the synthetic sample
// generator used when no ERA5 data is available.
package field

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Units of a precipitation field.
const (
	Millimeters = "mm"
	Meters      = "m"
)

// ErrEmpty is returned when a field has no finite values.
var ErrEmpty = errors.New("field has no finite values")

// Grid is a pair of strictly increasing coordinate axes.
type Grid struct {
	Lats []float64
	Lons []float64
}

// NewGrid checks that both axes are non-empty and strictly increasing.
func NewGrid(lats, lons []float64) (Grid, error) {
	if err := checkAxis("latitude", lats); err != nil {
		return Grid{}, err
	}
	if err := checkAxis("longitude", lons); err != nil {
		return Grid{}, err
	}
	return Grid{Lats: lats, Lons: lons}, nil
}

func checkAxis(name string, axis []float64) error {
	if len(axis) == 0 {
		return fmt.Errorf("%s axis is empty", name)
	}
	for i := 1; i < len(axis); i++ {
		if !(axis[i] > axis[i-1]) {
			return fmt.Errorf("%s axis is not strictly increasing at index %d", name, i)
		}
	}
	return nil
}

// Linspace returns n evenly spaced values over [start, stop].
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	return floats.Span(make([]float64, n), start, stop)
}

// Field is a 2-D precipitation array indexed by [lat][lon].
type Field struct {
	Grid
	Values [][]float64
	Units  string
}

// New returns a zero-valued field over g.
func New(g Grid, units string) *Field {
	values := make([][]float64, len(g.Lats))
	for i := range values {
		values[i] = make([]float64, len(g.Lons))
	}
	return &Field{Grid: g, Values: values, Units: units}
}

// Shape returns the number of latitude rows and longitude columns.
func (f *Field) Shape() (rows, cols int) {
	return len(f.Lats), len(f.Lons)
}

// Flat returns the finite values of the field in row-major order.
func (f *Field) Flat() []float64 {
	rows, cols := f.Shape()
	out := make([]float64, 0, rows*cols)
	for _, row := range f.Values {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			out = append(out, v)
		}
	}
	return out
}

// Max returns the largest finite value, or NaN for an empty field.
func (f *Field) Max() float64 {
	flat := f.Flat()
	if len(flat) == 0 {
		return math.NaN()
	}
	return floats.Max(flat)
}

// Min returns the smallest finite value, or NaN for an empty field.
func (f *Field) Min() float64 {
	flat := f.Flat()
	if len(flat) == 0 {
		return math.NaN()
	}
	return floats.Min(flat)
}

// Scale returns a copy of the field multiplied by k and tagged with units.
func (f *Field) Scale(k float64, units string) *Field {
	out := New(f.Grid, units)
	for i, row := range f.Values {
		floats.ScaleTo(out.Values[i], k, row)
	}
	return out
}

// Millimeters returns the field converted to millimeters.
func (f *Field) Millimeters() *Field {
	if f.Units == Meters {
		return f.Scale(1000, Millimeters)
	}
	return f.Scale(1, Millimeters)
}

// Accumulate adds other into f element-wise. Both fields must share a shape.
// NaN counts as no data: a cell stays NaN only while every accumulated value
// for it is NaN.
func (f *Field) Accumulate(other *Field) error {
	rows, cols := f.Shape()
	orows, ocols := other.Shape()
	if rows != orows || cols != ocols {
		return fmt.Errorf("shape mismatch: %dx%d vs %dx%d", rows, cols, orows, ocols)
	}
	for i, row := range f.Values {
		if !floats.HasNaN(row) && !floats.HasNaN(other.Values[i]) {
			floats.Add(row, other.Values[i])
			continue
		}
		for j, v := range other.Values[i] {
			switch {
			case math.IsNaN(v):
			case math.IsNaN(row[j]):
				row[j] = v
			default:
				row[j] += v
			}
		}
	}
	return nil
}
