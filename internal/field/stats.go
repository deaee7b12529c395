package field

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics of a field.
type Summary struct {
	Mean  float64
	Max   float64
	Min   float64
	Std   float64
	Count int
}

// Summarize computes mean, max, min and population standard deviation over
// the finite values of f.
func Summarize(f *Field) (Summary, error) {
	flat := f.Flat()
	if len(flat) == 0 {
		return Summary{}, ErrEmpty
	}
	mean, std := stat.PopMeanStdDev(flat, nil)
	return Summary{
		Mean:  mean,
		Max:   floats.Max(flat),
		Min:   floats.Min(flat),
		Std:   std,
		Count: len(flat),
	}, nil
}

// KeyVals returns the summary as logger key/value pairs.
func (s Summary) KeyVals() []any {
	return []any{
		"mean", s.Mean,
		"max", s.Max,
		"min", s.Min,
		"std", s.Std,
		"count", s.Count,
	}
}

// SpatialMean returns the mean of the finite values of f, or NaN when none.
func SpatialMean(f *Field) float64 {
	flat := f.Flat()
	if len(flat) == 0 {
		return math.NaN()
	}
	return stat.Mean(flat, nil)
}

// Series is a time-indexed sequence of values.
type Series struct {
	Times  []time.Time
	Values []float64
	Units  string
}

// Append adds one point to the series.
func (s *Series) Append(t time.Time, v float64) {
	s.Times = append(s.Times, t)
	s.Values = append(s.Values, v)
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Values) }
