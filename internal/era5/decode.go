package era5

import (
	"fmt"
	"math"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// packing describes how raw stored values map to physical values.
type packing struct {
	scale   float64
	offset  float64
	fill    float64
	hasFill bool
	missing float64
	hasMiss bool
}

func packingOf(attrs api.AttributeMap) packing {
	p := packing{scale: 1}
	if attrs == nil {
		return p
	}
	if v, ok := attrFloat(attrs, "scale_factor"); ok {
		p.scale = v
	}
	if v, ok := attrFloat(attrs, "add_offset"); ok {
		p.offset = v
	}
	p.fill, p.hasFill = attrFloat(attrs, "_FillValue")
	p.missing, p.hasMiss = attrFloat(attrs, "missing_value")
	return p
}

func (p packing) unpack(raw float64) float64 {
	if (p.hasFill && raw == p.fill) || (p.hasMiss && raw == p.missing) || math.IsNaN(raw) {
		return math.NaN()
	}
	return raw*p.scale + p.offset
}

func attrFloat(attrs api.AttributeMap, key string) (float64, bool) {
	v, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	vals, err := toFloat1D(v)
	if err == nil && len(vals) > 0 {
		return vals[0], true
	}
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int8:
		return float64(v), true
	}
	return 0, false
}

func attrString(attrs api.AttributeMap, key string) string {
	if attrs == nil {
		return ""
	}
	v, ok := attrs.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func toFloat1D(v any) ([]float64, error) {
	switch v := v.(type) {
	case []float64:
		return v, nil
	case []float32:
		return convert(v), nil
	case []int64:
		return convert(v), nil
	case []int32:
		return convert(v), nil
	case []int16:
		return convert(v), nil
	case []int8:
		return convert(v), nil
	}
	return nil, fmt.Errorf("unsupported 1-D value type %T", v)
}

func toFloat2D(v any) ([][]float64, error) {
	switch v := v.(type) {
	case [][]float64:
		return v, nil
	case [][]float32:
		return convert2(v), nil
	case [][]int32:
		return convert2(v), nil
	case [][]int16:
		return convert2(v), nil
	case [][][]float64:
		return firstPlane(v)
	case [][][]float32:
		return firstPlane(convert3(v))
	case [][][]int32:
		return firstPlane(convert3(v))
	case [][][]int16:
		return firstPlane(convert3(v))
	}
	return nil, fmt.Errorf("unsupported 2-D value type %T", v)
}

func firstPlane(v [][][]float64) ([][]float64, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("empty time slice")
	}
	return v[0], nil
}

type number interface {
	~float32 | ~float64 | ~int8 | ~int16 | ~int32 | ~int64
}

func convert[T number](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func convert2[T number](in [][]T) [][]float64 {
	out := make([][]float64, len(in))
	for i, row := range in {
		out[i] = convert(row)
	}
	return out
}

func convert3[T number](in [][][]T) [][][]float64 {
	out := make([][][]float64, len(in))
	for i, plane := range in {
		out[i] = convert2(plane)
	}
	return out
}
