package era5

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/rtm0/era5rain/internal/field"
)

// WriteSample stores f as a NetCDF file laid out like an ERA5 download
// without a time axis: latitude, longitude and tp in meters.
func WriteSample(filePath string, f *field.Field) (err error) {
	m := f
	if f.Units != field.Meters {
		m = f.Scale(1e-3, field.Meters)
	}

	cw, err := cdf.OpenWriter(filePath)
	if err != nil {
		return fmt.Errorf("create %s: %w", filePath, err)
	}
	defer func() {
		if cerr := cw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", filePath, cerr)
		}
	}()

	vars := []struct {
		name  string
		value api.Variable
		attrs map[string]any
	}{
		{"latitude", api.Variable{Values: m.Lats, Dimensions: []string{"latitude"}},
			map[string]any{"units": "degrees_north", "long_name": "latitude"}},
		{"longitude", api.Variable{Values: m.Lons, Dimensions: []string{"longitude"}},
			map[string]any{"units": "degrees_east", "long_name": "longitude"}},
		{PrecipitationVar, api.Variable{Values: m.Values, Dimensions: []string{"latitude", "longitude"}},
			map[string]any{"units": field.Meters, "long_name": "Total precipitation"}},
	}
	for _, v := range vars {
		attrs, err := util.NewOrderedMap([]string{"units", "long_name"}, v.attrs)
		if err != nil {
			return err
		}
		v.value.Attributes = attrs
		if err := cw.AddVar(v.name, v.value); err != nil {
			return fmt.Errorf("add %s: %w", v.name, err)
		}
	}
	return nil
}
