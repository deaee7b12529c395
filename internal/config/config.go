// Package config loads run settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"github.com/rtm0/era5rain/internal/era5"
	"github.com/rtm0/era5rain/internal/field"
	"github.com/rtm0/era5rain/internal/region"
)

// EnvPrefix prefixes every environment override, e.g. RAINFALL_DATE.
const EnvPrefix = "RAINFALL"

// DateLayout is the format of the Date setting.
const DateLayout = "2006-01-02"

// Defaults.
const (
	DefaultDate     = "2023-07-15"
	DefaultDataFile = "era5_rainfall_kathmandu.nc"
)

// Config holds every run setting.
type Config struct {
	LogLevel string `yaml:"log_level" split_words:"true"`
	// Date is the day to retrieve, YYYY-MM-DD.
	Date   string        `yaml:"date" split_words:"true"`
	Region region.Region `yaml:"region" split_words:"true"`
	// Margin pads the region for both the request area and the sample grid.
	Margin     float64 `yaml:"margin" split_words:"true"`
	Resolution int     `yaml:"resolution" split_words:"true"`
	// Sample skips the retrieval and plots synthetic data.
	Sample bool   `yaml:"sample" split_words:"true"`
	Seed   uint64 `yaml:"seed" split_words:"true"`
	// Save writes the charts to OutputDir.
	Save      bool   `yaml:"save" split_words:"true"`
	OutputDir string `yaml:"output_dir" split_words:"true"`
	// DataFile is where the retrieved NetCDF file is stored.
	DataFile string `yaml:"data_file" split_words:"true"`
	// Reuse plots an existing DataFile instead of retrieving it.
	Reuse bool `yaml:"reuse" split_words:"true"`
	// SampleFile, if set, receives the synthetic field as NetCDF.
	SampleFile string `yaml:"sample_file" split_words:"true"`

	Map MapConfig `yaml:"map" split_words:"true"`
	CDS CDSConfig `yaml:"cds" split_words:"true"`
}

type MapConfig struct {
	// Style is "projected" or "plain".
	Style      string `yaml:"style" split_words:"true"`
	Projection string `yaml:"projection" split_words:"true"`
	// Width and Height are in inches.
	Width  float64 `yaml:"width" split_words:"true"`
	Height float64 `yaml:"height" split_words:"true"`
	DPI    int     `yaml:"dpi" split_words:"true"`

	Features []FeatureConfig `yaml:"features" ignored:"true"`
	// Cities replaces the default markers when non-empty.
	Cities []CityConfig `yaml:"cities" ignored:"true"`
}

// FeatureConfig names a GeoJSON overlay, e.g. {name: rivers, path: rivers.geojson}.
type FeatureConfig struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type CityConfig struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

type CDSConfig struct {
	// URL and Key override CDSAPI_URL, CDSAPI_KEY and the rc file.
	URL          string        `yaml:"url" split_words:"true"`
	Key          string        `yaml:"key" split_words:"true"`
	RCFile       string        `yaml:"rc_file" split_words:"true"`
	Dataset      string        `yaml:"dataset" split_words:"true"`
	PollInterval time.Duration `yaml:"poll_interval" split_words:"true"`
	Timeout      time.Duration `yaml:"timeout" split_words:"true"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:   "info",
		Date:       DefaultDate,
		Region:     region.Kathmandu,
		Margin:     field.DefaultMargin,
		Resolution: field.DefaultResolution,
		Save:       true,
		OutputDir:  ".",
		DataFile:   DefaultDataFile,
		Map: MapConfig{
			Style:      "projected",
			Projection: "platecarree",
			Width:      12,
			Height:     10,
			DPI:        150,
		},
		CDS: CDSConfig{
			Dataset:      era5.DatasetSingleLevels,
			PollInterval: 2 * time.Second,
			Timeout:      time.Minute,
		},
	}
}

// Load applies the YAML file at path (if any) over the defaults, then
// RAINFALL_* environment variables over that. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("config: environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings that would otherwise fail late.
func (c Config) Validate() error {
	if _, err := c.Day(); err != nil {
		return err
	}
	if err := c.Region.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Margin < 0 {
		return fmt.Errorf("config: margin must not be negative, got %v", c.Margin)
	}
	if c.Resolution < 2 {
		return fmt.Errorf("config: resolution must be at least 2, got %d", c.Resolution)
	}
	if c.DataFile == "" {
		return errors.New("config: data_file is required")
	}
	if c.Map.Width < 0 || c.Map.Height < 0 || c.Map.DPI < 0 {
		return errors.New("config: map size must not be negative")
	}
	for i, f := range c.Map.Features {
		if f.Name == "" || f.Path == "" {
			return fmt.Errorf("config: map.features[%d] needs a name and a path", i)
		}
	}
	return nil
}

// Day parses Date.
func (c Config) Day() (time.Time, error) {
	d, err := time.Parse(DateLayout, c.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: date %q: %w", c.Date, err)
	}
	return d, nil
}

// CityMarkers returns the configured cities, or the valley defaults.
func (c Config) CityMarkers() []region.City {
	if len(c.Map.Cities) == 0 {
		return region.KathmanduCities
	}
	out := make([]region.City, len(c.Map.Cities))
	for i, cc := range c.Map.Cities {
		out[i] = region.City{Name: cc.Name, Location: orb.Point{cc.Lon, cc.Lat}}
	}
	return out
}
