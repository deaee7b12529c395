package cds

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultURL is the Climate Data Store API root.
const DefaultURL = "https://cds.climate.copernicus.eu/api"

// Environment overrides honoured by the CDS tooling.
const (
	envURL = "CDSAPI_URL"
	envKey = "CDSAPI_KEY"
	envRC  = "CDSAPI_RC"
)

// ErrNoCredentials is returned when no API key could be found.
var ErrNoCredentials = errors.New("cds: no API credentials configured")

// Credentials identify a CDS account.
type Credentials struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// DefaultRCPath returns the location of the credentials file: $CDSAPI_RC or
// ~/.cdsapirc.
func DefaultRCPath() string {
	if p := os.Getenv(envRC); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cdsapirc"
	}
	return filepath.Join(home, ".cdsapirc")
}

// ReadRC parses a .cdsapirc file made of "url: ..." and "key: ..." lines.
func ReadRC(path string) (Credentials, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, err
	}
	var c Credentials
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Credentials{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// resolveCredentials merges explicit settings, the environment and the rc
// file, in that order of precedence.
func resolveCredentials(explicit Credentials, rcPath string) (Credentials, error) {
	c := explicit
	if c.URL == "" {
		c.URL = os.Getenv(envURL)
	}
	if c.Key == "" {
		c.Key = os.Getenv(envKey)
	}
	if c.URL == "" || c.Key == "" {
		if rcPath == "" {
			rcPath = DefaultRCPath()
		}
		rc, err := ReadRC(rcPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Credentials{}, err
		}
		if c.URL == "" {
			c.URL = rc.URL
		}
		if c.Key == "" {
			c.Key = rc.Key
		}
	}
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Key == "" {
		return Credentials{}, ErrNoCredentials
	}
	return c, nil
}
