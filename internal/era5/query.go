package era5

import (
	"fmt"
	"time"

	"github.com/rtm0/era5rain/internal/region"
)

// CDS request constants for hourly single-level precipitation.
const (
	DatasetSingleLevels = "reanalysis-era5-single-levels"
	ProductReanalysis   = "reanalysis"
	TotalPrecipitation  = "total_precipitation"
	FormatNetCDF        = "netcdf"
	DownloadUnarchived  = "unarchived"
)

// Query describes one ERA5 retrieval. It marshals to the CDS process inputs;
// Dataset selects the process and is not part of the inputs.
type Query struct {
	Dataset        string     `json:"-"`
	ProductType    string     `json:"product_type"`
	Variable       string     `json:"variable"`
	Year           string     `json:"year"`
	Month          string     `json:"month"`
	Day            string     `json:"day"`
	Time           []string   `json:"time"`
	Area           [4]float64 `json:"area"`
	DataFormat     string     `json:"data_format"`
	DownloadFormat string     `json:"download_format"`
}

// NewQuery builds the request for total precipitation over r grown by
// margin, for every hour of date.
func NewQuery(r region.Region, margin float64, date time.Time) (Query, error) {
	if err := r.Validate(); err != nil {
		return Query{}, err
	}
	box := r.Expand(margin)
	return Query{
		Dataset:     DatasetSingleLevels,
		ProductType: ProductReanalysis,
		Variable:    TotalPrecipitation,
		Year:        fmt.Sprintf("%04d", date.Year()),
		Month:       fmt.Sprintf("%02d", int(date.Month())),
		Day:         fmt.Sprintf("%02d", date.Day()),
		Time:        dayHours(),
		// CDS orders the area as north, west, south, east.
		Area:           [4]float64{box.North, box.West, box.South, box.East},
		DataFormat:     FormatNetCDF,
		DownloadFormat: DownloadUnarchived,
	}, nil
}

func dayHours() []string {
	hours := make([]string, 24)
	for h := range hours {
		hours[h] = fmt.Sprintf("%02d:00", h)
	}
	return hours
}

// Date returns the YYYY-MM-DD form of the requested day.
func (q Query) Date() string {
	return q.Year + "-" + q.Month + "-" + q.Day
}

// Summary returns the query suitable for logging.
func (q Query) Summary() []any {
	return []any{
		"dataset", q.Dataset,
		"variable", q.Variable,
		"date", q.Date(),
		"hours", len(q.Time),
		"area", q.Area,
	}
}
