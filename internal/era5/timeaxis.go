package era5

import (
	"fmt"
	"strings"
	"time"
)

// TZ=UTC date --date="1900-01-01 00:00:00" +%s
const unixSecs1900 = -2208988800

var epochLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimeUnits decodes CF time units such as
// "hours since 1900-01-01 00:00:00.0" into a step and an epoch.
func parseTimeUnits(units string) (time.Duration, time.Time, error) {
	unit, since, ok := strings.Cut(strings.TrimSpace(units), " since ")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("unsupported time units %q", units)
	}
	var step time.Duration
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "seconds", "second", "s":
		step = time.Second
	case "minutes", "minute":
		step = time.Minute
	case "hours", "hour", "h":
		step = time.Hour
	case "days", "day", "d":
		step = 24 * time.Hour
	default:
		return 0, time.Time{}, fmt.Errorf("unsupported time unit %q", unit)
	}
	since = strings.TrimSuffix(strings.TrimSpace(since), " UTC")
	for _, layout := range epochLayouts {
		if epoch, err := time.ParseInLocation(layout, since, time.UTC); err == nil {
			return step, epoch, nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("unsupported time epoch %q", since)
}

// decodeTimes converts raw offsets to UTC timestamps. Without units, int32
// offsets are treated as ERA5 hours since 1900 and anything else as Unix
// seconds.
func decodeTimes(raw any, units string) ([]time.Time, error) {
	offsets, err := toFloat1D(raw)
	if err != nil {
		return nil, err
	}
	var (
		step  time.Duration
		epoch time.Time
	)
	switch {
	case units != "":
		step, epoch, err = parseTimeUnits(units)
		if err != nil {
			return nil, err
		}
	default:
		step, epoch = time.Second, time.Unix(0, 0).UTC()
		if _, ok := raw.([]int32); ok {
			step, epoch = time.Hour, time.Unix(unixSecs1900, 0).UTC()
		}
	}
	ts := make([]time.Time, len(offsets))
	for i, o := range offsets {
		ts[i] = epoch.Add(time.Duration(o * float64(step)))
	}
	return ts, nil
}
