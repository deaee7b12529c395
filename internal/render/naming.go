package render

import (
	"strings"
	"unicode"
)

// File name prefixes for the rendered charts.
const (
	MapPrefix      = "kathmandu_rainfall_"
	PlainMapPrefix = "kathmandu_rainfall_simple_"
	TimeSeriesFile = "kathmandu_rainfall_timeseries.png"
)

// OutputName derives a PNG file name from a label: hyphens are dropped,
// whitespace becomes an underscore and any other non-alphanumeric rune is
// removed. "2023-07-15" becomes "<prefix>20230715.png".
func OutputName(prefix, label string) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	for _, r := range strings.TrimSpace(label) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteByte('_')
		}
	}
	sb.WriteString(".png")
	return sb.String()
}
