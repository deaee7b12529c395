package region

import "github.com/paulmach/orb"

// City is a named point marker drawn on maps.
type City struct {
	Name     string
	Location orb.Point
}

// Lat returns the city latitude.
func (c City) Lat() float64 { return c.Location.Lat() }

// Lon returns the city longitude.
func (c City) Lon() float64 { return c.Location.Lon() }

// KathmanduCities are the three major cities of the valley.
var KathmanduCities = []City{
	{Name: "Kathmandu", Location: orb.Point{85.3240, 27.7172}},
	{Name: "Lalitpur", Location: orb.Point{85.3206, 27.6683}},
	{Name: "Bhaktapur", Location: orb.Point{85.4298, 27.6710}},
}
