package domain

import (
	"strconv"

	"github.com/golang/geo/s2"
)

// Coordinate is a WGS84 point in degrees.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Valid reports whether both components are finite and inside WGS84 bounds.
// NaN and ±Inf fail the range check.
func (c Coordinate) Valid() bool {
	return s2.LatLngFromDegrees(c.Lat, c.Lon).IsValid()
}

// Key is the canonical "lat,lon" form used in cache keys.
func (c Coordinate) Key() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// Wire is the "lon,lat" form routing services expect.
func (c Coordinate) Wire() string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}
