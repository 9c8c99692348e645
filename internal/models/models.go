package models

import "math"

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether c can take part in a distance computation.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Provider is one directory row. Values are never modified after load.
type Provider struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Specialty string  `json:"specialty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Row is the 1-based CSV line or sheet row the record starts on.
	Row int `json:"-"`
}

func (p Provider) Loc() Coordinate {
	return Coordinate{Lat: p.Latitude, Lon: p.Longitude}
}

// HasLocation is false only for the (0,0) default that unparsable rows get.
// Such rows still rank by distance but are left off maps.
func (p Provider) HasLocation() bool {
	return !(p.Latitude == 0 && p.Longitude == 0)
}

type ScoredProvider struct {
	Provider
	Groups        []string `json:"groups,omitempty"`
	DistanceMiles *float64 `json:"distance_miles,omitempty"`
}

type Query struct {
	Name       string
	Categories []string
	Location   *Coordinate
	Limit      int
	// MaxMiles drops scored results further than this. Zero disables it.
	MaxMiles float64
}

type Status string

const (
	StatusNoInput          Status = "no-input"
	StatusRankedByDistance Status = "ranked-by-distance"
	StatusFilteredNoLoc    Status = "filtered-no-location"
	StatusGeocodeFailed    Status = "geocode-failed"
)

type ResultSet struct {
	Results        []ScoredProvider `json:"results"`
	DistanceSorted bool             `json:"distance_sorted"`
	Total          int              `json:"total"`
	Location       *Coordinate      `json:"location,omitempty"`
	Status         Status           `json:"status"`
	Message        string           `json:"message"`
	GeocodeError   string           `json:"geocode_error,omitempty"`
}

// Len is the number of returned (truncated) results.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Results)
}
