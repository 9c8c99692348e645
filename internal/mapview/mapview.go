// Package mapview projects a result set onto the data a map front end needs:
// one pin per locatable provider and an initial camera position.
package mapview

import (
	"fmt"
	"math"
	"provider-finder/internal/models"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
)

const (
	fallbackLat  = 39.5
	fallbackLon  = -98.35
	fallbackZoom = 4.2
	focusZoom    = 12
	// minSpan stands in for the extent of a single point.
	minSpan = 0.05
	// geohashPrecision of 7 is a cell of roughly 150 m.
	geohashPrecision = 7
)

type Pin struct {
	ResultNo int     `json:"result_no"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Distance string  `json:"distance"`
	Geohash  string  `json:"geohash"`
	Selected bool    `json:"selected"`
}

type ViewState struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Zoom float64 `json:"zoom"`
}

type View struct {
	Pins   []Pin              `json:"pins"`
	Client *models.Coordinate `json:"client,omitempty"`
	View   ViewState          `json:"view"`
}

// Build returns the map data for rs. selected is the 1-based result number
// to highlight; 0 highlights nothing. Providers at exactly (0,0) are left
// off the map.
func Build(rs *models.ResultSet, selected int) View {
	v := View{Pins: []Pin{}}
	if rs == nil {
		v.View = ViewState{Lat: fallbackLat, Lon: fallbackLon, Zoom: fallbackZoom}
		return v
	}

	var focus *models.Coordinate
	for i, r := range rs.Results {
		if !r.HasLocation() {
			continue
		}
		pin := Pin{
			ResultNo: i + 1,
			Name:     r.Name,
			Address:  r.Address,
			Lat:      r.Latitude,
			Lon:      r.Longitude,
			Geohash:  cellOf(r.Latitude, r.Longitude),
			Selected: selected == i+1,
		}
		if r.DistanceMiles != nil {
			pin.Distance = fmt.Sprintf("%.2f mi", *r.DistanceMiles)
		}
		if pin.Selected {
			c := r.Loc()
			focus = &c
		}
		v.Pins = append(v.Pins, pin)
	}

	if rs.Location != nil {
		c := *rs.Location
		v.Client = &c
		if focus == nil {
			focus = &c
		}
	}

	if focus != nil {
		v.View = ViewState{Lat: focus.Lat, Lon: focus.Lon, Zoom: focusZoom}
		return v
	}
	v.View = fit(v.Pins)
	return v
}

func cellOf(lat, lon float64) string {
	h := geohash.Encode(lat, lon)
	if len(h) > geohashPrecision {
		h = h[:geohashPrecision]
	}
	return h
}

// fit centres on the mean pin position and picks a zoom level from the
// larger side of the pins' bounding rectangle.
func fit(pins []Pin) ViewState {
	if len(pins) == 0 {
		return ViewState{Lat: fallbackLat, Lon: fallbackLon, Zoom: fallbackZoom}
	}

	rect := s2.EmptyRect()
	var sumLat, sumLon float64
	for _, p := range pins {
		rect = rect.AddPoint(s2.LatLngFromDegrees(p.Lat, p.Lon))
		sumLat += p.Lat
		sumLon += p.Lon
	}
	n := float64(len(pins))

	span := minSpan
	if len(pins) > 1 {
		size := rect.Size()
		span = math.Max(size.Lat.Degrees(), size.Lng.Degrees())
	}
	return ViewState{
		Lat:  sumLat / n,
		Lon:  sumLon / n,
		Zoom: zoomFor(span),
	}
}

func zoomFor(span float64) float64 {
	switch {
	case span < 0.02:
		return 11
	case span < 0.05:
		return 10
	case span < 0.1:
		return 9
	case span < 0.2:
		return 8
	case span < 0.5:
		return 7
	case span < 1:
		return 6
	default:
		return 5
	}
}
