package mapview

import (
	"provider-finder/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func miles(v float64) *float64 { return &v }

func sample() *models.ResultSet {
	return &models.ResultSet{
		Results: []models.ScoredProvider{
			{Provider: models.Provider{Name: "Alpha Ortho", Address: "1 Main St", Latitude: 40.0, Longitude: -75.0}, DistanceMiles: miles(0)},
			{Provider: models.Provider{Name: "Nowhere Clinic"}, DistanceMiles: miles(5000)},
			{Provider: models.Provider{Name: "Beta Chiro", Address: "2 Oak Ave", Latitude: 40.1, Longitude: -75.1}, DistanceMiles: miles(8.7034)},
		},
	}
}

func TestBuildSkipsUnlocatedProviders(t *testing.T) {
	v := Build(sample(), 0)

	require.Len(t, v.Pins, 2)
	assert.Equal(t, 1, v.Pins[0].ResultNo)
	assert.Equal(t, 3, v.Pins[1].ResultNo)
	assert.Equal(t, "0.00 mi", v.Pins[0].Distance)
	assert.Equal(t, "8.70 mi", v.Pins[1].Distance)
	assert.Len(t, v.Pins[0].Geohash, 7)
	assert.NotEqual(t, v.Pins[0].Geohash, v.Pins[1].Geohash)
	assert.Nil(t, v.Client)
}

func TestBuildFitsBoundsWithoutFocus(t *testing.T) {
	rs := sample()
	rs.Results[2].Latitude = 40.3

	v := Build(rs, 0)
	assert.InDelta(t, 40.15, v.View.Lat, 1e-6)
	assert.InDelta(t, -75.05, v.View.Lon, 1e-6)
	// span 0.3 falls in the [0.2, 0.5) band
	assert.Equal(t, 7.0, v.View.Zoom)
}

func TestBuildCentresOnMeanPosition(t *testing.T) {
	rs := &models.ResultSet{Results: []models.ScoredProvider{
		{Provider: models.Provider{Name: "A", Latitude: 40, Longitude: -75}},
		{Provider: models.Provider{Name: "B", Latitude: 40, Longitude: -75}},
		{Provider: models.Provider{Name: "C", Latitude: 41.5, Longitude: -73.5}},
	}}
	v := Build(rs, 0)
	// the bounding box centre would be 40.75, -74.25
	assert.InDelta(t, 40.5, v.View.Lat, 1e-9)
	assert.InDelta(t, -74.5, v.View.Lon, 1e-9)
	assert.Equal(t, 5.0, v.View.Zoom)
}

func TestBuildFocusesSelectedPin(t *testing.T) {
	rs := sample()
	rs.Location = &models.Coordinate{Lat: 39.0, Lon: -74.0}

	v := Build(rs, 3)
	assert.True(t, v.Pins[1].Selected)
	assert.False(t, v.Pins[0].Selected)
	assert.Equal(t, ViewState{Lat: 40.1, Lon: -75.1, Zoom: 12}, v.View)
	require.NotNil(t, v.Client)
	assert.Equal(t, 39.0, v.Client.Lat)
}

func TestBuildFocusesClientWithoutSelection(t *testing.T) {
	rs := sample()
	rs.Location = &models.Coordinate{Lat: 39.0, Lon: -74.0}

	v := Build(rs, 0)
	assert.Equal(t, ViewState{Lat: 39.0, Lon: -74.0, Zoom: 12}, v.View)

	// selecting an unlocated result does not move the camera to it
	v = Build(rs, 2)
	assert.Equal(t, ViewState{Lat: 39.0, Lon: -74.0, Zoom: 12}, v.View)
}

func TestBuildSinglePin(t *testing.T) {
	rs := &models.ResultSet{Results: []models.ScoredProvider{
		{Provider: models.Provider{Name: "Solo", Latitude: 35.0, Longitude: -80.0}},
	}}
	v := Build(rs, 0)
	require.Len(t, v.Pins, 1)
	assert.Empty(t, v.Pins[0].Distance)
	assert.InDelta(t, 35.0, v.View.Lat, 1e-9)
	assert.InDelta(t, -80.0, v.View.Lon, 1e-9)
	assert.Equal(t, 9.0, v.View.Zoom)
}

func TestBuildFallsBackWithNoPoints(t *testing.T) {
	want := ViewState{Lat: fallbackLat, Lon: fallbackLon, Zoom: fallbackZoom}

	assert.Equal(t, want, Build(nil, 0).View)
	v := Build(&models.ResultSet{Results: []models.ScoredProvider{{Provider: models.Provider{Name: "x"}}}}, 1)
	assert.Empty(t, v.Pins)
	assert.NotNil(t, v.Pins)
	assert.Equal(t, want, v.View)
}

func TestZoomFor(t *testing.T) {
	tests := []struct {
		span float64
		want float64
	}{
		{0, 11}, {0.019, 11}, {0.02, 10}, {0.049, 10}, {0.05, 9},
		{0.15, 8}, {0.3, 7}, {0.9, 6}, {1, 5}, {40, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, zoomFor(tt.span), "span %v", tt.span)
	}
}
