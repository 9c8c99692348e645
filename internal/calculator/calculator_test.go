package calculator

import (
	"fmt"
	"math"
	"provider-finder/internal/models"
	"testing"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePoints = []models.Coordinate{
	{Lat: 40.0, Lon: -75.0},
	{Lat: 40.1, Lon: -75.1},
	{Lat: 39.9526, Lon: -75.1652},
	{Lat: 34.0522, Lon: -118.2437},
	{Lat: -33.8688, Lon: 151.2093},
	{Lat: 89.9, Lon: 0},
	{Lat: -89.9, Lon: 179.9},
	{Lat: 0, Lon: 0},
	{Lat: 0, Lon: 180},
}

func TestDistanceMilesSymmetric(t *testing.T) {
	for _, a := range samplePoints {
		for _, b := range samplePoints {
			ab := DistanceMiles(a.Lat, a.Lon, b.Lat, b.Lon)
			ba := DistanceMiles(b.Lat, b.Lon, a.Lat, a.Lon)
			assert.InDelta(t, ab, ba, 1e-9, "%v <-> %v", a, b)
			assert.GreaterOrEqual(t, ab, 0.0)
		}
	}
}

func TestDistanceMilesCoincident(t *testing.T) {
	for _, a := range samplePoints {
		assert.Equal(t, 0.0, DistanceMiles(a.Lat, a.Lon, a.Lat, a.Lon), "%v", a)
	}
}

func TestDistanceMilesKnownPairs(t *testing.T) {
	d := DistanceMiles(40.0, -75.0, 40.1, -75.1)
	assert.InDelta(t, 8.70, d, 0.05)

	// Antipodes on the equator: half the circumference.
	half := DistanceMiles(0, 0, 0, 180)
	assert.InDelta(t, math.Pi*earthRadiusMiles, half, 1e-6)
}

func TestDistanceMilesMatchesS2(t *testing.T) {
	for _, a := range samplePoints {
		for _, b := range samplePoints {
			angle := s2.LatLngFromDegrees(a.Lat, a.Lon).Distance(s2.LatLngFromDegrees(b.Lat, b.Lon))
			want := angle.Radians() * earthRadiusMiles
			assert.InDelta(t, want, DistanceMiles(a.Lat, a.Lon, b.Lat, b.Lon), 1e-3, "%v <-> %v", a, b)
		}
	}
}

func TestDistanceMilesMonotonic(t *testing.T) {
	prev := 0.0
	for step := 1; step <= 180; step++ {
		d := DistanceMiles(0, 0, 0, float64(step))
		assert.Greater(t, d, prev, "step %d", step)
		prev = d
	}
}

func TestAnnotateDoesNotMutateInput(t *testing.T) {
	providers := []models.Provider{
		{Name: "Alpha", Latitude: 40.0, Longitude: -75.0},
		{Name: "Beta", Latitude: 40.1, Longitude: -75.1},
	}
	before := append([]models.Provider(nil), providers...)

	first := Annotate(models.Coordinate{Lat: 40.0, Lon: -75.0}, providers)
	second := Annotate(models.Coordinate{Lat: 40.1, Lon: -75.1}, providers)

	assert.Equal(t, before, providers)
	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Equal(t, 0.0, *first[0].DistanceMiles)
	assert.Equal(t, 0.0, *second[1].DistanceMiles)
	assert.Equal(t, *first[1].DistanceMiles, *second[0].DistanceMiles)
}

func TestAnnotateParallelKeepsOrder(t *testing.T) {
	n := parallelThreshold*2 + 17
	providers := make([]models.Provider, n)
	for i := range providers {
		providers[i] = models.Provider{
			Name:      fmt.Sprintf("p%05d", i),
			Latitude:  float64(i%180) - 89,
			Longitude: float64(i%360) - 179,
		}
	}
	origin := models.Coordinate{Lat: 10, Lon: 10}

	scored := Annotate(origin, providers)
	require.Len(t, scored, n)
	for i, sp := range scored {
		require.Equal(t, providers[i].Name, sp.Name)
		require.NotNil(t, sp.DistanceMiles)
		want := DistanceMiles(origin.Lat, origin.Lon, providers[i].Latitude, providers[i].Longitude)
		require.Equal(t, want, *sp.DistanceMiles)
	}
}

func TestAnnotateEmpty(t *testing.T) {
	assert.Empty(t, Annotate(models.Coordinate{}, nil))
}

func TestWithinRadius(t *testing.T) {
	providers := []models.Provider{
		{Name: "here", Latitude: 40.0, Longitude: -75.0},
		{Name: "near", Latitude: 40.1, Longitude: -75.1},
		{Name: "far", Latitude: 34.0522, Longitude: -118.2437},
	}
	scored := Annotate(models.Coordinate{Lat: 40.0, Lon: -75.0}, providers)

	got := WithinRadius(scored, 10)
	require.Len(t, got, 2)
	assert.Equal(t, "here", got[0].Name)
	assert.Equal(t, "near", got[1].Name)

	unscored := []models.ScoredProvider{{Provider: providers[0]}}
	assert.Empty(t, WithinRadius(unscored, 1000))
}
