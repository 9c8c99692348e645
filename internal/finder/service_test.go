package finder

import (
	"context"
	"errors"
	"provider-finder/internal/directory"
	"provider-finder/internal/geocode"
	"provider-finder/internal/models"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGeocoder answers from a map and records every address it was asked.
type fakeGeocoder struct {
	mu      sync.Mutex
	answers map[string]models.Coordinate
	err     error
	asked   []string
}

func (f *fakeGeocoder) Resolve(ctx context.Context, address string) (models.Coordinate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, address)
	if f.err != nil {
		return models.Coordinate{}, f.err
	}
	c, ok := f.answers[address]
	if !ok {
		return models.Coordinate{}, &geocode.ProviderRejectedError{Status: "ZERO_RESULTS"}
	}
	return c, nil
}

func newTestService(g geocode.Geocoder) *Service {
	dir := directory.New("test", append(scenarioDirectory(),
		models.Provider{Name: "Gamma Physio", Specialty: "Physical Therapy", Latitude: 41.0, Longitude: -76.0},
	))
	return NewService(dir, g, nil)
}

func TestSearchNoInput(t *testing.T) {
	g := &fakeGeocoder{}
	svc := newTestService(g)

	rs, err := svc.Search(context.Background(), Request{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoInput, rs.Status)
	assert.Empty(t, rs.Results)
	assert.NotEmpty(t, rs.Message)
	assert.Empty(t, g.asked)

	rs, err = svc.Search(context.Background(), Request{Name: "   ", Address: "  ", Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoInput, rs.Status)
}

func TestSearchRankedByDistance(t *testing.T) {
	g := &fakeGeocoder{answers: map[string]models.Coordinate{"1 Main St": {Lat: 40.0, Lon: -75.0}}}
	svc := newTestService(g)

	rs, err := svc.Search(context.Background(), Request{Address: "  1 Main St ", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRankedByDistance, rs.Status)
	assert.True(t, rs.DistanceSorted)
	assert.Equal(t, []string{"Alpha Ortho", "Beta Chiro", "Gamma Physio"}, names(rs))
	assert.Equal(t, "Top 3 provider(s) near 1 Main St", rs.Message)
	assert.Equal(t, []string{"1 Main St"}, g.asked, "address is trimmed before lookup")
}

func TestSearchRankedAndFiltered(t *testing.T) {
	g := &fakeGeocoder{answers: map[string]models.Coordinate{"home": {Lat: 41.0, Lon: -76.0}}}
	svc := newTestService(g)

	rs, err := svc.Search(context.Background(), Request{Address: "home", Categories: []string{"Chiro", "PT"}, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRankedByDistance, rs.Status)
	assert.Equal(t, []string{"Gamma Physio", "Beta Chiro"}, names(rs))
	assert.Contains(t, rs.Message, "(filtered)")
}

func TestSearchWithResolvedLocation(t *testing.T) {
	g := &fakeGeocoder{}
	svc := newTestService(g)

	rs, err := svc.Search(context.Background(), Request{Location: &models.Coordinate{Lat: 40.1, Lon: -75.1}, Address: "ignored", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRankedByDistance, rs.Status)
	assert.Equal(t, []string{"Beta Chiro"}, names(rs))
	assert.Equal(t, 3, rs.Total)
	assert.Empty(t, g.asked)
}

func TestSearchGeocodeFailedFallsBackToNameOrder(t *testing.T) {
	g := &fakeGeocoder{}
	svc := newTestService(g)

	rs, err := svc.Search(context.Background(), Request{Address: "nowhere", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, models.StatusGeocodeFailed, rs.Status)
	assert.False(t, rs.DistanceSorted)
	assert.Equal(t, []string{"Alpha Ortho", "Beta Chiro", "Gamma Physio"}, names(rs))
	assert.Contains(t, rs.GeocodeError, "ZERO_RESULTS")
	for _, r := range rs.Results {
		assert.Nil(t, r.DistanceMiles)
	}

	rs, err = svc.Search(context.Background(), Request{Address: "nowhere", Categories: []string{"Chiro"}, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, models.StatusGeocodeFailed, rs.Status)
	assert.Equal(t, []string{"Beta Chiro"}, names(rs))
}

func TestSearchGeocodeFailureKinds(t *testing.T) {
	for _, geoErr := range []error{
		&geocode.MissingCredentialError{},
		&geocode.TransportError{Detail: "timeout"},
		&geocode.ProviderRejectedError{Status: "REQUEST_DENIED"},
	} {
		svc := newTestService(&fakeGeocoder{err: geoErr})
		rs, err := svc.Search(context.Background(), Request{Address: "x", Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, models.StatusGeocodeFailed, rs.Status, "%T", geoErr)
		assert.Equal(t, geoErr.Error(), rs.GeocodeError)
	}
}

func TestSearchNilGeocoderReportsMissingCredential(t *testing.T) {
	svc := newTestService(nil)
	rs, err := svc.Search(context.Background(), Request{Address: "x", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, models.StatusGeocodeFailed, rs.Status)
	assert.Contains(t, rs.GeocodeError, "API key")
}

func TestSearchPropagatesOtherErrors(t *testing.T) {
	svc := newTestService(&fakeGeocoder{err: context.Canceled})
	_, err := svc.Search(context.Background(), Request{Address: "x", Limit: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSearchFilteredNoLocation(t *testing.T) {
	svc := newTestService(&fakeGeocoder{})
	rs, err := svc.Search(context.Background(), Request{Name: "a", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, models.StatusFilteredNoLoc, rs.Status)
	assert.Equal(t, []string{"Alpha Ortho", "Beta Chiro"}, names(rs))
	assert.Equal(t, 3, rs.Total)
	assert.Equal(t, "Showing 2 provider(s) matching your filters (no address sorting).", rs.Message)
}

func TestSearchRejectsInvalidLimitBeforeGeocoding(t *testing.T) {
	g := &fakeGeocoder{}
	svc := newTestService(g)
	for _, limit := range []int{0, -5} {
		_, err := svc.Search(context.Background(), Request{Address: "x", Limit: limit})
		assert.ErrorIs(t, err, ErrInvalidQuery)
	}
	_, err := svc.Search(context.Background(), Request{Limit: 0})
	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.Empty(t, g.asked)
}

func TestServiceCategories(t *testing.T) {
	svc := newTestService(nil)
	assert.Equal(t, []string{"Chiro", "MRI/Imaging", "Ortho", "PT"}, svc.Categories())
	assert.Equal(t, 3, svc.Providers())
	assert.Equal(t, "test", svc.Source())

	cats := svc.Categories()
	cats[0] = "changed"
	assert.Equal(t, "Chiro", svc.Categories()[0])
}

func TestSearchConcurrent(t *testing.T) {
	g := &fakeGeocoder{answers: map[string]models.Coordinate{
		"a": {Lat: 40.0, Lon: -75.0},
		"b": {Lat: 41.0, Lon: -76.0},
	}}
	svc := newTestService(g)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			addr, first := "a", "Alpha Ortho"
			if i%2 == 1 {
				addr, first = "b", "Gamma Physio"
			}
			rs, err := svc.Search(context.Background(), Request{Address: addr, Limit: 3})
			if assert.NoError(t, err) {
				assert.Equal(t, first, rs.Results[0].Name)
				assert.Equal(t, 0.0, *rs.Results[0].DistanceMiles)
			}
		}(i)
	}
	wg.Wait()
}
