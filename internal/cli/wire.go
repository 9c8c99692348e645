package cli

import (
	"fmt"
	"provider-finder/internal/directory"
	"provider-finder/internal/finder"
	"provider-finder/internal/geocode"
)

// buildService loads the directory and assembles the geocoder chain:
// cache, then breaker, then the HTTP client. The returned close func
// releases the bolt cache when one is configured.
func (a *app) buildService() (*finder.Service, func() error, error) {
	closer := func() error { return nil }

	dir, err := directory.Load(a.cfg.Data.Path, directory.Options{Sheet: a.cfg.Data.Sheet, Logger: a.log})
	if err != nil {
		return nil, closer, err
	}

	gc := a.cfg.Geocode
	if gc.APIKey == "" {
		a.log.Warn("no geocoding API key configured, address searches will fall back to name order")
	}

	var g geocode.Geocoder = geocode.NewClient(gc.APIKey,
		geocode.WithBaseURL(gc.BaseURL),
		geocode.WithTimeout(gc.Timeout),
	)
	if gc.Breaker.Enabled {
		g = geocode.NewBreaker("geocoder", g, geocode.BreakerSettings{
			MaxRequests:      gc.Breaker.MaxRequests,
			Interval:         gc.Breaker.Interval,
			Timeout:          gc.Breaker.Timeout,
			ReadyToTripRatio: gc.Breaker.ReadyToTripRatio,
		}, a.log)
	}

	var cache geocode.Cache
	switch gc.Cache.Backend {
	case "bolt":
		bc, err := geocode.OpenBoltCache(gc.Cache.Path, gc.Cache.TTL, a.log)
		if err != nil {
			return nil, closer, fmt.Errorf("open geocode cache: %w", err)
		}
		cache, closer = bc, bc.Close
	case "none":
		cache = geocode.NopCache{}
	default:
		cache = geocode.NewMemoryCache(gc.Cache.TTL)
	}
	g = geocode.NewCached(g, cache, a.log)

	return finder.NewService(dir, g, a.log), closer, nil
}
