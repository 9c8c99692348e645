package finder

import (
	"context"
	"fmt"
	"log/slog"
	"provider-finder/internal/directory"
	"provider-finder/internal/geocode"
	"provider-finder/internal/models"
	"provider-finder/internal/specialty"
	"strings"
	"time"
)

// Request is what the HTTP and CLI layers hand to Service.Search.
type Request struct {
	Name       string
	Categories []string
	// Address is resolved through the geocoder unless Location is set.
	Address  string
	Location *models.Coordinate
	Limit    int
	MaxMiles float64
}

func (r Request) hasInput() bool {
	return strings.TrimSpace(r.Address) != "" ||
		r.Location != nil ||
		strings.TrimSpace(r.Name) != "" ||
		len(r.Categories) > 0
}

// Service answers searches against one loaded directory.
type Service struct {
	dir        *directory.Directory
	records    []models.Provider
	categories []string
	geocoder   geocode.Geocoder
	log        *slog.Logger
}

// NewService snapshots the directory's records once; they are shared
// read-only by every search. geocoder may be nil, in which case address
// searches report a missing credential.
func NewService(dir *directory.Directory, geocoder geocode.Geocoder, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if geocoder == nil {
		geocoder = geocode.GeocoderFunc(func(context.Context, string) (models.Coordinate, error) {
			return models.Coordinate{}, &geocode.MissingCredentialError{}
		})
	}
	records := dir.Records()
	return &Service{
		dir:        dir,
		records:    records,
		categories: specialty.AvailableCategories(records),
		geocoder:   geocoder,
		log:        log,
	}
}

// Categories lists the labels that match at least one provider.
func (s *Service) Categories() []string {
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// Source is where the directory was loaded from.
func (s *Service) Source() string {
	return s.dir.Source()
}

// Providers is the number of directory entries.
func (s *Service) Providers() int {
	return len(s.records)
}

// Search validates req, resolves its address if needed and runs the query.
// A geocoding failure is not an error: the search falls back to name order
// and the result carries StatusGeocodeFailed.
func (s *Service) Search(ctx context.Context, req Request) (*models.ResultSet, error) {
	start := time.Now()
	address := strings.TrimSpace(req.Address)

	q := models.Query{
		Name:       strings.TrimSpace(req.Name),
		Categories: req.Categories,
		Location:   req.Location,
		Limit:      req.Limit,
		MaxMiles:   req.MaxMiles,
	}
	if err := Validate(q); err != nil {
		return nil, err
	}

	if !req.hasInput() {
		return &models.ResultSet{
			Results: []models.ScoredProvider{},
			Status:  models.StatusNoInput,
			Message: "Use the filters or enter an address to start.",
		}, nil
	}

	var geoErr error
	if q.Location == nil && address != "" {
		coord, err := s.geocoder.Resolve(ctx, address)
		switch {
		case err == nil:
			q.Location = &coord
		case geocode.IsFailure(err):
			geoErr = err
			s.log.Warn("geocoding failed, ranking without location",
				"address", address, "kind", geocode.Kind(err), "err", err)
		default:
			return nil, fmt.Errorf("resolve address: %w", err)
		}
	}

	rs, err := Execute(q, s.records)
	if err != nil {
		return nil, err
	}

	filtered := q.Name != "" || len(q.Categories) > 0
	switch {
	case rs.DistanceSorted:
		rs.Status = models.StatusRankedByDistance
		near := address
		if req.Location != nil || near == "" {
			near = fmt.Sprintf("%.5f, %.5f", rs.Location.Lat, rs.Location.Lon)
		}
		rs.Message = fmt.Sprintf("Top %d provider(s) near %s", len(rs.Results), near)
		if filtered {
			rs.Message += " (filtered)"
		}
	case geoErr != nil:
		rs.Status = models.StatusGeocodeFailed
		rs.GeocodeError = geoErr.Error()
		rs.Message = "Showing providers by name/specialty (address not usable)."
	default:
		rs.Status = models.StatusFilteredNoLoc
		rs.Message = fmt.Sprintf("Showing %d provider(s) matching your filters (no address sorting).", len(rs.Results))
	}

	s.log.Info("search",
		"status", rs.Status,
		"total", rs.Total,
		"returned", len(rs.Results),
		"duration", time.Since(start),
	)
	return rs, nil
}
