// Package finder filters and ranks providers for one query.
//
// Execute is a pure function over a read-only record slice: every call
// derives fresh ScoredProvider values, so queries with different client
// locations never see each other's distances. Service adds address
// resolution and the status classification that callers render.
package finder

import (
	"errors"
	"fmt"
	"math"
	"provider-finder/internal/calculator"
	"provider-finder/internal/models"
	"provider-finder/internal/specialty"
	"sort"
	"strings"
)

// ErrInvalidQuery is returned before any work is done when a query cannot
// be executed as given.
var ErrInvalidQuery = errors.New("invalid query")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}

// Validate checks q without running it.
func Validate(q models.Query) error {
	if q.Limit < 1 {
		return invalid("limit must be at least 1, got %d", q.Limit)
	}
	if q.Location != nil && !q.Location.Valid() {
		return invalid("location %v,%v is not a valid coordinate", q.Location.Lat, q.Location.Lon)
	}
	if q.MaxMiles < 0 || math.IsNaN(q.MaxMiles) || math.IsInf(q.MaxMiles, 0) {
		return invalid("max miles must be a non-negative number")
	}
	for _, c := range q.Categories {
		if !specialty.Known(c) {
			return invalid("unknown category %q", c)
		}
	}
	return nil
}

// Execute filters records by name and category, ranks them by distance
// when q has a location and alphabetically otherwise, then truncates to
// q.Limit. records is never modified.
func Execute(q models.Query, records []models.Provider) (*models.ResultSet, error) {
	if err := Validate(q); err != nil {
		return nil, err
	}

	filtered := filterByName(records, q.Name)
	filtered = filterByCategories(filtered, q.Categories)

	var ranked []models.ScoredProvider
	if q.Location != nil {
		ranked = calculator.Annotate(*q.Location, filtered)
		if q.MaxMiles > 0 {
			ranked = calculator.WithinRadius(ranked, q.MaxMiles)
		}
		sortByDistance(ranked)
	} else {
		ranked = make([]models.ScoredProvider, len(filtered))
		for i, p := range filtered {
			ranked[i] = models.ScoredProvider{Provider: p}
		}
		sortByName(ranked)
	}

	total := len(ranked)
	if len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}
	for i := range ranked {
		ranked[i].Groups = specialty.CategoriesFor(ranked[i].Specialty)
	}

	rs := &models.ResultSet{
		Results:        ranked,
		DistanceSorted: q.Location != nil,
		Total:          total,
	}
	if q.Location != nil {
		loc := *q.Location
		rs.Location = &loc
	}
	return rs, nil
}

// filterByName keeps records whose name contains name, ignoring case. The
// result never aliases records.
func filterByName(records []models.Provider, name string) []models.Provider {
	nq := specialty.Fold(strings.TrimSpace(name))
	out := make([]models.Provider, 0, len(records))
	for _, p := range records {
		if nq == "" || strings.Contains(specialty.Fold(p.Name), nq) {
			out = append(out, p)
		}
	}
	return out
}

func filterByCategories(records []models.Provider, categories []string) []models.Provider {
	if len(categories) == 0 {
		return records
	}
	sel := make(map[string]bool, len(categories))
	for _, c := range categories {
		sel[c] = true
	}
	out := make([]models.Provider, 0, len(records))
	for _, p := range records {
		if specialty.Matches(p.Specialty, sel) {
			out = append(out, p)
		}
	}
	return out
}

// sortByDistance orders nearest first; equal distances keep input order.
func sortByDistance(ranked []models.ScoredProvider) {
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].DistanceMiles < *ranked[j].DistanceMiles
	})
}

// sortByName orders by case-folded name, then by raw name so "alpha" and
// "Alpha" always come out the same way, then by input order.
func sortByName(ranked []models.ScoredProvider) {
	keys := make([]string, len(ranked))
	for i := range ranked {
		keys[i] = specialty.Fold(ranked[i].Name)
	}
	idx := make([]int, len(ranked))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka != kb {
			return ka < kb
		}
		return ranked[idx[a]].Name < ranked[idx[b]].Name
	})
	sorted := make([]models.ScoredProvider, len(ranked))
	for i, j := range idx {
		sorted[i] = ranked[j]
	}
	copy(ranked, sorted)
}
