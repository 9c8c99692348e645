package calculator

import (
	"provider-finder/internal/models"
	"runtime"
	"sync"
)

// parallelThreshold is the input size below which Annotate stays on the
// calling goroutine.
const parallelThreshold = 2048

// Annotate returns a scored copy of every provider with its distance from
// origin. Output order matches input order; the input slice is not touched.
func Annotate(origin models.Coordinate, providers []models.Provider) []models.ScoredProvider {
	total := len(providers)
	results := make([]models.ScoredProvider, total)
	if total == 0 {
		return results
	}

	if total < parallelThreshold {
		annotateRange(origin, providers, results, 0, total)
		return results
	}

	numCPU := runtime.NumCPU()
	if numCPU < 1 {
		numCPU = 1
	}
	chunkSize := (total + numCPU - 1) / numCPU

	var wg sync.WaitGroup
	for i := 0; i < numCPU; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if start >= total {
			break
		}
		if end > total {
			end = total
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			annotateRange(origin, providers, results, s, e)
		}(start, end)
	}
	wg.Wait()

	return results
}

func annotateRange(origin models.Coordinate, src []models.Provider, dst []models.ScoredProvider, s, e int) {
	for idx := s; idx < e; idx++ {
		p := src[idx]
		d := DistanceMiles(origin.Lat, origin.Lon, p.Latitude, p.Longitude)
		dst[idx] = models.ScoredProvider{
			Provider:      p,
			DistanceMiles: &d,
		}
	}
}

// WithinRadius keeps the scored providers no further than radiusMiles away.
// Unscored entries are dropped.
func WithinRadius(scored []models.ScoredProvider, radiusMiles float64) []models.ScoredProvider {
	out := make([]models.ScoredProvider, 0, len(scored))
	for _, sp := range scored {
		if sp.DistanceMiles != nil && *sp.DistanceMiles <= radiusMiles {
			out = append(out, sp)
		}
	}
	return out
}
