package geocode

import (
	"context"
	"errors"
	"log/slog"
	"provider-finder/internal/models"
	"time"

	"github.com/sony/gobreaker"
)

type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	ReadyToTripRatio float64
}

// Breaker stops calling a failing upstream for a while. Only transport
// failures count: a ZERO_RESULTS answer means the service is up.
type Breaker struct {
	next Geocoder
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(name string, next Geocoder, cfg BreakerSettings, log *slog.Logger) *Breaker {
	if log == nil {
		log = slog.Default()
	}
	ratio := cfg.ReadyToTripRatio
	if ratio <= 0 {
		ratio = 0.6
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= ratio
		},
		IsSuccessful: func(err error) bool {
			var te *TransportError
			return err == nil || !errors.As(err, &te)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("geocoder circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *Breaker) Resolve(ctx context.Context, address string) (models.Coordinate, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Resolve(ctx, address)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return models.Coordinate{}, &TransportError{Detail: "geocoder unavailable", Err: err}
		}
		return models.Coordinate{}, err
	}
	return res.(models.Coordinate), nil
}

// State reports the breaker state, e.g. "closed" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}
