// Package geocode resolves free-text addresses to coordinates.
//
// All resolution failures are one of three concrete error types:
// MissingCredentialError, ProviderRejectedError or TransportError. Callers
// treat any of them as "no usable location" and carry on without distance
// ranking; IsFailure tells those apart from other errors such as a
// cancelled context.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"provider-finder/internal/models"
)

// Geocoder resolves an address to a single coordinate.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (models.Coordinate, error)
}

// GeocoderFunc adapts a function to Geocoder.
type GeocoderFunc func(ctx context.Context, address string) (models.Coordinate, error)

func (f GeocoderFunc) Resolve(ctx context.Context, address string) (models.Coordinate, error) {
	return f(ctx, address)
}

type MissingCredentialError struct{}

func (e *MissingCredentialError) Error() string {
	return "geocoding API key missing"
}

// ProviderRejectedError carries the non-OK status the service answered with,
// e.g. ZERO_RESULTS or REQUEST_DENIED.
type ProviderRejectedError struct {
	Status string
}

func (e *ProviderRejectedError) Error() string {
	return fmt.Sprintf("geocoding failed: %s", e.Status)
}

// TransportError covers network errors, timeouts, undecodable responses and
// an open circuit breaker.
type TransportError struct {
	Detail string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geocoding request failed: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("geocoding request failed: %s", e.Detail)
}

func (e *TransportError) Unwrap() error { return e.Err }

const (
	KindMissingCredential = "missing-credential"
	KindProviderRejected  = "provider-rejected"
	KindTransport         = "transport"
)

// Kind names the failure class of err, or "" if err is not a geocode failure.
func Kind(err error) string {
	var (
		mc *MissingCredentialError
		pr *ProviderRejectedError
		te *TransportError
	)
	switch {
	case errors.As(err, &mc):
		return KindMissingCredential
	case errors.As(err, &pr):
		return KindProviderRejected
	case errors.As(err, &te):
		return KindTransport
	}
	return ""
}

// IsFailure reports whether err is a geocode failure, which callers recover
// from by ranking without a location.
func IsFailure(err error) bool {
	return Kind(err) != ""
}
