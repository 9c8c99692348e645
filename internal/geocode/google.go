package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"provider-finder/internal/models"
	"time"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"
	DefaultTimeout = 15 * time.Second
)

// Client calls the Google Geocoding JSON API.
type Client struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	http    *http.Client
}

type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request. Non-positive values keep the default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Only the fields the adapter relies on.
type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (c *Client) Resolve(ctx context.Context, address string) (models.Coordinate, error) {
	if c.apiKey == "" {
		return models.Coordinate{}, &MissingCredentialError{}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return models.Coordinate{}, &TransportError{Detail: "build request", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Surface cancellation by the caller as-is; everything else,
		// including our own timeout, is a transport failure.
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
			return models.Coordinate{}, ctxErr
		}
		return models.Coordinate{}, &TransportError{Detail: "request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.Coordinate{}, &TransportError{Detail: "read response", Err: err}
	}

	var data geocodeResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return models.Coordinate{}, &TransportError{
			Detail: fmt.Sprintf("decode response (HTTP %d)", resp.StatusCode),
			Err:    err,
		}
	}

	if data.Status != "OK" {
		return models.Coordinate{}, &ProviderRejectedError{Status: data.Status}
	}
	if len(data.Results) == 0 {
		return models.Coordinate{}, &TransportError{Detail: "status OK without results"}
	}

	loc := data.Results[0].Geometry.Location
	coord := models.Coordinate{Lat: loc.Lat, Lon: loc.Lng}
	if !coord.Valid() {
		return models.Coordinate{}, &TransportError{Detail: fmt.Sprintf("invalid coordinate %v,%v", loc.Lat, loc.Lng)}
	}
	return coord, nil
}
