package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const DefaultORSBaseURL = "https://api.openrouteservice.org"

// StoreOrigin is the store location in Envigado.
var StoreOrigin = Coordinates{-75.5859624, 6.1713705}

// Geocoder search is biased to a 50 km circle around Medellín.
var searchFocus = Coordinates{-75.56, 6.25}

const searchRadiusKm = 50

// ORSClient resolves driving distances with OpenRouteService: geocode the address, then query the
// distance matrix between the store and the geocoded point.
type ORSClient struct {
	baseURL string
	apiKey  string
	origin  Coordinates
	http    *http.Client
	logger  *zap.Logger
}

type ORSOption func(*ORSClient)

func WithBaseURL(u string) ORSOption {
	return func(c *ORSClient) { c.baseURL = u }
}

func WithOrigin(o Coordinates) ORSOption {
	return func(c *ORSClient) { c.origin = o }
}

func WithHTTPClient(h *http.Client) ORSOption {
	return func(c *ORSClient) { c.http = h }
}

func NewORSClient(apiKey string, logger *zap.Logger, opts ...ORSOption) *ORSClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &ORSClient{
		baseURL: DefaultORSBaseURL,
		apiKey:  apiKey,
		origin:  StoreOrigin,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label string `json:"label"`
		} `json:"properties"`
	} `json:"features"`
}

type matrixRequest struct {
	Locations []Coordinates `json:"locations"`
	Metrics   []string      `json:"metrics"`
	Units     string        `json:"units"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
}

func (c *ORSClient) Distance(ctx context.Context, address string) (float64, error) {
	if c.apiKey == "" {
		return 0, ErrLookupDisabled
	}

	dest, err := c.geocode(ctx, address)
	if err != nil {
		return 0, err
	}
	return c.matrix(ctx, dest)
}

func (c *ORSClient) geocode(ctx context.Context, address string) (Coordinates, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("text", address)
	q.Set("boundary.country", "CO")
	q.Set("focus.point.lon", ftoa(searchFocus[0]))
	q.Set("focus.point.lat", ftoa(searchFocus[1]))
	q.Set("boundary.circle.lon", ftoa(searchFocus[0]))
	q.Set("boundary.circle.lat", ftoa(searchFocus[1]))
	q.Set("boundary.circle.radius", strconv.Itoa(searchRadiusKm))
	q.Set("size", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/geocode/search?"+q.Encode(), nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("build geocode request: %w", err)
	}

	var out geocodeResponse
	if err := c.do(req, &out); err != nil {
		return Coordinates{}, fmt.Errorf("geocode: %w", err)
	}
	if len(out.Features) == 0 || len(out.Features[0].Geometry.Coordinates) < 2 {
		return Coordinates{}, ErrNoGeocodeResult
	}

	f := out.Features[0]
	c.logger.Debug("address geocoded",
		zap.String("label", f.Properties.Label),
		zap.Float64s("coordinates", f.Geometry.Coordinates))
	return Coordinates{f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]}, nil
}

func (c *ORSClient) matrix(ctx context.Context, dest Coordinates) (float64, error) {
	body, err := json.Marshal(matrixRequest{
		Locations: []Coordinates{c.origin, dest},
		Metrics:   []string{"distance"},
		Units:     "km",
	})
	if err != nil {
		return 0, fmt.Errorf("marshal matrix request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/matrix/driving-car", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build matrix request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out matrixResponse
	if err := c.do(req, &out); err != nil {
		return 0, fmt.Errorf("matrix: %w", err)
	}
	if len(out.Distances) == 0 || len(out.Distances[0]) < 2 || out.Distances[0][1] == nil {
		return 0, ErrNoRoute
	}
	return *out.Distances[0][1], nil
}

func (c *ORSClient) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
