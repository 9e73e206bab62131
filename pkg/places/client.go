// Package places is a thin client for the Google Places API (New, v1).
// It exposes the two lookups the grouping pipeline depends on: nearby
// search around a point and free-text search. Optional response fields may
// be absent; callers must tolerate zero values.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/tapdeck/groupgen/internal/resilience"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// fieldMask lists the place fields the pipeline reads. Requesting more
// inflates the per-call billing SKU.
const fieldMask = "places.id,places.displayName,places.location,places.types," +
	"places.rating,places.userRatingCount,places.businessStatus,places.formattedAddress"

// RankPreference controls nearby search result ordering.
type RankPreference string

const (
	RankByPopularity RankPreference = "POPULARITY"
	RankByDistance   RankPreference = "DISTANCE"
)

// Client performs place lookups.
type Client interface {
	SearchNearby(ctx context.Context, req NearbyRequest) ([]Place, error)
	SearchText(ctx context.Context, req TextRequest) ([]Place, error)
}

// NearbyRequest describes a nearby search around a center point.
type NearbyRequest struct {
	Latitude      float64
	Longitude     float64
	RadiusMeters  int
	IncludedTypes []string
	MaxResults    int
	Rank          RankPreference
}

// TextRequest describes a free-text search biased toward a center point.
type TextRequest struct {
	Query        string
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	MaxResults   int
}

// Place is a venue returned by the API. Rating, UserRatingCount and
// BusinessStatus are omitted by the service for some places.
type Place struct {
	ID               string      `json:"id"`
	DisplayName      DisplayName `json:"displayName"`
	Location         Location    `json:"location"`
	Types            []string    `json:"types"`
	Rating           float64     `json:"rating"`
	UserRatingCount  int         `json:"userRatingCount"`
	BusinessStatus   string      `json:"businessStatus"`
	FormattedAddress string      `json:"formattedAddress"`
}

// DisplayName holds the place's localized display name.
type DisplayName struct {
	Text string `json:"text"`
}

// Location is the place's coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type circle struct {
	Center Location `json:"center"`
	Radius float64  `json:"radius"`
}

type locationRestriction struct {
	Circle circle `json:"circle"`
}

type nearbySearchRequest struct {
	IncludedTypes       []string            `json:"includedTypes,omitempty"`
	MaxResultCount      int                 `json:"maxResultCount,omitempty"`
	RankPreference      RankPreference      `json:"rankPreference,omitempty"`
	LocationRestriction locationRestriction `json:"locationRestriction"`
}

type textSearchRequest struct {
	TextQuery      string               `json:"textQuery"`
	MaxResultCount int                  `json:"maxResultCount,omitempty"`
	LocationBias   *locationRestriction `json:"locationBias,omitempty"`
}

type searchResponse struct {
	Places []Place `json:"places"`
}

func (c *httpClient) SearchNearby(ctx context.Context, req NearbyRequest) ([]Place, error) {
	body := nearbySearchRequest{
		IncludedTypes:  req.IncludedTypes,
		MaxResultCount: req.MaxResults,
		RankPreference: req.Rank,
		LocationRestriction: locationRestriction{
			Circle: circle{
				Center: Location{Latitude: req.Latitude, Longitude: req.Longitude},
				Radius: float64(req.RadiusMeters),
			},
		},
	}
	return c.search(ctx, "/places:searchNearby", body)
}

func (c *httpClient) SearchText(ctx context.Context, req TextRequest) ([]Place, error) {
	body := textSearchRequest{
		TextQuery:      req.Query,
		MaxResultCount: req.MaxResults,
	}
	if req.RadiusMeters > 0 {
		body.LocationBias = &locationRestriction{
			Circle: circle{
				Center: Location{Latitude: req.Latitude, Longitude: req.Longitude},
				Radius: float64(req.RadiusMeters),
			},
		}
	}
	return c.search(ctx, "/places:searchText", body)
}

func (c *httpClient) search(ctx context.Context, path string, reqBody any) ([]Place, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "places: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}

	return result.Places, nil
}
