// Package geocode resolves map coordinates to postal addresses through a
// Nominatim compatible service.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrRateLimited      = errors.New("geocoding rate limit exceeded")
)

// Geocoder turns coordinates into an address.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*model.PostalAddress, error)
}

type nominatimResponse struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

type nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a Nominatim client. A nil httpClient gets a client with a ten
// second timeout.
func New(cfg config.GeocodingConfig, httpClient *http.Client, logger zerolog.Logger) Geocoder {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &nominatim{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "geocode").Logger(),
	}
}

// ValidCoordinates reports whether lat and lon are on the globe.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func (n *nominatim) Reverse(ctx context.Context, lat, lon float64) (*model.PostalAddress, error) {
	if !ValidCoordinates(lat, lon) {
		return nil, model.ErrInvalidCoordinates
	}

	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	query.Set("format", "json")
	query.Set("addressdetails", "1")
	reqURL := n.baseURL + "/reverse?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call geocoding service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrLocationNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("geocoding service returned status %d", resp.StatusCode)
	}

	var result nominatimResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, result.Error)
	}

	addr := &model.PostalAddress{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: result.DisplayName,
		PostalCode:  result.Address["postcode"],
		City:        extractCity(result.Address),
		State:       result.Address["state"],
		Country:     result.Address["country"],
	}

	n.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Str("city", addr.City).
		Msg("reverse geocoded coordinates")
	return addr, nil
}

// Nominatim names the locality differently depending on its size.
func extractCity(address map[string]string) string {
	for _, field := range []string{"city", "town", "village", "municipality", "locality"} {
		if city := address[field]; city != "" {
			return city
		}
	}
	return ""
}
