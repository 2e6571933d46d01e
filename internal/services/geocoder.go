package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrAddressLookup is returned when the reverse geocoder cannot answer.
var ErrAddressLookup = errors.New("failed to fetch address data")

// AddressSuggestion holds the delivery form fields derived from a map pin.
// Empty fields mean the geocoder had nothing to offer for them.
type AddressSuggestion struct {
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Pincode     string `json:"pincode,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

type nominatimAddress struct {
	Road          string `json:"road"`
	HouseNumber   string `json:"house_number"`
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	Hamlet        string `json:"hamlet"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	State         string `json:"state"`
	Postcode      string `json:"postcode"`
}

type nominatimResponse struct {
	DisplayName string            `json:"display_name"`
	Address     *nominatimAddress `json:"address"`
}

// GeocoderClient resolves coordinates through a Nominatim compatible API.
type GeocoderClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*nominatimResponse]
}

// NewGeocoderClient creates a GeocoderClient against baseURL.
func NewGeocoderClient(baseURL string) *GeocoderClient {
	return &GeocoderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[*nominatimResponse](gobreaker.Settings{
			Name:    "geocoder",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// Reverse looks up the address at lat/lng.
func (g *GeocoderClient) Reverse(ctx context.Context, lat, lng float64) (AddressSuggestion, error) {
	data, err := g.breaker.Execute(func() (*nominatimResponse, error) {
		return g.fetch(ctx, lat, lng)
	})
	if err != nil {
		return AddressSuggestion{}, errors.Join(ErrAddressLookup, err)
	}

	suggestion := AddressSuggestion{DisplayName: data.DisplayName}
	if data.Address == nil {
		return suggestion, nil
	}

	addr := data.Address
	var parts []string
	for _, part := range []string{addr.Road, addr.HouseNumber, addr.Suburb, addr.Neighbourhood, addr.Hamlet} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	suggestion.Address = strings.Join(parts, ", ")
	suggestion.City = firstNonEmpty(addr.City, addr.Town, addr.Village)
	suggestion.State = addr.State
	suggestion.Pincode = addr.Postcode

	return suggestion, nil
}

func (g *GeocoderClient) fetch(ctx context.Context, lat, lng float64) (*nominatimResponse, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Carcino AI Application")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Status: resp.StatusCode, Detail: http.StatusText(resp.StatusCode)}
	}

	var data nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
