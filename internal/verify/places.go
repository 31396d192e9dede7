package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leadforgehq/intake-platform/pkg/logging"
)

// PlaceSuggestion is one autocomplete candidate.
type PlaceSuggestion struct {
	PlaceID       string `json:"placeId"`
	MainText      string `json:"mainText"`
	SecondaryText string `json:"secondaryText"`
	FullText      string `json:"fullText"`
}

// PlaceDetails is the resolved business/address record for one place ID.
type PlaceDetails struct {
	PlaceID          string  `json:"placeId"`
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formattedAddress"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
	Latitude         float64 `json:"lat,omitempty"`
	Longitude        float64 `json:"lng,omitempty"`
}

// PlacesLookup resolves business names and addresses.
type PlacesLookup interface {
	Autocomplete(ctx context.Context, input string) ([]PlaceSuggestion, error)
	Details(ctx context.Context, placeID string) (*PlaceDetails, error)
}

// PlacesClient talks to the Google Places REST API.
type PlacesClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewPlacesClient creates a places lookup client.
func NewPlacesClient(baseURL, apiKey string, logger *logging.Logger) *PlacesClient {
	if logger == nil {
		logger = logging.Default()
	}
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/place"
	}
	return &PlacesClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Configured reports whether a places collaborator is wired up.
func (c *PlacesClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Autocomplete returns business suggestions for a partial query.
func (c *PlacesClient) Autocomplete(ctx context.Context, input string) ([]PlaceSuggestion, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("input", input)
	q.Set("types", "establishment")
	q.Set("components", "country:us")

	var parsed struct {
		Status      string `json:"status"`
		Predictions []struct {
			PlaceID              string `json:"place_id"`
			Description          string `json:"description"`
			StructuredFormatting struct {
				MainText      string `json:"main_text"`
				SecondaryText string `json:"secondary_text"`
			} `json:"structured_formatting"`
		} `json:"predictions"`
	}
	if err := c.get(ctx, "/autocomplete/json?"+q.Encode(), &parsed); err != nil {
		return nil, err
	}
	if parsed.Status != "OK" && parsed.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("verify: places status %s", parsed.Status)
	}

	out := make([]PlaceSuggestion, 0, len(parsed.Predictions))
	for _, p := range parsed.Predictions {
		out = append(out, PlaceSuggestion{
			PlaceID:       p.PlaceID,
			MainText:      p.StructuredFormatting.MainText,
			SecondaryText: p.StructuredFormatting.SecondaryText,
			FullText:      p.Description,
		})
	}
	return out, nil
}

// Details resolves one place ID to its name and address.
func (c *PlacesClient) Details(ctx context.Context, placeID string) (*PlaceDetails, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, fmt.Errorf("verify: place id is required")
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("place_id", placeID)
	q.Set("fields", "name,formatted_address,address_components,geometry")

	var parsed struct {
		Status string `json:"status"`
		Result struct {
			Name              string `json:"name"`
			FormattedAddress  string `json:"formatted_address"`
			AddressComponents []struct {
				LongName  string   `json:"long_name"`
				ShortName string   `json:"short_name"`
				Types     []string `json:"types"`
			} `json:"address_components"`
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"result"`
	}
	if err := c.get(ctx, "/details/json?"+q.Encode(), &parsed); err != nil {
		return nil, err
	}
	if parsed.Status != "OK" {
		return nil, fmt.Errorf("verify: places status %s", parsed.Status)
	}

	details := &PlaceDetails{
		PlaceID:          placeID,
		Name:             parsed.Result.Name,
		FormattedAddress: parsed.Result.FormattedAddress,
		Latitude:         parsed.Result.Geometry.Location.Lat,
		Longitude:        parsed.Result.Geometry.Location.Lng,
	}
	for _, comp := range parsed.Result.AddressComponents {
		for _, typ := range comp.Types {
			switch typ {
			case "locality":
				details.City = comp.LongName
			case "administrative_area_level_1":
				details.State = comp.ShortName
			}
		}
	}
	return details, nil
}

func (c *PlacesClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("verify: places request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("verify: places http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("verify: places api status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("verify: places decode: %w", err)
	}
	return nil
}
