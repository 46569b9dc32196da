package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Place is venue detail returned by a place lookup.
type Place struct {
	FormattedAddress string   `json:"formatted_address"`
	Phone            string   `json:"phone"`
	Website          string   `json:"website"`
	Rating           *float64 `json:"rating"`
	Hours            []string `json:"hours"`
}

// PlaceLookup finds details for a venue name. A nil place with a nil error
// means nothing matched.
type PlaceLookup interface {
	Lookup(ctx context.Context, name string) (*Place, error)
}

// HTTPPlaceLookup queries a JSON places endpoint.
type HTTPPlaceLookup struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPPlaceLookup creates an HTTPPlaceLookup.
func NewHTTPPlaceLookup(baseURL, apiKey string, timeout time.Duration) *HTTPPlaceLookup {
	return &HTTPPlaceLookup{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Lookup returns the first result for name.
func (l *HTTPPlaceLookup) Lookup(ctx context.Context, name string) (*Place, error) {
	u, err := url.Parse(l.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid places url: %w", err)
	}
	q := u.Query()
	q.Set("query", name)
	if l.apiKey != "" {
		q.Set("key", l.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("place lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("place lookup returned status %d", resp.StatusCode)
	}

	var body struct {
		Results []Place `json:"results"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("malformed place lookup response: %w", err)
	}
	if len(body.Results) == 0 {
		return nil, nil
	}
	return &body.Results[0], nil
}
