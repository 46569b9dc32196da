package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// maxResponseBytes caps how much of a service response is read.
const maxResponseBytes = 1 << 20

// Service is the external structured-extraction capability.
type Service interface {
	Extract(ctx context.Context, req Request) (Raw, error)
}

// HTTPServiceConfig configures an HTTPService. When TokenURL is set requests
// are authorized with an OAuth2 client-credentials token.
type HTTPServiceConfig struct {
	URL          string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Timeout      time.Duration
}

// HTTPService calls an extraction endpoint over HTTP with a JSON body.
type HTTPService struct {
	url    string
	client *http.Client
}

// NewHTTPService creates an HTTPService.
func NewHTTPService(cfg HTTPServiceConfig) *HTTPService {
	client := &http.Client{}
	if cfg.TokenURL != "" {
		creds := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		client = creds.Client(context.Background())
	}
	client.Timeout = cfg.Timeout
	return &HTTPService{url: cfg.URL, client: client}
}

type serviceRequest struct {
	Text         string `json:"text"`
	ContactHint  string `json:"contact_hint,omitempty"`
	LocationHint string `json:"location_hint,omitempty"`
	TenantID     uint   `json:"tenant_id"`
	SubjectHint  string `json:"subject_hint,omitempty"`
}

// Extract posts the request and decodes the returned field map.
func (s *HTTPService) Extract(ctx context.Context, req Request) (Raw, error) {
	body, err := json.Marshal(serviceRequest{
		Text:         req.Text,
		ContactHint:  req.ContactHint,
		LocationHint: req.LocationHint,
		TenantID:     req.TenantID,
		SubjectHint:  req.SubjectHint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode extraction request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("extraction service returned status %d", resp.StatusCode)
	}
	return DecodeRaw(data)
}

// DecodeRaw accepts a bare JSON object, {"data": {...}}, or
// {"output": "<json text, possibly in a code fence>"}.
func DecodeRaw(data []byte) (Raw, error) {
	var envelope map[string]any
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("malformed extraction response: %w", err)
	}
	if inner, ok := envelope["data"].(map[string]any); ok {
		return Raw(inner), nil
	}
	if out, ok := envelope["output"].(string); ok {
		return decodeEmbedded(out)
	}
	if len(envelope) == 0 {
		return nil, errors.New("empty extraction response")
	}
	return Raw(envelope), nil
}

func decodeEmbedded(text string) (Raw, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.New("extraction output contains no JSON object")
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("malformed extraction output: %w", err)
	}
	return Raw(raw), nil
}
