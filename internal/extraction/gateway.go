package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/welldanyogia/webrana-gigbook-backend/internal/errors"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/quota"
)

// Default timeouts for the two network calls an extraction can make.
const (
	DefaultTimeout      = 20 * time.Second
	DefaultPlaceTimeout = 5 * time.Second
)

// GatewayConfig holds Gateway timeouts.
type GatewayConfig struct {
	Timeout      time.Duration
	PlaceTimeout time.Duration
}

// Gateway fronts the extraction service: it enforces the tenant quota,
// bounds the call, coerces and re-checks the output and optionally enriches
// the venue.
type Gateway struct {
	service      Service
	quota        quota.Tracker
	places       PlaceLookup
	timeout      time.Duration
	placeTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// NewGateway creates a Gateway. service and places may be nil: without a
// service every call is unavailable, without places there is no enrichment.
func NewGateway(service Service, tracker quota.Tracker, places PlaceLookup, cfg GatewayConfig, logger *slog.Logger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PlaceTimeout <= 0 {
		cfg.PlaceTimeout = DefaultPlaceTimeout
	}
	return &Gateway{
		service:      service,
		quota:        tracker,
		places:       places,
		timeout:      cfg.Timeout,
		placeTimeout: cfg.PlaceTimeout,
		now:          time.Now,
		logger:       logger.With(slog.String("component", "extraction_gateway")),
	}
}

// Extract runs an intelligent extraction. Any failure, including an
// exhausted quota, is returned as an error wrapping ErrExtractionUnavailable
// so the caller can fall back.
func (g *Gateway) Extract(ctx context.Context, req Request) (*Result, error) {
	if g.service == nil {
		return nil, apperrors.Newf(apperrors.ErrExtractionUnavailable, "extraction service not configured")
	}

	if g.quota != nil {
		allowed, err := g.quota.TryConsume(ctx, req.TenantID, quota.CapabilityExtraction)
		if err != nil {
			g.logger.Warn("quota check failed, skipping extraction service",
				slog.Uint64("tenant_id", uint64(req.TenantID)),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("%w: quota check failed: %w", apperrors.ErrExtractionUnavailable, err)
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrExtractionUnavailable, apperrors.ErrQuotaExhausted)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	raw, err := g.service.Extract(callCtx, req)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExtractionUnavailable, err)
	}

	result := Coerce(raw, g.now())
	Revalidate(result, req.Text)
	g.enrich(ctx, result)
	return result, nil
}

func (g *Gateway) enrich(ctx context.Context, r *Result) {
	if g.places == nil || !r.HasVenue() {
		return
	}
	lookupCtx, cancel := context.WithTimeout(ctx, g.placeTimeout)
	defer cancel()

	place, err := g.places.Lookup(lookupCtx, *r.Venue)
	if err != nil {
		g.logger.Info("venue lookup failed", slog.String("venue", *r.Venue), slog.String("error", err.Error()))
		return
	}
	if place == nil {
		return
	}
	if r.VenueAddress == nil {
		r.VenueAddress = StrPtr(place.FormattedAddress)
	}
	if place.FormattedAddress != "" {
		r.SetMeta("venue_address", place.FormattedAddress)
	}
	if place.Phone != "" {
		r.SetMeta("venue_phone", place.Phone)
	}
	if place.Website != "" {
		r.SetMeta("venue_website", place.Website)
	}
	if place.Rating != nil {
		r.SetMeta("venue_rating", *place.Rating)
	}
	if len(place.Hours) > 0 {
		r.SetMeta("venue_hours", place.Hours)
	}
}
