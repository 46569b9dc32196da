// Package tenant maps inbound recipient addresses to owning tenant accounts.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/welldanyogia/webrana-gigbook-backend/internal/errors"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/repository"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/validator"
)

// Directory is the tenant lookup the resolver needs.
type Directory interface {
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
}

// Resolver resolves recipient addresses to active tenants.
type Resolver struct {
	dir       Directory
	adminSlug string
	logger    *slog.Logger
}

// NewResolver creates a Resolver. adminSlug names the tenant that receives
// messages nobody else owns.
func NewResolver(dir Directory, adminSlug string, logger *slog.Logger) *Resolver {
	return &Resolver{
		dir:       dir,
		adminSlug: strings.ToLower(adminSlug),
		logger:    logger.With(slog.String("component", "tenant_resolver")),
	}
}

// LocalPart extracts the routable local-part from a recipient address. Display
// names and "+tag" sub-addresses are dropped.
func LocalPart(recipient string) (string, error) {
	address, _, err := validator.ParseAddress(recipient)
	if err != nil {
		address = strings.ToLower(strings.TrimSpace(recipient))
	}
	local, _, err := validator.SplitAddress(address)
	if err != nil {
		return "", err
	}
	if plus := strings.IndexByte(local, '+'); plus > 0 {
		local = local[:plus]
	}
	if err := validator.ValidateLocalPart(local); err != nil {
		return "", err
	}
	return local, nil
}

// Resolve returns the active tenant owning recipient, or an error wrapping
// ErrTenantNotFound.
func (r *Resolver) Resolve(ctx context.Context, recipient string) (*models.Tenant, error) {
	local, err := LocalPart(recipient)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrTenantNotFound, "tenant not found: unroutable recipient %q", recipient)
	}

	t, err := r.dir.GetBySlug(ctx, local)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Newf(apperrors.ErrTenantNotFound, "tenant not found for recipient %q", recipient)
		}
		return nil, fmt.Errorf("%w: failed to look up tenant %q: %w", apperrors.ErrTenantNotFound, local, err)
	}
	if !t.IsActive {
		r.logger.Warn("recipient belongs to inactive tenant", slog.String("tenant", t.Slug))
		return nil, apperrors.Newf(apperrors.ErrTenantNotFound, "tenant %q is inactive", t.Slug)
	}
	return t, nil
}

// Admin returns the administrative tenant used for unroutable messages.
func (r *Resolver) Admin(ctx context.Context) (*models.Tenant, error) {
	t, err := r.dir.GetBySlug(ctx, r.adminSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin tenant %q: %w", r.adminSlug, err)
	}
	return t, nil
}
