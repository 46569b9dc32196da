package tenant

import (
	"context"
	"fmt"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/config"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/repository"
)

// Seed upserts the given tenants and makes sure the admin tenant exists.
func Seed(ctx context.Context, repo repository.TenantRepository, seeds []config.TenantSeed, adminSlug string) error {
	hasAdmin := false
	for _, s := range seeds {
		t := &models.Tenant{
			Slug:     s.Slug,
			Name:     s.Name,
			Email:    s.Email,
			IsActive: s.IsActive(),
			IsAdmin:  s.Admin || s.Slug == adminSlug,
		}
		if err := repo.Upsert(ctx, t); err != nil {
			return fmt.Errorf("failed to seed tenant %q: %w", s.Slug, err)
		}
		if s.Slug == adminSlug {
			hasAdmin = true
		}
	}

	if hasAdmin {
		return nil
	}
	admin := &models.Tenant{Slug: adminSlug, Name: "Administration", IsActive: true, IsAdmin: true}
	if err := repo.Upsert(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin tenant: %w", err)
	}
	return nil
}
