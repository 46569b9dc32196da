package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantRepository defines the interface for tenant data access
type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uint) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	Upsert(ctx context.Context, tenant *models.Tenant) error
	List(ctx context.Context) ([]models.Tenant, error)
}

// tenantRepository implements TenantRepository using GORM
type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new TenantRepository instance
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

// Create creates a new tenant
func (r *tenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	result := r.db.WithContext(ctx).Create(tenant)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("tenant with slug '%s' already exists: %w", tenant.Slug, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create tenant: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a tenant by its ID
func (r *tenantRepository) GetByID(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	result := r.db.WithContext(ctx).First(&tenant, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant by ID: %w", result.Error)
	}
	return &tenant, nil
}

// GetBySlug retrieves a tenant by its routable local-part
func (r *tenantRepository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	var tenant models.Tenant
	result := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tenant)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant by slug: %w", result.Error)
	}
	return &tenant, nil
}

// Upsert inserts the tenant or refreshes name, email and flags of an existing
// tenant with the same slug. The tenant's ID is populated on return.
func (r *tenantRepository) Upsert(ctx context.Context, tenant *models.Tenant) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "is_active", "is_admin", "updated_at"}),
	}).Create(tenant)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert tenant: %w", result.Error)
	}
	if tenant.ID == 0 {
		existing, err := r.GetBySlug(ctx, tenant.Slug)
		if err != nil {
			return err
		}
		tenant.ID = existing.ID
	}
	return nil
}

// List returns all tenants ordered by slug
func (r *tenantRepository) List(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := r.db.WithContext(ctx).Order("slug ASC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}
