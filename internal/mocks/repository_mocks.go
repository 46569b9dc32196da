// Package mocks holds testify mocks for the repository and service
// interfaces. It is for tests only: it is imported from _test.go files and
// never from production code.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/repository"
)

// MockTenantRepository implements repository.TenantRepository
type MockTenantRepository struct {
	mock.Mock
}

// Create creates a new tenant
func (m *MockTenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

// GetByID retrieves a tenant by its ID
func (m *MockTenantRepository) GetByID(ctx context.Context, id uint) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

// GetBySlug retrieves a tenant by its slug
func (m *MockTenantRepository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

// Upsert inserts or refreshes a tenant
func (m *MockTenantRepository) Upsert(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

// List returns all tenants
func (m *MockTenantRepository) List(ctx context.Context) ([]models.Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tenant), args.Error(1)
}

// MockBookingRepository implements repository.BookingRepository
type MockBookingRepository struct {
	mock.Mock
}

// Create creates a new booking
func (m *MockBookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

// GetByID retrieves a booking by its ID
func (m *MockBookingRepository) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

// FindRecent returns recent bookings sharing a duplicate key
func (m *MockBookingRepository) FindRecent(ctx context.Context, tenantID uint, duplicateKey string, since time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, tenantID, duplicateKey, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

// ListPlaceholderDue returns placeholder-dated bookings due for review
func (m *MockBookingRepository) ListPlaceholderDue(ctx context.Context, createdBefore time.Time, limit int) ([]models.Booking, error) {
	args := m.Called(ctx, createdBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

// MarkPlaceholderReviewed stamps a booking as swept
func (m *MockBookingRepository) MarkPlaceholderReviewed(ctx context.Context, id uint, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockReviewRepository implements repository.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

// Create creates a new review message
func (m *MockReviewRepository) Create(ctx context.Context, review *models.ReviewMessage) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

// GetByID retrieves a review message by its ID
func (m *MockReviewRepository) GetByID(ctx context.Context, id uint) (*models.ReviewMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewMessage), args.Error(1)
}

// List retrieves review messages with pagination
func (m *MockReviewRepository) List(ctx context.Context, filter repository.ReviewFilter, limit, offset int) ([]models.ReviewListItem, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.ReviewListItem), args.Get(1).(int64), args.Error(2)
}

// FindRecent returns recent review messages sharing a duplicate key
func (m *MockReviewRepository) FindRecent(ctx context.Context, tenantID uint, duplicateKey string, since time.Time) ([]models.ReviewMessage, error) {
	args := m.Called(ctx, tenantID, duplicateKey, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReviewMessage), args.Error(1)
}

// UpdateStatus records a review action
func (m *MockReviewRepository) UpdateStatus(ctx context.Context, id uint, status string, bookingID *uint) error {
	args := m.Called(ctx, id, status, bookingID)
	return args.Error(0)
}
