package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/extraction"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
)

// MockExtractionService implements extraction.Service
type MockExtractionService struct {
	mock.Mock
}

// Extract returns the configured raw field map
func (m *MockExtractionService) Extract(ctx context.Context, req extraction.Request) (extraction.Raw, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(extraction.Raw), args.Error(1)
}

// MockPlaceLookup implements extraction.PlaceLookup
type MockPlaceLookup struct {
	mock.Mock
}

// Lookup returns the configured place
func (m *MockPlaceLookup) Lookup(ctx context.Context, name string) (*extraction.Place, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*extraction.Place), args.Error(1)
}

// MockQuotaTracker implements quota.Tracker
type MockQuotaTracker struct {
	mock.Mock
}

// TryConsume returns the configured allowance
func (m *MockQuotaTracker) TryConsume(ctx context.Context, tenantID uint, capability string) (bool, error) {
	args := m.Called(ctx, tenantID, capability)
	return args.Bool(0), args.Error(1)
}

// MockNotifier implements review.Notifier
type MockNotifier struct {
	mock.Mock
}

// NotifyReview records the notification
func (m *MockNotifier) NotifyReview(ctx context.Context, tenant *models.Tenant, review *models.ReviewMessage) error {
	args := m.Called(ctx, tenant, review)
	return args.Error(0)
}
