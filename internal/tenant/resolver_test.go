package tenant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/config"
	apperrors "github.com/welldanyogia/webrana-gigbook-backend/internal/errors"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/mocks"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocalPart(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"jazzduo@in.gigbook.test", "jazzduo", false},
		{"The Jazz Duo <JazzDuo@in.gigbook.test>", "jazzduo", false},
		{"jazzduo+weddings@in.gigbook.test", "jazzduo", false},
		{"", "", true},
		{"@in.gigbook.test", "", true},
		{"bad!chars@in.gigbook.test", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := LocalPart(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Found(t *testing.T) {
	// Arrange
	dir := new(mocks.MockTenantRepository)
	dir.On("GetBySlug", mock.Anything, "jazzduo").Return(&models.Tenant{ID: 7, Slug: "jazzduo", IsActive: true}, nil)
	r := NewResolver(dir, "admin", discardLogger())

	// Act
	tenant, err := r.Resolve(context.Background(), "jazzduo+web@in.gigbook.test")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(7), tenant.ID)
	dir.AssertExpectations(t)
}

func TestResolve_NotFound(t *testing.T) {
	dir := new(mocks.MockTenantRepository)
	dir.On("GetBySlug", mock.Anything, "nobody").Return(nil, repository.ErrNotFound)
	r := NewResolver(dir, "admin", discardLogger())

	_, err := r.Resolve(context.Background(), "nobody@in.gigbook.test")

	assert.True(t, errors.Is(err, apperrors.ErrTenantNotFound))
	assert.Equal(t, apperrors.CodeTenantNotFound, apperrors.GetErrorCode(err))
}

func TestResolve_InactiveTenant(t *testing.T) {
	dir := new(mocks.MockTenantRepository)
	dir.On("GetBySlug", mock.Anything, "retired").Return(&models.Tenant{ID: 3, Slug: "retired", IsActive: false}, nil)
	r := NewResolver(dir, "admin", discardLogger())

	_, err := r.Resolve(context.Background(), "retired@in.gigbook.test")

	assert.True(t, errors.Is(err, apperrors.ErrTenantNotFound))
}

func TestResolve_StoreErrorIsTenantNotFound(t *testing.T) {
	dir := new(mocks.MockTenantRepository)
	dir.On("GetBySlug", mock.Anything, "jazzduo").Return(nil, errors.New("connection refused"))
	r := NewResolver(dir, "admin", discardLogger())

	_, err := r.Resolve(context.Background(), "jazzduo@in.gigbook.test")

	assert.True(t, errors.Is(err, apperrors.ErrTenantNotFound))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestResolve_UnroutableRecipient(t *testing.T) {
	dir := new(mocks.MockTenantRepository)
	r := NewResolver(dir, "admin", discardLogger())

	_, err := r.Resolve(context.Background(), "")

	assert.True(t, errors.Is(err, apperrors.ErrTenantNotFound))
	dir.AssertNotCalled(t, "GetBySlug", mock.Anything, mock.Anything)
}

func TestAdmin(t *testing.T) {
	dir := new(mocks.MockTenantRepository)
	dir.On("GetBySlug", mock.Anything, "admin").Return(&models.Tenant{ID: 1, Slug: "admin", IsAdmin: true}, nil)
	r := NewResolver(dir, "Admin", discardLogger())

	admin, err := r.Admin(context.Background())

	require.NoError(t, err)
	assert.Equal(t, uint(1), admin.ID)
}

func TestSeed_AddsAdminWhenMissing(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(t *models.Tenant) bool {
		return t.Slug == "jazzduo" && t.IsActive && !t.IsAdmin
	})).Return(nil).Once()
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(t *models.Tenant) bool {
		return t.Slug == "admin" && t.IsAdmin
	})).Return(nil).Once()

	err := Seed(context.Background(), repo, []config.TenantSeed{{Slug: "jazzduo", Name: "Jazz Duo"}}, "admin")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSeed_PropagatesErrors(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("boom"))

	err := Seed(context.Background(), repo, nil, "admin")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "admin tenant")
}
