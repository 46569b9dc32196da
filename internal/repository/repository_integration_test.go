//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresRepositoryTestSuite runs the repositories against a real PostgreSQL
type PostgresRepositoryTestSuite struct {
	suite.Suite
	container testcontainers.Container
	db        *gorm.DB
	tenants   TenantRepository
	bookings  BookingRepository
	reviews   ReviewRepository
}

// SetupSuite starts the PostgreSQL container
func (s *PostgresRepositoryTestSuite) SetupSuite() {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "gigbook_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(s.T(), err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=gigbook_test sslmode=disable", host, port.Port())
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)
	require.NoError(s.T(), db.AutoMigrate(&models.Tenant{}, &models.Booking{}, &models.ReviewMessage{}))

	s.db = db
	s.tenants = NewTenantRepository(db)
	s.bookings = NewBookingRepository(db)
	s.reviews = NewReviewRepository(db)
}

// TearDownSuite stops the container
func (s *PostgresRepositoryTestSuite) TearDownSuite() {
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

// SetupTest cleans tables between tests
func (s *PostgresRepositoryTestSuite) SetupTest() {
	s.db.Exec("TRUNCATE review_messages, bookings, tenants RESTART IDENTITY CASCADE")
}

func TestPostgresRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(PostgresRepositoryTestSuite))
}

func (s *PostgresRepositoryTestSuite) TestUpsertTenant_ConflictOnSlug() {
	ctx := context.Background()
	first := &models.Tenant{Slug: "jazzduo", Name: "Jazz Duo", IsActive: true}
	require.NoError(s.T(), s.tenants.Upsert(ctx, first))

	second := &models.Tenant{Slug: "jazzduo", Name: "Renamed", IsActive: true, IsAdmin: true}
	require.NoError(s.T(), s.tenants.Upsert(ctx, second))

	assert.Equal(s.T(), first.ID, second.ID)
	got, err := s.tenants.GetBySlug(ctx, "jazzduo")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Renamed", got.Name)
	assert.True(s.T(), got.IsAdmin)
}

func (s *PostgresRepositoryTestSuite) TestBookingAndReviewDedupLookups() {
	ctx := context.Background()
	tenant := &models.Tenant{Slug: "jazzduo", Name: "Jazz Duo", IsActive: true}
	require.NoError(s.T(), s.tenants.Create(ctx, tenant))

	now := time.Now().UTC()
	booking := &models.Booking{
		PublicID:     uuid.NewString(),
		TenantID:     tenant.ID,
		Title:        "Wedding - Sam Taylor",
		Channel:      "form",
		Confidence:   0.9,
		DuplicateKey: "fp:wedding",
	}
	require.NoError(s.T(), s.bookings.Create(ctx, booking))

	review := &models.ReviewMessage{
		PublicID:     uuid.NewString(),
		TenantID:     tenant.ID,
		Stage:        "quality",
		Reason:       "low confidence",
		ReceivedAt:   now,
		DuplicateKey: "fp:vague",
	}
	require.NoError(s.T(), s.reviews.Create(ctx, review))

	since := now.Add(-24 * time.Hour)
	found, err := s.bookings.FindRecent(ctx, tenant.ID, "fp:wedding", since)
	require.NoError(s.T(), err)
	assert.Len(s.T(), found, 1)

	pending, err := s.reviews.FindRecent(ctx, tenant.ID, "fp:vague", since)
	require.NoError(s.T(), err)
	assert.Len(s.T(), pending, 1)

	items, total, err := s.reviews.List(ctx, ReviewFilter{TenantID: tenant.ID, Status: models.ReviewPending}, 10, 0)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total)
	assert.Len(s.T(), items, 1)
}
