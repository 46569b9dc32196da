package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"gorm.io/gorm"
)

// BookingRepository defines the interface for booking data access
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uint) (*models.Booking, error)
	FindRecent(ctx context.Context, tenantID uint, duplicateKey string, since time.Time) ([]models.Booking, error)
	ListPlaceholderDue(ctx context.Context, createdBefore time.Time, limit int) ([]models.Booking, error)
	MarkPlaceholderReviewed(ctx context.Context, id uint, at time.Time) error
}

// bookingRepository implements BookingRepository using GORM
type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new BookingRepository instance
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// Create creates a new booking
func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	result := r.db.WithContext(ctx).Create(booking)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("booking '%s' already exists: %w", booking.PublicID, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create booking: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a booking by its ID
func (r *bookingRepository) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	result := r.db.WithContext(ctx).First(&booking, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking by ID: %w", result.Error)
	}
	return &booking, nil
}

// FindRecent returns the tenant's bookings carrying duplicateKey that were
// created at or after since, newest first.
func (r *bookingRepository) FindRecent(ctx context.Context, tenantID uint, duplicateKey string, since time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND duplicate_key = ? AND created_at >= ?", tenantID, duplicateKey, since).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recent bookings: %w", err)
	}
	return bookings, nil
}

// ListPlaceholderDue returns placeholder-dated bookings created before the
// cutoff that have not yet been sent for review.
func (r *bookingRepository) ListPlaceholderDue(ctx context.Context, createdBefore time.Time, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("date_placeholder = ? AND placeholder_review_at IS NULL AND created_at < ?", true, createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list placeholder bookings: %w", err)
	}
	return bookings, nil
}

// MarkPlaceholderReviewed stamps the booking so the sweep does not pick it up again
func (r *bookingRepository) MarkPlaceholderReviewed(ctx context.Context, id uint, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Update("placeholder_review_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to mark placeholder reviewed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
