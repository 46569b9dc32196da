package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"gorm.io/gorm"
)

// ReviewFilter narrows ListReviews. Zero values mean "any".
type ReviewFilter struct {
	TenantID uint
	Status   string
}

// ReviewRepository defines the interface for review queue data access
type ReviewRepository interface {
	Create(ctx context.Context, review *models.ReviewMessage) error
	GetByID(ctx context.Context, id uint) (*models.ReviewMessage, error)
	List(ctx context.Context, filter ReviewFilter, limit, offset int) ([]models.ReviewListItem, int64, error)
	FindRecent(ctx context.Context, tenantID uint, duplicateKey string, since time.Time) ([]models.ReviewMessage, error)
	UpdateStatus(ctx context.Context, id uint, status string, bookingID *uint) error
}

// reviewRepository implements ReviewRepository using GORM
type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new ReviewRepository instance
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create creates a new review message
func (r *reviewRepository) Create(ctx context.Context, review *models.ReviewMessage) error {
	if review.Status == "" {
		review.Status = models.ReviewPending
	}
	result := r.db.WithContext(ctx).Create(review)
	if result.Error != nil {
		return fmt.Errorf("failed to create review message: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a review message by its ID
func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*models.ReviewMessage, error) {
	var review models.ReviewMessage
	result := r.db.WithContext(ctx).First(&review, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review message by ID: %w", result.Error)
	}
	return &review, nil
}

// List retrieves review messages with pagination, newest first
func (r *reviewRepository) List(ctx context.Context, filter ReviewFilter, limit, offset int) ([]models.ReviewListItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ReviewMessage{})
	if filter.TenantID != 0 {
		query = query.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count review messages: %w", err)
	}

	var items []models.ReviewListItem
	err := query.
		Select("id, public_id, tenant_id, status, stage, reason, sender, subject, client_name, client_email, confidence, created_at").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Scan(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list review messages: %w", err)
	}

	return items, total, nil
}

// FindRecent returns the tenant's review messages carrying duplicateKey that
// were created at or after since, newest first.
func (r *reviewRepository) FindRecent(ctx context.Context, tenantID uint, duplicateKey string, since time.Time) ([]models.ReviewMessage, error) {
	var reviews []models.ReviewMessage
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND duplicate_key = ? AND created_at >= ?", tenantID, duplicateKey, since).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recent review messages: %w", err)
	}
	return reviews, nil
}

// UpdateStatus records a review action, optionally linking the booking it produced
func (r *reviewRepository) UpdateStatus(ctx context.Context, id uint, status string, bookingID *uint) error {
	updates := map[string]any{"status": status}
	if bookingID != nil {
		updates["booking_id"] = *bookingID
	}
	result := r.db.WithContext(ctx).Model(&models.ReviewMessage{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update review status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
