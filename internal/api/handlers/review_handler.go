package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/api/response"
	apperrors "github.com/welldanyogia/webrana-gigbook-backend/internal/errors"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/pipeline"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/repository"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/validator"
)

// ReviewStore is the review queue as the API sees it.
type ReviewStore interface {
	List(ctx context.Context, filter repository.ReviewFilter, limit, offset int) ([]models.ReviewListItem, int64, error)
	GetByID(ctx context.Context, id uint) (*models.ReviewMessage, error)
	UpdateStatus(ctx context.Context, id uint, status string, bookingID *uint) error
}

// Reprocessor reruns a review message through the pipeline.
type Reprocessor interface {
	Reprocess(ctx context.Context, reviewID uint) (pipeline.Result, error)
}

// TenantLookup finds tenants by slug for list filtering.
type TenantLookup interface {
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
}

// ReviewHandler serves the human review queue.
type ReviewHandler struct {
	reviews     ReviewStore
	tenants     TenantLookup
	reprocessor Reprocessor
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviews ReviewStore, tenants TenantLookup, reprocessor Reprocessor) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, tenants: tenants, reprocessor: reprocessor}
}

// List handles GET /api/reviews?tenant=&status=&limit=&offset=
func (h *ReviewHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	filter := repository.ReviewFilter{Status: strings.TrimSpace(c.QueryParam("status"))}

	if slug := strings.TrimSpace(c.QueryParam("tenant")); slug != "" {
		t, err := h.tenants.GetBySlug(ctx, strings.ToLower(slug))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return response.NotFound(c, "tenant not found")
			}
			return response.InternalError(c, "failed to get tenant")
		}
		filter.TenantID = t.ID
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = validator.ValidatePagination(limit, offset)

	items, total, err := h.reviews.List(ctx, filter, limit, offset)
	if err != nil {
		return response.InternalError(c, "failed to list reviews")
	}
	return response.Paginated(c, items, total, limit, offset)
}

// Get handles GET /api/reviews/:id
func (h *ReviewHandler) Get(c echo.Context) error {
	id, err := reviewID(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	rm, err := h.reviews.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "review not found")
		}
		return response.InternalError(c, "failed to get review")
	}
	return response.Success(c, rm)
}

// Reprocess handles POST /api/reviews/:id/reprocess
func (h *ReviewHandler) Reprocess(c echo.Context) error {
	id, err := reviewID(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	res, err := h.reprocessor.Reprocess(context.WithoutCancel(c.Request().Context()), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, res)
}

// Dismiss handles POST /api/reviews/:id/dismiss. Only pending reviews can be
// dismissed.
func (h *ReviewHandler) Dismiss(c echo.Context) error {
	id, err := reviewID(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	ctx := c.Request().Context()

	rm, err := h.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "review not found")
		}
		return response.InternalError(c, "failed to get review")
	}
	if rm.Status != models.ReviewPending {
		return response.Error(c, apperrors.NewAppError(apperrors.ErrInvalidInput,
			fmt.Sprintf("review %d is %s", id, rm.Status), apperrors.CodeInvalidInput))
	}

	if err := h.reviews.UpdateStatus(ctx, id, models.ReviewDismissed, nil); err != nil {
		return response.Error(c, err)
	}
	return response.SuccessWithMessage(c, nil, "review dismissed")
}

func reviewID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid review ID")
	}
	return uint(id), nil
}
