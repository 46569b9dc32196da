package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	apperrors "github.com/welldanyogia/webrana-gigbook-backend/internal/errors"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/mocks"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/pipeline"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/repository"
)

type reprocessorFunc func(ctx context.Context, id uint) (pipeline.Result, error)

func (f reprocessorFunc) Reprocess(ctx context.Context, id uint) (pipeline.Result, error) {
	return f(ctx, id)
}

type ReviewHandlerTestSuite struct {
	suite.Suite
	reviews     *mocks.MockReviewRepository
	tenants     *mocks.MockTenantRepository
	reprocessed []uint
	handler     *ReviewHandler
	e           *echo.Echo
}

func (s *ReviewHandlerTestSuite) SetupTest() {
	s.reviews = new(mocks.MockReviewRepository)
	s.tenants = new(mocks.MockTenantRepository)
	s.reprocessed = nil
	s.handler = NewReviewHandler(s.reviews, s.tenants, reprocessorFunc(func(ctx context.Context, id uint) (pipeline.Result, error) {
		s.reprocessed = append(s.reprocessed, id)
		if id == 404 {
			return pipeline.Result{}, repository.ErrNotFound
		}
		return pipeline.Result{Outcome: pipeline.OutcomeCreated, BookingID: 12}, nil
	}))
	s.e = echo.New()
}

func (s *ReviewHandlerTestSuite) call(h echo.HandlerFunc, method, target, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	s.Require().NoError(h(c))
	return rec
}

func (s *ReviewHandlerTestSuite) TestList_FiltersByTenantAndStatus() {
	// Arrange
	s.tenants.On("GetBySlug", mock.Anything, "jazzduo").Return(&models.Tenant{ID: 4, Slug: "jazzduo"}, nil)
	items := []models.ReviewListItem{{ID: 1, TenantID: 4, Status: models.ReviewPending}}
	s.reviews.On("List", mock.Anything, repository.ReviewFilter{TenantID: 4, Status: "pending"}, 100, 10).
		Return(items, int64(11), nil)

	// Act
	rec := s.call(s.handler.List, http.MethodGet, "/api/reviews?tenant=JazzDuo&status=pending&limit=500&offset=10", "")

	// Assert
	s.Equal(http.StatusOK, rec.Code)
	var body struct {
		Data []models.ReviewListItem `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
			Limit int   `json:"limit"`
		} `json:"meta"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Len(body.Data, 1)
	s.Equal(int64(11), body.Meta.Total)
	s.Equal(100, body.Meta.Limit)
	s.reviews.AssertExpectations(s.T())
}

func (s *ReviewHandlerTestSuite) TestList_UnknownTenant() {
	s.tenants.On("GetBySlug", mock.Anything, "nobody").Return(nil, repository.ErrNotFound)

	rec := s.call(s.handler.List, http.MethodGet, "/api/reviews?tenant=nobody", "")

	s.Equal(http.StatusNotFound, rec.Code)
	s.reviews.AssertNotCalled(s.T(), "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ReviewHandlerTestSuite) TestList_StoreError() {
	s.reviews.On("List", mock.Anything, repository.ReviewFilter{}, 20, 0).Return(nil, int64(0), errors.New("db down"))

	rec := s.call(s.handler.List, http.MethodGet, "/api/reviews", "")

	s.Equal(http.StatusInternalServerError, rec.Code)
}

func (s *ReviewHandlerTestSuite) TestGet() {
	s.reviews.On("GetByID", mock.Anything, uint(5)).Return(&models.ReviewMessage{ID: 5, Reason: "low confidence"}, nil)

	rec := s.call(s.handler.Get, http.MethodGet, "/api/reviews/5", "5")

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"reason":"low confidence"`)
}

func (s *ReviewHandlerTestSuite) TestGet_NotFoundAndBadID() {
	s.reviews.On("GetByID", mock.Anything, uint(9)).Return(nil, repository.ErrNotFound)

	s.Equal(http.StatusNotFound, s.call(s.handler.Get, http.MethodGet, "/api/reviews/9", "9").Code)
	s.Equal(http.StatusBadRequest, s.call(s.handler.Get, http.MethodGet, "/api/reviews/abc", "abc").Code)
}

func (s *ReviewHandlerTestSuite) TestReprocess() {
	rec := s.call(s.handler.Reprocess, http.MethodPost, "/api/reviews/5/reprocess", "5")

	s.Equal(http.StatusOK, rec.Code)
	s.Equal([]uint{5}, s.reprocessed)
	s.Contains(rec.Body.String(), `"booking_id":12`)
}

func (s *ReviewHandlerTestSuite) TestReprocess_MissingReview() {
	rec := s.call(s.handler.Reprocess, http.MethodPost, "/api/reviews/404/reprocess", "404")

	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ReviewHandlerTestSuite) TestDismiss() {
	s.reviews.On("GetByID", mock.Anything, uint(5)).Return(&models.ReviewMessage{ID: 5, Status: models.ReviewPending}, nil)
	s.reviews.On("UpdateStatus", mock.Anything, uint(5), models.ReviewDismissed, (*uint)(nil)).Return(nil)

	rec := s.call(s.handler.Dismiss, http.MethodPost, "/api/reviews/5/dismiss", "5")

	s.Equal(http.StatusOK, rec.Code)
	s.reviews.AssertExpectations(s.T())
}

func (s *ReviewHandlerTestSuite) TestDismiss_OnlyPending() {
	s.reviews.On("GetByID", mock.Anything, uint(5)).Return(&models.ReviewMessage{ID: 5, Status: models.ReviewConverted}, nil)

	rec := s.call(s.handler.Dismiss, http.MethodPost, "/api/reviews/5/dismiss", "5")

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), apperrors.CodeInvalidInput)
	s.reviews.AssertNotCalled(s.T(), "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ReviewHandlerTestSuite))
}

func TestReviewID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("0")

	_, err := reviewID(c)

	require.Error(t, err)
	assert.Equal(t, "invalid review ID", err.Error())
}
