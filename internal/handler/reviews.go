package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/book-lending/internal/repository"
	"github.com/iliyamo/book-lending/internal/service"
)

// ReviewHandler serves the review endpoints.
type ReviewHandler struct {
	base
	Reviews *service.ReviewService
}

// NewReviewHandler bounds each call into reviews by timeout.
func NewReviewHandler(reviews *service.ReviewService, timeout time.Duration, log logrus.FieldLogger) *ReviewHandler {
	return &ReviewHandler{base: newBase(timeout, log), Reviews: reviews}
}

// List handles GET /api/reviews?bookId=&userAddress=.
func (h *ReviewHandler) List(c echo.Context) error {
	bookID, ok := queryID(c, "bookId")
	if !ok {
		return badRequest(c, "Invalid book ID")
	}
	return h.list(c, repository.ReviewFilter{BookID: bookID, UserAddress: c.QueryParam("userAddress")})
}

// ListByBook handles GET /api/reviews/:bookId.
func (h *ReviewHandler) ListByBook(c echo.Context) error {
	bookID, ok := parseID(c, "bookId")
	if !ok {
		return badRequest(c, "Invalid book ID")
	}
	return h.list(c, repository.ReviewFilter{BookID: bookID})
}

func (h *ReviewHandler) list(c echo.Context, f repository.ReviewFilter) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	reviews, err := h.Reviews.List(ctx, f)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, reviews)
}

// Create handles POST /api/reviews.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgBadBody)
	}
	rating, ok := req.Rating.Int()
	if !ok {
		rating = -1
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	review, err := h.Reviews.Create(ctx, service.CreateReviewInput{
		BookID:      req.BookID.Uint(),
		UserAddress: req.UserAddress,
		ReviewText:  req.ReviewText,
		Rating:      rating,
		ReviewHash:  req.ReviewHash,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, review)
}
