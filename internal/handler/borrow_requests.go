package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/book-lending/internal/model"
	"github.com/iliyamo/book-lending/internal/repository"
	"github.com/iliyamo/book-lending/internal/service"
)

// BorrowRequestHandler serves the borrow request endpoints.
type BorrowRequestHandler struct {
	base
	Requests *service.BorrowRequestService
}

// NewBorrowRequestHandler bounds each call into requests by timeout.
func NewBorrowRequestHandler(requests *service.BorrowRequestService, timeout time.Duration, log logrus.FieldLogger) *BorrowRequestHandler {
	return &BorrowRequestHandler{base: newBase(timeout, log), Requests: requests}
}

// List handles GET /api/borrow-requests?bookId=&borrowerAddress=&status=.
func (h *BorrowRequestHandler) List(c echo.Context) error {
	bookID, ok := queryID(c, "bookId")
	if !ok {
		return badRequest(c, "Invalid book ID")
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.Requests.List(ctx, repository.BorrowRequestFilter{
		BookID:          bookID,
		BorrowerAddress: c.QueryParam("borrowerAddress"),
		Status:          model.BorrowStatus(c.QueryParam("status")),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /api/borrow-requests.
func (h *BorrowRequestHandler) Create(c echo.Context) error {
	var req createBorrowReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgBadBody)
	}
	days, _ := req.DurationDays.Int()
	ctx, cancel := h.ctx(c)
	defer cancel()
	br, err := h.Requests.Create(ctx, service.CreateBorrowRequestInput{
		BookID:          req.BookID.Uint(),
		BorrowerAddress: req.BorrowerAddress,
		DurationDays:    days,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, br)
}

// Update handles PATCH /api/borrow-requests/:id.
func (h *BorrowRequestHandler) Update(c echo.Context) error {
	var req updateBorrowReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgBadBody)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	br, err := h.Requests.Update(ctx, c.Param("id"), service.UpdateBorrowRequestInput{
		Status: req.Status,
		TxHash: req.TxHash,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, br)
}

// Delete handles DELETE /api/borrow-requests/:id.
func (h *BorrowRequestHandler) Delete(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Requests.Delete(ctx, c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
