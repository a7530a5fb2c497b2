package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/book-lending/internal/repository"
	"github.com/iliyamo/book-lending/internal/service"
)

// PurchaseHandler serves purchase recording, listings and stats.
type PurchaseHandler struct {
	base
	Purchases *service.PurchaseService
}

// NewPurchaseHandler bounds each call into purchases by timeout.
func NewPurchaseHandler(purchases *service.PurchaseService, timeout time.Duration, log logrus.FieldLogger) *PurchaseHandler {
	return &PurchaseHandler{base: newBase(timeout, log), Purchases: purchases}
}

// List handles GET /api/purchases.
func (h *PurchaseHandler) List(c echo.Context) error {
	return h.list(c, repository.PurchaseFilter{})
}

// ListByBook handles GET /api/purchases/book/:bookId.
func (h *PurchaseHandler) ListByBook(c echo.Context) error {
	bookID, ok := parseID(c, "bookId")
	if !ok {
		return badRequest(c, "Invalid book ID")
	}
	return h.list(c, repository.PurchaseFilter{BookID: bookID})
}

// ListByBuyer handles GET /api/purchases/user/:address.
func (h *PurchaseHandler) ListByBuyer(c echo.Context) error {
	return h.list(c, repository.PurchaseFilter{BuyerAddress: c.Param("address")})
}

func (h *PurchaseHandler) list(c echo.Context, f repository.PurchaseFilter) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.Purchases.List(ctx, f)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Record handles POST /api/purchases.
func (h *PurchaseHandler) Record(c echo.Context) error {
	var req recordPurchaseReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgBadBody)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	p, err := h.Purchases.Record(ctx, service.RecordPurchaseInput{
		BookID:       req.BookID.Uint(),
		BuyerAddress: req.BuyerAddress,
		Amount:       req.Amount.String(),
		TxHash:       req.TxHash,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Stats handles GET /api/purchases/stats.
func (h *PurchaseHandler) Stats(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	st, err := h.Purchases.Stats(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}
