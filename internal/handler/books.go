package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/book-lending/internal/service"
)

// BookHandler serves the catalog and cover image endpoints.
type BookHandler struct {
	base
	Books *service.BookService
}

// NewBookHandler bounds each call into books by timeout.
func NewBookHandler(books *service.BookService, timeout time.Duration, log logrus.FieldLogger) *BookHandler {
	return &BookHandler{base: newBase(timeout, log), Books: books}
}

// List handles GET /api/books.
func (h *BookHandler) List(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	books, err := h.Books.List(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

// Get handles GET /api/books/:id and embeds the book's reviews and borrow
// requests.
func (h *BookHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "Invalid book ID",
			"errors": []echo.Map{{"field": "id", "message": "Invalid book ID"}},
		})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	book, err := h.Books.Get(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, book)
}

// Create handles POST /api/books.
func (h *BookHandler) Create(c echo.Context) error {
	var req createBookReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgBadBody)
	}
	year, _ := req.PublishedYear.Int()
	ctx, cancel := h.ctx(c)
	defer cancel()
	book, err := h.Books.Create(ctx, service.CreateBookInput{
		Title:         req.Title,
		Description:   req.Description,
		Author:        req.Author,
		Genre:         req.Genre,
		PublishedYear: year,
		CoverImage:    req.CoverImage,
		OwnerAddress:  req.OwnerAddress,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, book)
}

// UploadCover handles POST /api/upload/:bookId/cover.
func (h *BookHandler) UploadCover(c echo.Context) error {
	id, ok := parseID(c, "bookId")
	if !ok {
		return badRequest(c, "Invalid book ID")
	}
	var req uploadCoverReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgBadBody)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	book, err := h.Books.UploadCover(ctx, id, req.ImageData)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":         book.ID,
		"coverImage": book.CoverImage,
		"message":    "Cover image uploaded successfully",
	})
}

// DeleteCover handles DELETE /api/upload/:bookId/cover.
func (h *BookHandler) DeleteCover(c echo.Context) error {
	id, ok := parseID(c, "bookId")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Book not found"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	book, err := h.Books.DeleteCover(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":      book.ID,
		"message": "Cover image deleted successfully",
	})
}
