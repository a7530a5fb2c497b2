// Package router wires handlers, services and middleware into an Echo
// instance.
package router

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/book-lending/internal/config"
	"github.com/iliyamo/book-lending/internal/handler"
	"github.com/iliyamo/book-lending/internal/middleware"
	"github.com/iliyamo/book-lending/internal/service"
	"github.com/iliyamo/book-lending/internal/validation"
)

const (
	jsonBodyLimit   = "1M"
	uploadBodyLimit = "8M"
)

// Deps are the collaborators the HTTP surface is built from.  Redis and
// Events may be nil.
type Deps struct {
	Config  config.Config
	Stores  service.Stores
	Redis   *redis.Client
	Events  service.EventPublisher
	Metrics *middleware.Metrics
	Log     logrus.FieldLogger
}

// New builds the API.
func New(d Deps) *echo.Echo {
	cfg := d.Config
	v := validation.New()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = v
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.FrontendURLs,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.AccessLog(d.Log))
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
		e.GET("/metrics", d.Metrics.Handler())
	}

	e.GET("/health", handler.Health)

	books := handler.NewBookHandler(service.NewBookService(d.Stores, v, d.Log), cfg.RequestTimeout, d.Log)
	reviews := handler.NewReviewHandler(service.NewReviewService(d.Stores, d.Events, v, d.Log), cfg.RequestTimeout, d.Log)
	borrows := handler.NewBorrowRequestHandler(service.NewBorrowRequestService(d.Stores, d.Events, v, d.Log), cfg.RequestTimeout, d.Log)
	purchases := handler.NewPurchaseHandler(service.NewPurchaseService(d.Stores, d.Events, v, d.Log), cfg.RequestTimeout, d.Log)
	auth := handler.NewAuthHandler(service.NewAuthService(d.Stores, cfg.JWTSecret, cfg.TokenTTL, v, d.Log), cfg.RequestTimeout, d.Log)

	api := e.Group("/api",
		middleware.RateLimit(cfg.RateLimit, d.Redis, d.Log),
		middleware.ResponseCache(cfg.Cache, d.Redis, d.Log),
	)
	jsonLimit := echomw.BodyLimit(jsonBodyLimit)

	g := api.Group("/books", jsonLimit)
	g.GET("", books.List)
	g.GET("/:id", books.Get)
	g.POST("", books.Create)

	g = api.Group("/upload", echomw.BodyLimit(uploadBodyLimit))
	g.POST("/:bookId/cover", books.UploadCover)
	g.DELETE("/:bookId/cover", books.DeleteCover)

	g = api.Group("/reviews", jsonLimit)
	g.GET("", reviews.List)
	g.GET("/:bookId", reviews.ListByBook)
	g.POST("", reviews.Create)

	g = api.Group("/borrow-requests", jsonLimit)
	g.GET("", borrows.List)
	g.POST("", borrows.Create)
	g.PATCH("/:id", borrows.Update)
	g.DELETE("/:id", borrows.Delete)

	g = api.Group("/purchases", jsonLimit)
	g.GET("", purchases.List)
	g.GET("/stats", purchases.Stats)
	g.GET("/book/:bookId", purchases.ListByBook)
	g.GET("/user/:address", purchases.ListByBuyer)
	g.POST("", purchases.Record)

	g = api.Group("/auth", jsonLimit, middleware.RateLimit(cfg.AuthRateLimit, d.Redis, d.Log))
	g.POST("/login", auth.Login)
	g.POST("/verify", auth.Verify)
	g.GET("/me", auth.Me, middleware.JWTAuth(cfg.JWTSecret))

	return e
}
