package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/book-lending/internal/middleware"
	"github.com/iliyamo/book-lending/internal/service"
)

// AuthHandler serves wallet login and token verification.
type AuthHandler struct {
	base
	Auth *service.AuthService
}

// NewAuthHandler bounds each call into auth by timeout.
func NewAuthHandler(auth *service.AuthService, timeout time.Duration, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{base: newBase(timeout, log), Auth: auth}
}

// Login: find or create the wallet's user and return a signed token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgBadBody)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	res, err := h.Auth.Login(ctx, service.LoginInput{WalletAddress: req.WalletAddress})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Verify checks the bearer token and reports the user it belongs to.
func (h *AuthHandler) Verify(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	u, err := h.Auth.Verify(ctx, middleware.BearerToken(c))
	if err != nil {
		if service.KindOf(err) == service.KindForbidden {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Invalid token", "valid": false})
		}
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valid": true,
		"user":  userPart{ID: u.ID, WalletAddress: u.WalletAddress},
	})
}

// Me returns the user behind the token JWTAuth accepted.
func (h *AuthHandler) Me(c echo.Context) error {
	raw := middleware.BearerToken(c)
	ctx, cancel := h.ctx(c)
	defer cancel()
	u, err := h.Auth.Verify(ctx, raw)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
