// Package handlers contains the HTTP handlers for the Cryptoann API
package handlers

import (
	"errors"
	"net/http"

	"github.com/carolus/cryptoannapi/internal/api/middleware"
	"github.com/carolus/cryptoannapi/internal/service"
	"github.com/carolus/cryptoannapi/internal/shared"
	"github.com/carolus/cryptoannapi/pkg/utils/response"
	"github.com/labstack/echo/v4"
)

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Register creates a new user account
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return response.ErrorResponse(c, http.StatusBadRequest, "", "Invalid request body")
	}

	err := h.auth.Register(req.Username, req.Password)
	switch {
	case err == nil:
		return response.SuccessCauseResponse(c, shared.CauseRegistrationOK, map[string]string{"username": req.Username})
	case errors.Is(err, shared.ErrAlreadyExists):
		return response.ErrorResponse(c, http.StatusConflict, shared.CauseAlreadyExists, "User with specified username already registered")
	case errors.Is(err, shared.ErrDatabaseUnreachable):
		return response.ErrorResponse(c, http.StatusInternalServerError, "", "Server error")
	default:
		return response.ErrorResponse(c, http.StatusBadRequest, "", err.Error())
	}
}

// Login authenticates the user and hands out the session cookie pair
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return response.ErrorResponse(c, http.StatusBadRequest, "", "Invalid request body")
	}

	user, creds, err := h.auth.Login(req.Username, req.Password)
	switch {
	case err == nil:
		middleware.SetSessionCookies(c, creds.SessionKey, creds.Token)
		return response.SuccessResponse(c, map[string]interface{}{
			"username":    user.Username,
			"initialized": user.Initialized(),
		})
	case errors.Is(err, shared.ErrUserNotFound):
		return response.ErrorResponse(c, http.StatusUnauthorized, shared.CauseNullUser, "Account with the given username does not exist.")
	case errors.Is(err, shared.ErrPasswordMismatch):
		return response.ErrorResponse(c, http.StatusUnauthorized, shared.CausePasswordMismatch, "Incorrect password.")
	default:
		return response.ErrorResponse(c, http.StatusInternalServerError, "", "Server error")
	}
}

// Logout closes the caller's session and expires both cookies
func (h *AuthHandler) Logout(c echo.Context) error {
	sessionCookie, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || sessionCookie.Value == "" {
		return response.ErrorResponse(c, http.StatusBadRequest, "", "No session to close")
	}

	h.auth.Logout(sessionCookie.Value)
	middleware.ExpireSessionCookies(c)
	return response.SuccessResponse(c, nil)
}
