package handlers

import (
	"net/http"

	"github.com/carolus/cryptoannapi/internal/api/middleware"
	"github.com/carolus/cryptoannapi/internal/models"
	"github.com/carolus/cryptoannapi/pkg/utils/response"
	"github.com/labstack/echo/v4"
)

// UserHandler serves the personal status of an authenticated user.
type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Get returns the user's status. A user whose storage area is not yet
// established must run a train upload before encrypt/decrypt are useful.
func (h *UserHandler) Get(c echo.Context) error {
	user, ok := c.Get(middleware.ContextUserKey).(*models.UserModel)
	if !ok {
		return response.ErrorResponse(c, http.StatusInternalServerError, "", "Server error")
	}
	return response.SuccessResponse(c, map[string]interface{}{
		"username":    user.Username,
		"initialized": user.Initialized(),
	})
}
