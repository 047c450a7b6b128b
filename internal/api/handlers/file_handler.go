package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/carolus/cryptoannapi/internal/api/middleware"
	"github.com/carolus/cryptoannapi/internal/models"
	"github.com/carolus/cryptoannapi/internal/service"
	"github.com/carolus/cryptoannapi/internal/shared"
	"github.com/carolus/cryptoannapi/pkg/utils/response"
	"github.com/labstack/echo/v4"
)

// FileHandler serves the upload pipeline and artifact downloads.
type FileHandler struct {
	pipeline *service.UploadPipeline
}

func NewFileHandler(pipeline *service.UploadPipeline) *FileHandler {
	return &FileHandler{pipeline: pipeline}
}

// Upload runs one pipeline run: the multipart "file" part is processed by
// the engine in the mode given by the ?mode query param. The pipeline
// itself validates the session credentials, so this route is not behind
// the auth middleware.
func (h *FileHandler) Upload(c echo.Context) error {
	username := c.Param("username")
	mode := c.QueryParam("mode")
	sessionKey := cookieValue(c, middleware.SessionCookieName)
	token := cookieValue(c, middleware.TokenCookieName)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.ErrorResponse(c, http.StatusBadRequest, "", "Missing file upload")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return response.ErrorResponse(c, http.StatusInternalServerError, "", "Server error")
	}
	defer src.Close()

	outcome, err := h.pipeline.Run(c.Request().Context(), username, mode, sessionKey, token, src, fileHeader.Filename)
	// A failed run past validation still returns the credentials: the
	// rotated token must reach the client even on an error response.
	if outcome != nil && outcome.Credentials.Rotated {
		middleware.SetTokenCookie(c, outcome.Credentials.Token)
	}
	if err != nil {
		return h.uploadError(c, err)
	}

	data := map[string]interface{}{
		"initialized": outcome.Initialized,
	}
	if outcome.StoredFile != "" {
		data["file"] = url.QueryEscape(outcome.StoredFile)
		data["name"] = outcome.DownloadName
	}
	return response.SuccessResponse(c, data)
}

func (h *FileHandler) uploadError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, shared.ErrUnauthenticated):
		return response.ErrorResponse(c, http.StatusUnauthorized, shared.CauseNotAuthorized, "Look's like you're not authenticated on server")
	case errors.Is(err, shared.ErrSessionExpired):
		middleware.ExpireSessionCookies(c)
		return response.ErrorResponse(c, http.StatusUnauthorized, shared.CauseSessionExpired, "Session time expired. Please sign in again.")
	case errors.Is(err, shared.ErrInvalidMode):
		return response.ErrorResponse(c, http.StatusBadRequest, shared.CauseInvalidMode, "Unknown processing mode")
	case errors.Is(err, shared.ErrEngineFailed):
		return response.ErrorResponse(c, http.StatusInternalServerError, shared.CauseEngineError, "Processing failed")
	default:
		return response.ErrorResponse(c, http.StatusInternalServerError, "", "Server error")
	}
}

// Download streams an artifact from the user's storage area with a
// content-disposition filename taken from the ?name query param.
func (h *FileHandler) Download(c echo.Context) error {
	user, ok := c.Get(middleware.ContextUserKey).(*models.UserModel)
	if !ok || !user.Initialized() {
		return response.ErrorResponse(c, http.StatusNotFound, "", "No such file")
	}

	storedFile := filepath.Base(c.QueryParam("file"))
	outputName := c.QueryParam("name")
	if outputName == "" {
		outputName = storedFile
	}

	path := filepath.Join(*user.StoragePath, storedFile)
	if _, err := os.Stat(path); err != nil {
		return response.ErrorResponse(c, http.StatusNotFound, "", "No such file")
	}
	return c.Attachment(path, outputName)
}

func cookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
