package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/auth"
)

// GetUserID extracts the authenticated user's ID from the Gin context.
// Returns auth.DefaultUserID when no user is authenticated.
func GetUserID(c *gin.Context) uint {
	return auth.GetUserID(c)
}

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, log *zap.Logger, err error, context string) {
	if log == nil {
		log = zap.NewNop()
	}
	log.Error("internal error",
		zap.String("context", context),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError sends an error response with the given status code.
// Use the specific helpers (respondBadRequest, respondNotFound, etc.) when possible.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message and optional data.
func respondSuccess(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message, Data: data})
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// maxBookIDLength matches the size of the book_id column.
const maxBookIDLength = 128

// parseBookIDParam extracts a client-chosen book id from URL parameters.
// Returns the id or responds with a 400 error and returns "", false.
func parseBookIDParam(c *gin.Context, paramName string) (string, bool) {
	id := strings.TrimSpace(c.Param(paramName))
	if id == "" || len(id) > maxBookIDLength {
		respondBadRequest(c, "invalid "+paramName)
		return "", false
	}
	return id, true
}

// parseBoolQuery reads a boolean query flag. Only "true" and "1" enable it.
func parseBoolQuery(c *gin.Context, name string) bool {
	switch strings.ToLower(c.Query(name)) {
	case "true", "1":
		return true
	}
	return false
}
