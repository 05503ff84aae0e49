package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-chat-platform/services"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithUnauthorized sends a 401 Unauthorized error
func RespondWithUnauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized, "unauthorized", message, nil)
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithPipelineError maps pipeline errors onto HTTP responses: caller
// mistakes are 4xx, backend trouble is 502/503, everything else is 500.
func RespondWithPipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoUserQuestion):
		RespondWithBadRequest(c, "history contains no user question", nil)
	case errors.Is(err, services.ErrUnsupportedFileType):
		RespondWithError(c, http.StatusUnsupportedMediaType, "unsupported_file_type", err.Error(), nil)
	case errors.Is(err, services.ErrSessionNotFound):
		RespondWithNotFound(c, "chat session not found")
	case errors.Is(err, services.ErrPinnedQueryNotFound):
		RespondWithNotFound(c, "pinned query not found")
	case errors.Is(err, services.ErrModelUnavailable):
		RespondWithError(c, http.StatusServiceUnavailable, "model_unavailable", "The language model is temporarily unavailable", nil)
	case errors.Is(err, services.ErrIndexUnavailable):
		RespondWithError(c, http.StatusBadGateway, "index_unavailable", "The search index is temporarily unavailable", nil)
	case errors.Is(err, services.ErrQueryGenerationFailed),
		errors.Is(err, services.ErrAnswerParsingFailed):
		RespondWithError(c, http.StatusBadGateway, "pipeline_failed", err.Error(), nil)
	default:
		RespondWithInternalError(c, "Something went wrong", nil)
	}
}
