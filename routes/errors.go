package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lecture-slides-backend/middleware"
	"lecture-slides-backend/services"
	"lecture-slides-backend/utils"
)

// respondServiceError maps service sentinels onto status codes. Unknown errors are 500.
func respondServiceError(c *gin.Context, err error, action string) {
	log := middleware.RequestLogger(c)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.Error("Request timed out", "action", action, "error", err)
		utils.RespondWithError(c, http.StatusGatewayTimeout, "timeout", "Request timed out", nil)
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithBadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrCourseExists):
		utils.RespondWithError(c, http.StatusBadRequest, "course_exists", err.Error(), nil)
	case errors.Is(err, services.ErrBinaryUnavailable):
		utils.RespondWithError(c, http.StatusNotFound, "pdf_not_available", "PDF binary not available for this document", nil)
	case errors.Is(err, services.ErrNotFound):
		utils.RespondWithNotFound(c, err.Error())
	case errors.Is(err, services.ErrExtraction):
		log.Warn("Extraction failed", "action", action, "error", err)
		utils.RespondWithUnprocessable(c, "Could not extract text from PDF", gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEmbedding), errors.Is(err, services.ErrStore):
		log.Error("Upstream failure", "action", action, "error", err)
		utils.RespondWithBadGateway(c, "Failed to "+action, gin.H{"error": err.Error()})
	default:
		log.Error("Unexpected error", "action", action, "error", err)
		utils.RespondWithInternalError(c, "Failed to "+action, nil)
	}
}
