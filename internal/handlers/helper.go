package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/eduport/examportal-service/internal/services"
	"github.com/gin-gonic/gin"
)

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// handleServiceError maps service-layer errors onto HTTP responses. Every
// handler funnels its error path through here so the mapping stays in one
// place.
func handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationError,
		})
		return
	}

	var limitError *services.AttemptLimitError
	if errors.As(err, &limitError) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Maximum attempts reached",
			Code:    "attempt_limit_reached",
			Details: map[string]interface{}{
				"exam_id": limitError.ExamID,
				"limit":   limitError.Limit,
				"used":    limitError.Used,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotAssigned):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "You are not assigned to this exam",
			Code:    "not_assigned",
		})
	case errors.Is(err, services.ErrExamNotActive):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Exam is not active",
			Code:    "exam_not_active",
		})
	case errors.Is(err, services.ErrExamWindowClosed):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Exam admission window is closed",
			Code:    "window_closed",
		})
	case errors.Is(err, services.ErrExamNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Exam not found",
		})
	case errors.Is(err, services.ErrInvalidAttempt):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Attempt not found",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Resource not found",
		})
	case errors.Is(err, services.ErrAttemptNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Attempt is not active",
			Code:    "attempt_not_active",
		})
	case errors.Is(err, services.ErrRetestAlreadyRequested):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Retest already requested for this attempt",
		})
	case errors.Is(err, services.ErrRetestNotCompleted):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Retest can only be requested for a completed attempt",
		})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Unauthorized",
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Forbidden",
		})
	case errors.Is(err, services.ErrSubmissionFailed):
		// The caller may retry with the same answers; submission is
		// idempotent on the server side.
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Submission failed, please retry",
			Code:    "submission_failed",
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
