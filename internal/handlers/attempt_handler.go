package handlers

import (
	"net/http"
	"strconv"

	"github.com/eduport/examportal-service/internal/models"
	"github.com/eduport/examportal-service/internal/repositories"
	"github.com/eduport/examportal-service/internal/services"
	"github.com/eduport/examportal-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *utils.Validator
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	validator *utils.Validator,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
	}
}

// Admit starts a new attempt or resumes the caller's running one.
// @Summary Enter an exam
// @Tags attempts
// @Produce json
// @Param exam_id path string true "Exam ID"
// @Success 200 {object} services.AdmissionResult
// @Success 201 {object} services.AdmissionResult
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exams/{exam_id}/attempts [post]
func (h *AttemptHandler) Admit(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Admitting student to exam", "exam_id", examID)

	result, err := h.attemptService.Admit(c.Request.Context(), examID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// Submit finalizes the attempt with the student's answers.
// @Summary Submit an attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param submission body services.SubmitRequest true "Submission payload"
// @Success 200 {object} services.SubmissionResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/submit [post]
func (h *AttemptHandler) Submit(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Submitting attempt",
		"attempt_id", req.AttemptID,
		"answers_count", len(req.Answers))

	result, err := h.attemptService.Submit(c.Request.Context(), &req, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PlayView returns the running attempt with its question snapshot.
func (h *AttemptHandler) PlayView(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	view, err := h.attemptService.PlayView(c.Request.Context(), examID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// TimeRemaining reports whole seconds left on the attempt clock.
func (h *AttemptHandler) TimeRemaining(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	remaining, err := h.attemptService.TimeRemaining(c.Request.Context(), attemptID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"time_remaining_seconds": remaining})
}

// GetAttempt returns a single attempt, owner or admin only.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), attemptID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// ListByExam lists attempts for an exam with optional filters.
func (h *AttemptHandler) ListByExam(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	filters := parseAttemptFilters(c)
	attempts, total, err := h.attemptService.ListByExam(c.Request.Context(), examID, filters, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": attempts,
		"total":    total,
		"limit":    filters.Limit,
		"offset":   filters.Offset,
	})
}

func parseAttemptFilters(c *gin.Context) repositories.AttemptFilters {
	filters := repositories.AttemptFilters{
		Limit:     20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}

	if v := c.Query("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 && limit <= 100 {
			filters.Limit = limit
		}
	}
	if v := c.Query("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil && offset >= 0 {
			filters.Offset = offset
		}
	}
	if v := c.Query("status"); v != "" {
		status := models.AttemptStatus(v)
		filters.Status = &status
	}
	if v := c.Query("user_id"); v != "" {
		filters.UserID = &v
	}
	if v := c.Query("sort_by"); v != "" {
		filters.SortBy = v
	}
	if v := c.Query("sort_order"); v == "asc" || v == "desc" {
		filters.SortOrder = v
	}

	return filters
}
