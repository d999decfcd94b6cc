package handlers

import (
	"net/http"

	"github.com/eduport/examportal-service/internal/services"
	"github.com/eduport/examportal-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AssignmentHandler struct {
	BaseHandler
	assignmentService services.AssignmentService
	validator         *utils.Validator
}

type AssignRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,required"`
}

type RequestRetestRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

type DenyRetestRequest struct {
	Remark string `json:"remark"`
}

func NewAssignmentHandler(
	assignmentService services.AssignmentService,
	validator *utils.Validator,
	logger utils.Logger,
) *AssignmentHandler {
	return &AssignmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assignmentService: assignmentService,
		validator:         validator,
	}
}

// Assign adds students to an exam.
func (h *AssignmentHandler) Assign(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Assigning students to exam",
		"exam_id", examID,
		"count", len(req.UserIDs))

	if err := h.assignmentService.Assign(c.Request.Context(), examID, req.UserIDs, actorID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Students assigned"})
}

// Unassign removes a student's assignment.
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}
	userID := ParseStringIDParam(c, "user_id")
	if userID == "" {
		return
	}

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.assignmentService.Unassign(c.Request.Context(), examID, userID, actorID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Student unassigned"})
}

// ListByExam lists the exam's assignments.
func (h *AssignmentHandler) ListByExam(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	assignments, err := h.assignmentService.ListByExam(c.Request.Context(), examID, actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

// ImportRoster bulk-assigns students from an uploaded xlsx roster.
func (h *AssignmentHandler) ImportRoster(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Roster file is required",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing exam roster",
		"exam_id", examID,
		"filename", fileHeader.Filename)

	result, err := h.assignmentService.ImportRoster(c.Request.Context(), examID, file, actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GrantReattempt opens one additional attempt slot for a student.
func (h *AssignmentHandler) GrantReattempt(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}
	userID := ParseStringIDParam(c, "user_id")
	if userID == "" {
		return
	}

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Granting re-attempt",
		"exam_id", examID,
		"target_user_id", userID)

	result, err := h.assignmentService.GrantReattempt(c.Request.Context(), examID, userID, actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RequestRetest files a retest request on a completed attempt.
func (h *AssignmentHandler) RequestRetest(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req RequestRetestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		handleServiceError(c, err)
		return
	}

	if err := h.assignmentService.RequestRetest(c.Request.Context(), attemptID, req.Reason, userID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Retest requested"})
}

// ApproveRetest deletes the attempt, freeing its slot.
func (h *AssignmentHandler) ApproveRetest(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.assignmentService.ApproveRetest(c.Request.Context(), attemptID, actorID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Retest approved"})
}

// DenyRetest clears the request and records the admin's remark.
func (h *AssignmentHandler) DenyRetest(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req DenyRetestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.assignmentService.DenyRetest(c.Request.Context(), attemptID, req.Remark, actorID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Retest denied"})
}

// ListRetestRequests lists attempts with a pending retest request.
func (h *AssignmentHandler) ListRetestRequests(c *gin.Context) {
	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	attempts, err := h.assignmentService.ListRetestRequests(c.Request.Context(), actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"retest_requests": attempts})
}

// AuditTrail lists the audit entries recorded against one target.
func (h *AssignmentHandler) AuditTrail(c *gin.Context) {
	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	targetType := c.Query("target_type")
	targetID := c.Query("target_id")

	entries, err := h.assignmentService.AuditTrail(c.Request.Context(), targetType, targetID, actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audit_trail": entries})
}
