package handlers

import (
	"net/http"

	"github.com/eduport/examportal-service/internal/services"
	"github.com/eduport/examportal-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ResultHandler struct {
	BaseHandler
	resultService services.ResultService
}

func NewResultHandler(resultService services.ResultService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler:   NewBaseHandler(logger),
		resultService: resultService,
	}
}

// GetResult returns the attempt outcome behind the publication gate.
func (h *ResultHandler) GetResult(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	callerID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	result, err := h.resultService.GetResult(c.Request.Context(), attemptID, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLatestResult returns the caller's most recent completed attempt on the
// exam, behind the same publication gate.
func (h *ResultHandler) GetLatestResult(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	callerID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	result, err := h.resultService.GetLatestResult(c.Request.Context(), examID, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
