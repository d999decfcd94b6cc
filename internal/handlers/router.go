package handlers

import (
	"github.com/eduport/examportal-service/internal/services"
	"github.com/eduport/examportal-service/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	attemptHandler    *AttemptHandler
	assignmentHandler *AssignmentHandler
	resultHandler     *ResultHandler
	auth              *Authenticator
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	auth *Authenticator,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		attemptHandler:    NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		assignmentHandler: NewAssignmentHandler(serviceManager.Assignment(), validator, logger),
		resultHandler:     NewResultHandler(serviceManager.Result(), logger),
		auth:              auth,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.Use(cors.Default())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "examportal-service",
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(hm.auth.Middleware())
	{
		exams := v1.Group("/exams")
		{
			exams.POST("/:exam_id/attempts", hm.attemptHandler.Admit)
			exams.GET("/:exam_id/play", hm.attemptHandler.PlayView)
			exams.GET("/:exam_id/attempts", hm.attemptHandler.ListByExam)
			exams.GET("/:exam_id/result", hm.resultHandler.GetLatestResult)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.POST("/submit", hm.attemptHandler.Submit)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.GET("/:id/time-remaining", hm.attemptHandler.TimeRemaining)
			attempts.GET("/:id/result", hm.resultHandler.GetResult)
			attempts.POST("/:id/retest", hm.assignmentHandler.RequestRetest)
		}

		admin := v1.Group("/admin")
		admin.Use(RequireAdmin())
		{
			admin.POST("/exams/:exam_id/assignments", hm.assignmentHandler.Assign)
			admin.GET("/exams/:exam_id/assignments", hm.assignmentHandler.ListByExam)
			admin.DELETE("/exams/:exam_id/assignments/:user_id", hm.assignmentHandler.Unassign)
			admin.POST("/exams/:exam_id/assignments/import", hm.assignmentHandler.ImportRoster)
			admin.POST("/exams/:exam_id/assignments/:user_id/reattempt", hm.assignmentHandler.GrantReattempt)

			admin.GET("/retest-requests", hm.assignmentHandler.ListRetestRequests)
			admin.POST("/attempts/:id/retest/approve", hm.assignmentHandler.ApproveRetest)
			admin.POST("/attempts/:id/retest/deny", hm.assignmentHandler.DenyRetest)

			admin.GET("/audit", hm.assignmentHandler.AuditTrail)
		}
	}
}
