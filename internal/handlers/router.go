package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/lumenlearn/assessment-engine/internal/config"
	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/repositories"
	"github.com/lumenlearn/assessment-engine/internal/services"
	"github.com/lumenlearn/assessment-engine/internal/utils"
	"github.com/lumenlearn/assessment-engine/internal/validator"
)

type HandlerManager struct {
	quizHandler     *QuizHandler
	responseHandler *ResponseHandler
	progressHandler *ProgressHandler
	bankHandler     *BankHandler
	authMiddleware  *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	accountRepo repositories.AccountRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, accountRepo)

	return &HandlerManager{
		quizHandler:     NewQuizHandler(serviceManager.Quiz(), validator, logger),
		responseHandler: NewResponseHandler(serviceManager.Response(), validator, logger),
		progressHandler: NewProgressHandler(serviceManager.Progress(), logger),
		bankHandler:     NewBankHandler(serviceManager.Bank(), serviceManager.ImportExport(), validator, logger),
		authMiddleware:  authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Quiz assembly
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("/instructor", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.quizHandler.AssembleInstructorQuiz)
			quizzes.POST("/learner", hm.quizHandler.AssembleLearnerQuiz)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
		}

		// Response submission
		v1.POST("/responses", hm.responseHandler.SubmitResponse)

		// Progress
		progress := v1.Group("/progress")
		{
			progress.POST("/:course_id/enroll", hm.progressHandler.Enroll)
			progress.GET("/:course_id", hm.progressHandler.GetProgress)
		}

		// Question bank authoring - Instructors only
		banks := v1.Group("/banks")
		banks.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor))
		{
			banks.POST("/:module_id/questions", hm.bankHandler.CreateQuestion)
			banks.GET("/:module_id", hm.bankHandler.GetBank)
			banks.POST("/:module_id/import", hm.bankHandler.ImportBank)
		}

		v1.DELETE("/questions/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.bankHandler.DeleteQuestion)

		// Course results export - Instructors only
		v1.GET("/courses/:course_id/results/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.bankHandler.ExportCourseResults)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "assessment-engine",
		})
	})
}
