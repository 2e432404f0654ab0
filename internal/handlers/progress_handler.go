package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenlearn/assessment-engine/internal/services"
	"github.com/lumenlearn/assessment-engine/internal/utils"
)

type ProgressHandler struct {
	BaseHandler
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     NewBaseHandler(logger),
		progressService: progressService,
	}
}

// Enroll creates the progress record for the calling learner
// @Summary Enroll in course
// @Description Creates the learner's progress record for a course; enrolling twice is a no-op
// @Tags progress
// @Produce json
// @Param course_id path uint true "Course ID"
// @Success 201 {object} services.ProgressResponse
// @Failure 404 {object} ErrorResponse
// @Router /progress/{course_id}/enroll [post]
func (h *ProgressHandler) Enroll(c *gin.Context) {
	courseID := h.parseIDParam(c, "course_id")
	if courseID == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Enrolling learner", "course_id", courseID, "user_id", userID)

	progress, err := h.progressService.Enroll(c.Request.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, progress)
}

// GetProgress returns the calling learner's progress for a course
// @Summary Get course progress
// @Tags progress
// @Produce json
// @Param course_id path uint true "Course ID"
// @Success 200 {object} services.ProgressResponse
// @Failure 404 {object} ErrorResponse
// @Router /progress/{course_id} [get]
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	courseID := h.parseIDParam(c, "course_id")
	if courseID == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	progress, err := h.progressService.GetProgress(c.Request.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}
