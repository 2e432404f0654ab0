package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenlearn/assessment-engine/internal/services"
	"github.com/lumenlearn/assessment-engine/internal/utils"
	"github.com/lumenlearn/assessment-engine/internal/validator"
)

type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
	validator   *validator.Validator
}

func NewQuizHandler(quizService services.QuizService, validator *validator.Validator, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
		validator:   validator,
	}
}

// AssembleInstructorQuiz creates a quiz from a module's question bank
// @Summary Assemble instructor quiz
// @Description Selects a requested number of questions from the module bank, honoring the type filter
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.AssembleInstructorQuizRequest true "Assembly parameters"
// @Success 201 {object} services.QuizResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/instructor [post]
func (h *QuizHandler) AssembleInstructorQuiz(c *gin.Context) {
	h.LogRequest(c, "Assembling instructor quiz")

	var req services.AssembleInstructorQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	quiz, err := h.quizService.AssembleForInstructor(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// AssembleLearnerQuiz creates an adaptive quiz for the calling learner
// @Summary Assemble learner quiz
// @Description Builds a fixed-size adaptive quiz gated by the learner's running average
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.AssembleLearnerQuizRequest true "Assembly parameters"
// @Success 201 {object} services.QuizResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/learner [post]
func (h *QuizHandler) AssembleLearnerQuiz(c *gin.Context) {
	h.LogRequest(c, "Assembling learner quiz")

	var req services.AssembleLearnerQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	quiz, err := h.quizService.AssembleForLearner(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz returns an issued quiz
// @Summary Get quiz
// @Description Returns an issued quiz; learners only see their own, without answers
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} services.QuizResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	quiz, err := h.quizService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}
