package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenlearn/assessment-engine/internal/services"
	"github.com/lumenlearn/assessment-engine/internal/utils"
	"github.com/lumenlearn/assessment-engine/internal/validator"
)

type ResponseHandler struct {
	BaseHandler
	responseService services.ResponseService
	validator       *validator.Validator
}

func NewResponseHandler(responseService services.ResponseService, validator *validator.Validator, logger utils.Logger) *ResponseHandler {
	return &ResponseHandler{
		BaseHandler:     NewBaseHandler(logger),
		responseService: responseService,
		validator:       validator,
	}
}

// SubmitResponse scores a set of answers against an issued quiz
// @Summary Submit quiz response
// @Description Grades the submitted answers, supersedes any prior response for the quiz, and updates course progress
// @Tags responses
// @Accept json
// @Produce json
// @Param response body services.SubmitResponseRequest true "Submitted answers"
// @Success 200 {object} services.ScoreFeedback
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /responses [post]
func (h *ResponseHandler) SubmitResponse(c *gin.Context) {
	h.LogRequest(c, "Submitting quiz response")

	var req services.SubmitResponseRequest
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

	feedback, err := h.responseService.SubmitResponse(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, feedback)
}
