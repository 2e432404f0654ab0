package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenlearn/assessment-engine/internal/services"
	"github.com/lumenlearn/assessment-engine/internal/utils"
	"github.com/lumenlearn/assessment-engine/internal/validator"
)

// maxImportSize caps bank import uploads at 10 MB.
const maxImportSize = 10 << 20

type BankHandler struct {
	BaseHandler
	bankService         services.BankService
	importExportService services.ImportExportService
	validator           *validator.Validator
}

func NewBankHandler(bankService services.BankService, importExportService services.ImportExportService, validator *validator.Validator, logger utils.Logger) *BankHandler {
	return &BankHandler{
		BaseHandler:         NewBaseHandler(logger),
		bankService:         bankService,
		importExportService: importExportService,
		validator:           validator,
	}
}

// CreateQuestion adds a question to a module's bank
// @Summary Create bank question
// @Tags banks
// @Accept json
// @Produce json
// @Param module_id path uint true "Module ID"
// @Param question body services.CreateQuestionRequest true "Question data"
// @Success 201 {object} services.QuestionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /banks/{module_id}/questions [post]
func (h *BankHandler) CreateQuestion(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	h.LogRequest(c, "Creating bank question", "module_id", moduleID)

	var req services.CreateQuestionRequest
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

	question, err := h.bankService.CreateQuestion(c.Request.Context(), moduleID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// GetBank lists a module's question bank with stats
// @Summary Get question bank
// @Tags banks
// @Produce json
// @Param module_id path uint true "Module ID"
// @Success 200 {object} services.BankResponse
// @Failure 404 {object} ErrorResponse
// @Router /banks/{module_id} [get]
func (h *BankHandler) GetBank(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	bank, err := h.bankService.GetBank(c.Request.Context(), moduleID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bank)
}

// DeleteQuestion removes a question from its bank
// @Summary Delete bank question
// @Tags banks
// @Produce json
// @Param id path uint true "Question ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [delete]
func (h *BankHandler) DeleteQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Deleting bank question", "question_id", id)

	if err := h.bankService.DeleteQuestion(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ImportBank loads questions into a module bank from an uploaded file
// @Summary Import question bank
// @Description Accepts a CSV or XLSX upload; invalid rows are reported and skipped
// @Tags banks
// @Accept multipart/form-data
// @Produce json
// @Param module_id path uint true "Module ID"
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} services.ImportResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /banks/{module_id}/import [post]
func (h *BankHandler) ImportBank(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}
	if fileHeader.Size > maxImportSize {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "File too large",
		})
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Importing question bank", "module_id", moduleID, "filename", fileHeader.Filename)

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open upload",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read upload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.importExportService.ImportBank(c.Request.Context(), moduleID, fileHeader.Filename, data, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportCourseResults downloads course results as an XLSX workbook
// @Summary Export course results
// @Tags courses
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param course_id path uint true "Course ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /courses/{course_id}/results/export [get]
func (h *BankHandler) ExportCourseResults(c *gin.Context) {
	courseID := h.parseIDParam(c, "course_id")
	if courseID == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Exporting course results", "course_id", courseID)

	data, err := h.importExportService.ExportCourseResults(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=course_%d_results.xlsx", courseID))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
