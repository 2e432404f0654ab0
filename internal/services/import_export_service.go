package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/repositories"
	"github.com/lumenlearn/assessment-engine/internal/validator"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// optionSeparator splits the options column of an import row.
const optionSeparator = "|"

type importExportService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewImportExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== IMPORT =====

// ImportBank loads questions into a module's bank from a CSV or XLSX upload.
// Rows that fail validation are reported in the result and skipped; valid
// rows are inserted in one transaction.
func (s *importExportService) ImportBank(ctx context.Context, moduleID uint, filename string, data []byte, creatorID string) (*ImportResult, error) {
	s.logger.Info("Starting bank import", "module_id", moduleID, "filename", filename, "creator_id", creatorID)

	if _, err := s.repo.Module().GetByID(ctx, nil, moduleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		rows, err = readCSVRows(data)
	case ".xlsx", ".xls":
		rows, err = readExcelRows(data)
	default:
		return nil, NewValidationError("file", "unsupported file format", ext)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, NewValidationError("file", "file must have a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range []string{"question_type", "question_text", "correct_answer"} {
		if _, ok := headerMap[col]; !ok {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	result := &ImportResult{}
	var questions []*models.Question

	for rowIndex, row := range rows[1:] {
		rowNum := rowIndex + 2
		question, reason := s.parseImportRow(row, headerMap, moduleID, creatorID)
		if reason != "" {
			result.Skipped++
			result.Errors = append(result.Errors, ImportError{Row: rowNum, Reason: reason})
			continue
		}
		questions = append(questions, question)
		result.Imported++
	}

	if len(questions) > 0 {
		err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
			return txRepo.Question().CreateBatch(ctx, nil, questions)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save imported questions: %w", err)
		}
	}

	s.logger.Info("Bank import completed",
		"module_id", moduleID,
		"imported", result.Imported,
		"skipped", result.Skipped)

	return result, nil
}

func readCSVRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}

func readExcelRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	return rows, nil
}

// parseImportRow turns one data row into a bank question. A non-empty reason
// rejects the row.
func (s *importExportService) parseImportRow(row []string, headerMap map[string]int, moduleID uint, creatorID string) (*models.Question, string) {
	getColumn := func(name string) string {
		if index, ok := headerMap[name]; ok && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	typeStr := strings.ToLower(getColumn("question_type"))
	if typeStr == "" {
		return nil, "question_type is required"
	}
	qType := models.QuestionType(typeStr)
	if qType != models.MultipleChoice && qType != models.TrueFalse {
		return nil, fmt.Sprintf("unsupported question type: %s", typeStr)
	}

	text := getColumn("question_text")
	if text == "" {
		return nil, "question_text is required"
	}

	var options []string
	if optionsStr := getColumn("options"); optionsStr != "" {
		for _, opt := range strings.Split(optionsStr, optionSeparator) {
			if opt = strings.TrimSpace(opt); opt != "" {
				options = append(options, opt)
			}
		}
	}

	correctAnswer := getColumn("correct_answer")
	if qType == models.TrueFalse {
		correctAnswer = strings.ToLower(correctAnswer)
	}

	difficulty := models.DifficultyMedium
	if diffStr := strings.ToLower(getColumn("difficulty")); diffStr != "" {
		difficulty = models.DifficultyLevel(diffStr)
		if !difficulty.Valid() {
			return nil, fmt.Sprintf("invalid difficulty: %s", diffStr)
		}
	}

	if errs := s.validator.ValidateQuestionContent(qType, options, correctAnswer); len(errs) > 0 {
		return nil, errs.Error()
	}

	question, err := buildQuestion(moduleID, &CreateQuestionRequest{
		Type:          qType,
		Text:          text,
		Options:       options,
		CorrectAnswer: correctAnswer,
		Difficulty:    difficulty,
	}, creatorID)
	if err != nil {
		return nil, err.Error()
	}

	return question, ""
}

// ===== EXPORT =====

// ExportCourseResults renders every learner's ledger for a course as an XLSX
// workbook, one row per learner with per-module grade columns.
func (s *importExportService) ExportCourseResults(ctx context.Context, courseID uint, userID string) ([]byte, error) {
	s.logger.Info("Exporting course results", "course_id", courseID, "user_id", userID)

	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	ledger, err := s.repo.Progress().ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course progress: %w", err)
	}

	results := make([]repositories.CourseResultRow, 0, len(ledger))
	for _, progress := range ledger {
		grades, err := progress.Grades()
		if err != nil {
			return nil, fmt.Errorf("failed to decode grades for user %s: %w", progress.UserID, err)
		}
		results = append(results, repositories.CourseResultRow{
			UserID:               progress.UserID,
			CompletedModules:     progress.CompletedModules,
			CompletionPercentage: progress.CompletionPercentage,
			QuizzesTaken:         progress.QuizzesTaken,
			LastQuizScore:        progress.LastQuizScore,
			AvgScore:             progress.AvgScore,
			Grades:               grades,
		})
	}

	return s.writeResultsWorkbook(ctx, course, results)
}

func (s *importExportService) writeResultsWorkbook(ctx context.Context, course *models.Course, results []repositories.CourseResultRow) ([]byte, error) {
	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Learner ID", "Learner Name", "Quizzes Taken", "Avg Score", "Last Score",
		"Completed Modules", "Completion %",
	}
	for i := 1; i <= course.NumModules; i++ {
		headers = append(headers, fmt.Sprintf("Module %d", i))
	}

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, result := range results {
		row := []interface{}{
			result.UserID,
			s.learnerName(ctx, result.UserID),
			result.QuizzesTaken,
			floatOrEmpty(result.AvgScore),
			floatOrEmpty(result.LastQuizScore),
			result.CompletedModules,
			result.CompletionPercentage,
		}
		for i := 0; i < course.NumModules; i++ {
			if i < len(result.Grades) {
				row = append(row, floatOrEmpty(result.Grades[i]))
			} else {
				row = append(row, "")
			}
		}

		for colIndex, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cell name: %w", err)
			}
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	return buf.Bytes(), nil
}

// learnerName resolves a display name for the export; missing accounts leave
// the column blank rather than failing the whole workbook.
func (s *importExportService) learnerName(ctx context.Context, userID string) string {
	account, err := s.repo.Account().GetByID(ctx, nil, userID)
	if err != nil {
		return ""
	}
	return account.FullName
}

func floatOrEmpty(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
