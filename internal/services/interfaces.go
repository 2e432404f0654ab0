package services

import (
	"context"
	"time"

	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/repositories"
)

// ===== QUIZ ASSEMBLY DTOs =====

type AssembleInstructorQuizRequest struct {
	ModuleID   uint                      `json:"module_id" validate:"required"`
	Count      int                       `json:"count" validate:"required,min=1"`
	TypeFilter models.QuestionTypeFilter `json:"type_filter" validate:"required,question_type_filter"`
}

type AssembleLearnerQuizRequest struct {
	ModuleID uint `json:"module_id" validate:"required"`
}

// QuestionOnQuiz is the caller-facing view of one quiz question. The correct
// answer is only populated on instructor-facing responses.
type QuestionOnQuiz struct {
	QuestionID    uint                   `json:"question_id"`
	Type          models.QuestionType    `json:"type"`
	Text          string                 `json:"text"`
	Options       []string               `json:"options"`
	Difficulty    models.DifficultyLevel `json:"difficulty"`
	CorrectAnswer string                 `json:"correct_answer,omitempty"`
}

type QuizResponse struct {
	ID        uint              `json:"id"`
	UserID    string            `json:"user_id"`
	ModuleID  uint              `json:"module_id"`
	Source    models.QuizSource `json:"source"`
	IssuedAt  time.Time         `json:"issued_at"`
	Questions []QuestionOnQuiz  `json:"questions"`
}

// ===== SUBMISSION DTOs =====

type SubmitAnswerRequest struct {
	QuestionID     uint   `json:"question_id" validate:"required"`
	SelectedOption string `json:"selected_option" validate:"required"`
}

type SubmitResponseRequest struct {
	QuizID  uint                  `json:"quiz_id" validate:"required"`
	Answers []SubmitAnswerRequest `json:"answers" validate:"required,min=1,dive"`
}

// AnswerFeedback is the per-question grading detail returned to the learner.
type AnswerFeedback struct {
	QuestionID     uint   `json:"question_id"`
	SelectedOption string `json:"selected_option"`
	CorrectAnswer  string `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
}

type ScoreFeedback struct {
	QuizID         uint             `json:"quiz_id"`
	Score          float64          `json:"score"`
	Passed         bool             `json:"passed"`
	Recommendation string           `json:"recommendation"`
	Feedback       []AnswerFeedback `json:"feedback"`
}

// ===== PROGRESS DTOs =====

type ProgressResponse struct {
	UserID               string     `json:"user_id"`
	CourseID             uint       `json:"course_id"`
	CompletedModules     int        `json:"completed_modules"`
	CompletionPercentage float64    `json:"completion_percentage"`
	QuizzesTaken         int        `json:"quizzes_taken"`
	LastQuizScore        *float64   `json:"last_quiz_score"`
	AvgScore             *float64   `json:"avg_score"`
	QuizGrades           []*float64 `json:"quiz_grades"`
}

// ===== BANK AUTHORING DTOs =====

type CreateQuestionRequest struct {
	Type          models.QuestionType    `json:"type" validate:"required,question_type"`
	Text          string                 `json:"text" validate:"required,max=2000"`
	Options       []string               `json:"options"`
	CorrectAnswer string                 `json:"correct_answer" validate:"required"`
	Difficulty    models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
}

type QuestionResponse struct {
	*models.Question
	ParsedOptions []string `json:"parsed_options"`
}

type BankResponse struct {
	ModuleID  uint                `json:"module_id"`
	Questions []*QuestionResponse `json:"questions"`
	Stats     *repositories.BankStats
}

// ImportResult summarizes a bank import run: rows that landed and rows that
// were rejected with the reason.
type ImportResult struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors,omitempty"`
}

type ImportError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ===== SERVICE INTERFACES =====

type QuizService interface {
	// AssembleForInstructor selects count questions from the module's bank,
	// uniformly at random, honoring the type filter.
	AssembleForInstructor(ctx context.Context, req *AssembleInstructorQuizRequest, instructorID string) (*QuizResponse, error)

	// AssembleForLearner builds an adaptive quiz from the questions
	// instructors have already issued for the module, gated by the learner's
	// current difficulty tier.
	AssembleForLearner(ctx context.Context, req *AssembleLearnerQuizRequest, userID string) (*QuizResponse, error)

	GetByID(ctx context.Context, quizID uint, userID string) (*QuizResponse, error)
}

type ResponseService interface {
	// SubmitResponse scores a submission against the quiz snapshot, replaces
	// any superseded response, updates the ledger, and runs the completion
	// cascade on a pass.
	SubmitResponse(ctx context.Context, req *SubmitResponseRequest, userID string) (*ScoreFeedback, error)
}

type ProgressService interface {
	// Enroll creates the ledger row that quiz assembly and scoring require.
	Enroll(ctx context.Context, userID string, courseID uint) (*ProgressResponse, error)

	GetProgress(ctx context.Context, userID string, courseID uint) (*ProgressResponse, error)

	// ApplyScore folds a scored submission into the ledger and, when the
	// module was passed, advances completion state. previousScore is the
	// score of the superseded response on a retake, nil on a first attempt.
	ApplyScore(ctx context.Context, userID string, moduleID uint, score float64, previousScore *float64, passed bool) (*ProgressResponse, error)
}

type BankService interface {
	CreateQuestion(ctx context.Context, moduleID uint, req *CreateQuestionRequest, creatorID string) (*QuestionResponse, error)
	GetBank(ctx context.Context, moduleID uint, userID string) (*BankResponse, error)
	DeleteQuestion(ctx context.Context, questionID uint, userID string) error
}

type ImportExportService interface {
	// ImportBank loads questions into a module bank from a CSV or XLSX
	// upload. Rows that fail validation are reported, not imported.
	ImportBank(ctx context.Context, moduleID uint, filename string, data []byte, creatorID string) (*ImportResult, error)

	// ExportCourseResults renders every learner's ledger for a course as an
	// XLSX workbook.
	ExportCourseResults(ctx context.Context, courseID uint, userID string) ([]byte, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Quiz() QuizService
	Response() ResponseService
	Progress() ProgressService
	Bank() BankService
	ImportExport() ImportExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
