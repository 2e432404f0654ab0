package repositories

import (
	"github.com/lumenlearn/assessment-engine/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

// BankFilters narrows a module's question bank for quiz assembly and listing.
type BankFilters struct {
	Types        models.QuestionTypeFilter `json:"types"`
	Difficulties []models.DifficultyLevel  `json:"difficulties"`
	CreatedBy    *string                   `json:"created_by"`
	Limit        int                       `json:"limit"`
	Offset       int                       `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type BankStats struct {
	TotalQuestions  int                            `json:"total_questions"`
	QuestionsByType map[models.QuestionType]int    `json:"questions_by_type"`
	QuestionsByDiff map[models.DifficultyLevel]int `json:"questions_by_difficulty"`
}

// CourseResultRow is one learner row in a course results export.
type CourseResultRow struct {
	UserID               string     `json:"user_id"`
	CompletedModules     int        `json:"completed_modules"`
	CompletionPercentage float64    `json:"completion_percentage"`
	QuizzesTaken         int        `json:"quizzes_taken"`
	LastQuizScore        *float64   `json:"last_quiz_score"`
	AvgScore             *float64   `json:"avg_score"`
	Grades               []*float64 `json:"grades"`
}
