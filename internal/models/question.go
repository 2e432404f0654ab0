package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
)

// QuestionTypeFilter is used when assembling quizzes; "both" disables filtering.
type QuestionTypeFilter string

const (
	FilterMultipleChoice QuestionTypeFilter = "multiple_choice"
	FilterTrueFalse      QuestionTypeFilter = "true_false"
	FilterBoth           QuestionTypeFilter = "both"
)

// Matches returns whether a question type passes the filter.
func (f QuestionTypeFilter) Matches(t QuestionType) bool {
	return f == FilterBoth || string(f) == string(t)
}

func (f QuestionTypeFilter) Valid() bool {
	switch f {
	case FilterMultipleChoice, FilterTrueFalse, FilterBoth:
		return true
	}
	return false
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

func (d DifficultyLevel) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question is a single entry in a module's question bank. Once a question
// has been snapshotted into an issued quiz, edits must create a new record
// rather than mutating this one, so scored history stays stable.
type Question struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	ModuleID uint         `json:"module_id" gorm:"not null;index"`
	Type     QuestionType `json:"type" gorm:"not null;index"`
	Text     string       `json:"text" gorm:"type:text;not null" validate:"required"`

	// Options stored as JSONB ([]string). Empty for true/false questions,
	// which always present the fixed true/false pair.
	Options       datatypes.JSON `json:"options" gorm:"type:jsonb"`
	CorrectAnswer string         `json:"correct_answer" gorm:"not null" validate:"required"`

	Difficulty DifficultyLevel `json:"difficulty" gorm:"default:medium;index"`

	CreatedBy string    `json:"created_by" gorm:"index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TrueFalseOptions is the fixed option pair presented for true/false questions.
var TrueFalseOptions = []string{"true", "false"}
