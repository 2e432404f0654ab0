package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// CourseProgress is the per-(user, course) performance ledger. Created at
// enrollment; mutated only by the response/progress services.
//
// Invariants:
//   - CompletedModules is monotonically non-decreasing.
//   - CompletionPercentage == CompletedModules / Course.NumModules * 100.
//   - QuizzesTaken counts distinct quizzes with a scored submission, not
//     resubmissions.
//   - AvgScore is the mean of all current (non-superseded) response scores.
type CourseProgress struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	UserID   string `json:"user_id" gorm:"not null;uniqueIndex:idx_user_course;size:255"`
	CourseID uint   `json:"course_id" gorm:"not null;uniqueIndex:idx_user_course"`

	CompletedModules     int     `json:"completed_modules" gorm:"default:0"`
	CompletionPercentage float64 `json:"completion_percentage" gorm:"default:0"`
	QuizzesTaken         int     `json:"quizzes_taken" gorm:"default:0"`

	LastQuizScore *float64 `json:"last_quiz_score"`
	AvgScore      *float64 `json:"avg_score"`

	// QuizGrades holds a []*float64 indexed by module order (JSONB), length
	// equal to the course's module count; nil slots are modules without a
	// scored submission yet.
	QuizGrades datatypes.JSON `json:"quiz_grades" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Grades decodes the JSONB grade column. A missing column decodes to nil.
func (p *CourseProgress) Grades() ([]*float64, error) {
	if len(p.QuizGrades) == 0 {
		return nil, nil
	}
	var grades []*float64
	if err := json.Unmarshal(p.QuizGrades, &grades); err != nil {
		return nil, err
	}
	return grades, nil
}

// SetGrades encodes grades into the JSONB column.
func (p *CourseProgress) SetGrades(grades []*float64) error {
	data, err := json.Marshal(grades)
	if err != nil {
		return err
	}
	p.QuizGrades = data
	return nil
}
