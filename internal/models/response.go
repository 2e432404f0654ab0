package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// SubmittedAnswer pairs a snapshot question with the option the learner chose.
type SubmittedAnswer struct {
	QuestionID     uint   `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

// QuizResponse is the current scored submission for a (user, quiz) pair.
// Retake semantics: a resubmission deletes the prior row before inserting the
// new one, so at most one current response exists per pair.
type QuizResponse struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;index:idx_user_quiz;size:255"`
	QuizID uint   `json:"quiz_id" gorm:"not null;index:idx_user_quiz"`

	// Answers holds the []SubmittedAnswer payload as JSONB.
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb;not null"`

	Score       float64   `json:"score"` // percentage in [0,100]
	SubmittedAt time.Time `json:"submitted_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// SubmittedAnswers decodes the JSONB answers column.
func (r *QuizResponse) SubmittedAnswers() ([]SubmittedAnswer, error) {
	var answers []SubmittedAnswer
	if err := json.Unmarshal(r.Answers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// SetSubmittedAnswers encodes answers into the JSONB column.
func (r *QuizResponse) SetSubmittedAnswers(answers []SubmittedAnswer) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	r.Answers = data
	return nil
}
