package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type QuizSource string

const (
	QuizSourceInstructor QuizSource = "instructor"
	QuizSourceLearner    QuizSource = "learner"
)

// QuizQuestion is the snapshot of a bank question taken at issue time.
// Later bank edits cannot retroactively change an already-issued quiz.
type QuizQuestion struct {
	QuestionID    uint            `json:"question_id"`
	Type          QuestionType    `json:"type"`
	Text          string          `json:"text"`
	Options       []string        `json:"options"`
	CorrectAnswer string          `json:"correct_answer"`
	Difficulty    DifficultyLevel `json:"difficulty"`
}

// Quiz is an issued set of question snapshots. Immutable after creation.
type Quiz struct {
	ID       uint       `json:"id" gorm:"primaryKey"`
	UserID   string     `json:"user_id" gorm:"not null;index;size:255"`
	ModuleID uint       `json:"module_id" gorm:"not null;index"`
	Source   QuizSource `json:"source" gorm:"not null;index"`

	// Questions holds the []QuizQuestion snapshot as JSONB.
	Questions datatypes.JSON `json:"questions" gorm:"type:jsonb;not null"`

	IssuedAt  time.Time `json:"issued_at"`
	CreatedAt time.Time `json:"created_at"`
}

// QuestionSnapshots decodes the JSONB snapshot column.
func (q *Quiz) QuestionSnapshots() ([]QuizQuestion, error) {
	var snaps []QuizQuestion
	if err := json.Unmarshal(q.Questions, &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// SetQuestionSnapshots encodes snapshots into the JSONB column.
func (q *Quiz) SetQuestionSnapshots(snaps []QuizQuestion) error {
	data, err := json.Marshal(snaps)
	if err != nil {
		return err
	}
	q.Questions = data
	return nil
}

// SnapshotQuestion copies a bank question into an immutable quiz snapshot.
func SnapshotQuestion(q *Question) (QuizQuestion, error) {
	snap := QuizQuestion{
		QuestionID:    q.ID,
		Type:          q.Type,
		Text:          q.Text,
		CorrectAnswer: q.CorrectAnswer,
		Difficulty:    q.Difficulty,
	}

	if q.Type == TrueFalse {
		snap.Options = append([]string(nil), TrueFalseOptions...)
		return snap, nil
	}

	if len(q.Options) > 0 {
		if err := json.Unmarshal(q.Options, &snap.Options); err != nil {
			return QuizQuestion{}, err
		}
	}
	return snap, nil
}
