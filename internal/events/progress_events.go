package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of progress events
type EventType string

const (
	EventQuizSubmitted   EventType = "quiz.submitted"
	EventModuleCompleted EventType = "module.completed"
	EventCourseCompleted EventType = "course.completed"
)

const eventSource = "assessment-engine"

// ProgressEvent is the base event structure for all progress events
type ProgressEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type QuizSubmittedEvent struct {
	UserID      string    `json:"user_id"`
	QuizID      uint      `json:"quiz_id"`
	ModuleID    uint      `json:"module_id"`
	CourseID    uint      `json:"course_id"`
	Score       float64   `json:"score"`
	Passed      bool      `json:"passed"`
	Retake      bool      `json:"retake"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ModuleCompletedEvent struct {
	UserID               string  `json:"user_id"`
	ModuleID             uint    `json:"module_id"`
	CourseID             uint    `json:"course_id"`
	ModuleOrder          int     `json:"module_order"`
	CompletedModules     int     `json:"completed_modules"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

type CourseCompletedEvent struct {
	UserID   string `json:"user_id"`
	CourseID uint   `json:"course_id"`
}

// Event factory functions

func NewQuizSubmittedEvent(userID string, quizID, moduleID, courseID uint, score float64, passed, retake bool, submittedAt time.Time) *ProgressEvent {
	return &ProgressEvent{
		ID:        GenerateEventID(),
		Type:      EventQuizSubmitted,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: QuizSubmittedEvent{
			UserID:      userID,
			QuizID:      quizID,
			ModuleID:    moduleID,
			CourseID:    courseID,
			Score:       score,
			Passed:      passed,
			Retake:      retake,
			SubmittedAt: submittedAt,
		},
	}
}

func NewModuleCompletedEvent(userID string, moduleID, courseID uint, moduleOrder, completedModules int, completionPercentage float64) *ProgressEvent {
	return &ProgressEvent{
		ID:        GenerateEventID(),
		Type:      EventModuleCompleted,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: ModuleCompletedEvent{
			UserID:               userID,
			ModuleID:             moduleID,
			CourseID:             courseID,
			ModuleOrder:          moduleOrder,
			CompletedModules:     completedModules,
			CompletionPercentage: completionPercentage,
		},
	}
}

func NewCourseCompletedEvent(userID string, courseID uint) *ProgressEvent {
	return &ProgressEvent{
		ID:        GenerateEventID(),
		Type:      EventCourseCompleted,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: CourseCompletedEvent{
			UserID:   userID,
			CourseID: courseID,
		},
	}
}

// GenerateEventID returns a unique event identifier
func GenerateEventID() string {
	return uuid.New().String()
}
