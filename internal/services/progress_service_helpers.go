package services

import (
	"fmt"
	"sync"

	"github.com/lumenlearn/assessment-engine/internal/models"
)

// keyedMutex hands out one mutex per key. Entries live for the life of the
// service; the key space is bounded by active (user, course) pairs.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func progressKey(userID string, courseID uint) string {
	return fmt.Sprintf("%s:%d", userID, courseID)
}

// recordGrade writes the score into the module's grade slot, resizing the
// grade sequence to the course's module count first if it does not match.
// Modules with order 0 are outside the sequential path and record no grade.
func recordGrade(progress *models.CourseProgress, moduleOrder, numModules int, score float64) error {
	if moduleOrder < 1 {
		return nil
	}

	grades, err := progress.Grades()
	if err != nil {
		return fmt.Errorf("failed to decode grades: %w", err)
	}
	if len(grades) != numModules {
		resized := make([]*float64, numModules)
		copy(resized, grades)
		grades = resized
	}
	if moduleOrder > len(grades) {
		return nil
	}

	s := score
	grades[moduleOrder-1] = &s

	return progress.SetGrades(grades)
}

// applyAverage maintains the running mean under first attempts and retakes.
// The superseded score is backed out and the new score added in, so the
// average stays the exact mean of all current response scores.
func applyAverage(progress *models.CourseProgress, score float64, previousScore *float64) {
	retake := previousScore != nil

	prev := 0.0
	if retake {
		prev = *previousScore
	}

	avg := 0.0
	if progress.AvgScore != nil {
		avg = *progress.AvgScore
	}

	divisor := progress.QuizzesTaken
	if !retake {
		divisor = progress.QuizzesTaken + 1
	}

	var newAvg float64
	if divisor == 0 {
		newAvg = score
	} else {
		newAvg = (avg*float64(progress.QuizzesTaken) - prev + score) / float64(divisor)
	}

	progress.AvgScore = &newAvg
	progress.LastQuizScore = &score

	if !retake {
		progress.QuizzesTaken++
	}
}

func buildProgressResponse(progress *models.CourseProgress) (*ProgressResponse, error) {
	grades, err := progress.Grades()
	if err != nil {
		return nil, fmt.Errorf("failed to decode grades: %w", err)
	}

	return &ProgressResponse{
		UserID:               progress.UserID,
		CourseID:             progress.CourseID,
		CompletedModules:     progress.CompletedModules,
		CompletionPercentage: progress.CompletionPercentage,
		QuizzesTaken:         progress.QuizzesTaken,
		LastQuizScore:        progress.LastQuizScore,
		AvgScore:             progress.AvgScore,
		QuizGrades:           grades,
	}, nil
}
