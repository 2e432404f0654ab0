package services

import (
	"fmt"
	"math/rand"

	"github.com/lumenlearn/assessment-engine/internal/models"
)

// difficultyTier maps a running average onto the difficulties a learner may
// receive. Gates widen as performance improves; strong learners stop seeing
// easy material.
//
//	avg <= 39  -> {easy}
//	40..69     -> {easy, medium}
//	avg >= 70  -> {medium, hard}
func difficultyTier(avgScore float64) map[models.DifficultyLevel]bool {
	switch {
	case avgScore < 40:
		return map[models.DifficultyLevel]bool{
			models.DifficultyEasy: true,
		}
	case avgScore < 70:
		return map[models.DifficultyLevel]bool{
			models.DifficultyEasy:   true,
			models.DifficultyMedium: true,
		}
	default:
		return map[models.DifficultyLevel]bool{
			models.DifficultyMedium: true,
			models.DifficultyHard:   true,
		}
	}
}

// filterByType narrows a bank by the requested question type filter.
func filterByType(bank []*models.Question, filter models.QuestionTypeFilter) []*models.Question {
	if filter == models.FilterBoth {
		return bank
	}
	var out []*models.Question
	for _, q := range bank {
		if filter.Matches(q.Type) {
			out = append(out, q)
		}
	}
	return out
}

// selectRandom picks count questions uniformly at random without replacement.
// The input slice is not mutated.
func selectRandom(questions []*models.Question, count int) []*models.Question {
	shuffled := make([]*models.Question, len(questions))
	copy(shuffled, questions)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:count]
}

// selectRandomSnapshots is selectRandom over already-snapshotted questions.
func selectRandomSnapshots(snaps []models.QuizQuestion, count int) []models.QuizQuestion {
	shuffled := make([]models.QuizQuestion, len(snaps))
	copy(shuffled, snaps)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:count]
}

// buildQuizResponse converts a persisted quiz into the caller-facing view.
// Correct answers are stripped unless the caller owns the authoring side.
func buildQuizResponse(quiz *models.Quiz, includeAnswers bool) (*QuizResponse, error) {
	snaps, err := quiz.QuestionSnapshots()
	if err != nil {
		return nil, fmt.Errorf("failed to decode quiz snapshots: %w", err)
	}

	questions := make([]QuestionOnQuiz, 0, len(snaps))
	for _, snap := range snaps {
		q := QuestionOnQuiz{
			QuestionID: snap.QuestionID,
			Type:       snap.Type,
			Text:       snap.Text,
			Options:    snap.Options,
			Difficulty: snap.Difficulty,
		}
		if includeAnswers {
			q.CorrectAnswer = snap.CorrectAnswer
		}
		questions = append(questions, q)
	}

	return &QuizResponse{
		ID:        quiz.ID,
		UserID:    quiz.UserID,
		ModuleID:  quiz.ModuleID,
		Source:    quiz.Source,
		IssuedAt:  quiz.IssuedAt,
		Questions: questions,
	}, nil
}
