package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumenlearn/assessment-engine/internal/events"
	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/repositories"
	"github.com/lumenlearn/assessment-engine/internal/validator"
	"gorm.io/gorm"
)

// Fixed learner-facing messages keyed on the pass flag.
const (
	passRecommendation = "Great work. You are ready to move on to the next module."
	failRecommendation = "Review the module material and retake the quiz when ready."
)

type responseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	progress  ProgressService
	publisher events.EventPublisher

	// Concrete ledger when available, so grading, retake supersession, and
	// the ledger fold share one transaction and one (user, course) lock.
	ledger *progressService
}

func NewResponseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, progress ProgressService, publisher events.EventPublisher) ResponseService {
	ledger, _ := progress.(*progressService)
	return &responseService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		progress:  progress,
		publisher: publisher,
		ledger:    ledger,
	}
}

// SubmitResponse grades a set of answers against the quiz's question
// snapshots, supersedes any prior response for the (user, quiz) pair, folds
// the score into the progress ledger, and runs the completion cascade on a
// qualifying pass. Every answer is validated before anything is written.
func (s *responseService) SubmitResponse(ctx context.Context, req *SubmitResponseRequest, userID string) (*ScoreFeedback, error) {
	s.logger.Info("Submitting quiz response", "quiz_id", req.QuizID, "user_id", userID, "answers", len(req.Answers))

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.Account().GetByID(ctx, nil, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if quiz.Source == models.QuizSourceLearner && quiz.UserID != userID {
		return nil, NewPermissionError(userID, quiz.ID, "quiz", "submit", "quiz belongs to another learner")
	}

	snaps, err := quiz.QuestionSnapshots()
	if err != nil {
		return nil, fmt.Errorf("failed to decode quiz snapshots: %w", err)
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("%w: quiz %d has no questions", ErrBadRequest, quiz.ID)
	}

	score, feedback, err := gradeAnswers(quiz.ID, snaps, req.Answers)
	if err != nil {
		return nil, err
	}
	passed := score >= PassThreshold

	module, err := s.repo.Module().GetByID(ctx, nil, quiz.ModuleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	// A prior response for this (user, quiz) makes the submission a retake.
	var previousScore *float64
	if existing, err := s.repo.Response().GetByUserAndQuiz(ctx, nil, userID, quiz.ID); err == nil {
		prev := existing.Score
		previousScore = &prev
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing response: %w", err)
	}
	retake := previousScore != nil

	response := &models.QuizResponse{
		UserID:      userID,
		QuizID:      quiz.ID,
		Score:       score,
		SubmittedAt: time.Now(),
	}
	if err := response.SetSubmittedAnswers(toSubmittedAnswers(req.Answers)); err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}

	if err := s.persistAndApply(ctx, userID, module, response, retake, score, previousScore, passed); err != nil {
		return nil, err
	}

	s.publishQuizSubmitted(ctx, userID, quiz, module, score, passed, retake, response.SubmittedAt)

	s.logger.Info("Quiz response scored",
		"quiz_id", quiz.ID,
		"user_id", userID,
		"score", score,
		"passed", passed,
		"retake", retake)

	return &ScoreFeedback{
		QuizID:         quiz.ID,
		Score:          score,
		Passed:         passed,
		Recommendation: recommendationFor(passed),
		Feedback:       feedback,
	}, nil
}

// persistAndApply replaces the superseded response, inserts the new one, and
// folds the score into the ledger. With a concrete ledger all of it runs in
// one transaction under the (user, course) lock.
func (s *responseService) persistAndApply(ctx context.Context, userID string, module *models.CourseModule, response *models.QuizResponse, retake bool, score float64, previousScore *float64, passed bool) error {
	if s.ledger != nil {
		unlock := s.ledger.locks.Lock(progressKey(userID, module.CourseID))
		defer unlock()

		var (
			progress        *models.CourseProgress
			moduleCompleted bool
			courseCompleted bool
		)
		err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
			if retake {
				if err := txRepo.Response().DeleteByUserAndQuiz(ctx, nil, userID, response.QuizID); err != nil {
					return fmt.Errorf("failed to delete superseded response: %w", err)
				}
			}
			if err := txRepo.Response().Create(ctx, nil, response); err != nil {
				return fmt.Errorf("failed to persist response: %w", err)
			}

			var txErr error
			progress, moduleCompleted, courseCompleted, txErr = s.ledger.applyScoreTx(ctx, txRepo, userID, module, score, previousScore, passed)
			return txErr
		})
		if err != nil {
			return err
		}

		s.ledger.publishCompletionEvents(ctx, userID, module, progress, moduleCompleted, courseCompleted)
		return nil
	}

	// Ledger implementations from outside this package manage their own
	// locking, so the response writes get their own transaction.
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if retake {
			if err := txRepo.Response().DeleteByUserAndQuiz(ctx, nil, userID, response.QuizID); err != nil {
				return fmt.Errorf("failed to delete superseded response: %w", err)
			}
		}
		if err := txRepo.Response().Create(ctx, nil, response); err != nil {
			return fmt.Errorf("failed to persist response: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	_, err = s.progress.ApplyScore(ctx, userID, module.ID, score, previousScore, passed)
	return err
}

func (s *responseService) publishQuizSubmitted(ctx context.Context, userID string, quiz *models.Quiz, module *models.CourseModule, score float64, passed, retake bool, submittedAt time.Time) {
	if s.publisher == nil {
		return
	}

	event := events.NewQuizSubmittedEvent(userID, quiz.ID, quiz.ModuleID, module.CourseID, score, passed, retake, submittedAt)
	if err := s.publisher.PublishProgressEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish quiz submitted event",
			"error", err, "user_id", userID, "quiz_id", quiz.ID)
	}
}

// gradeAnswers matches every submitted answer to its question snapshot and
// computes the percentage score over the full question count. An answer
// referencing a question not on the quiz, or a question answered more than
// once, rejects the whole submission. Each question counts at most once, so
// the score stays within 0..100.
func gradeAnswers(quizID uint, snaps []models.QuizQuestion, answers []SubmitAnswerRequest) (float64, []AnswerFeedback, error) {
	byID := make(map[uint]models.QuizQuestion, len(snaps))
	for _, snap := range snaps {
		byID[snap.QuestionID] = snap
	}

	feedback := make([]AnswerFeedback, 0, len(answers))
	answered := make(map[uint]struct{}, len(answers))
	correct := 0
	for _, answer := range answers {
		snap, ok := byID[answer.QuestionID]
		if !ok {
			return 0, nil, fmt.Errorf("%w: question %d is not on quiz %d", ErrInvalidQuestionID, answer.QuestionID, quizID)
		}
		if _, dup := answered[answer.QuestionID]; dup {
			return 0, nil, fmt.Errorf("%w: question %d answered more than once on quiz %d", ErrBadRequest, answer.QuestionID, quizID)
		}
		answered[answer.QuestionID] = struct{}{}

		isCorrect := answer.SelectedOption == snap.CorrectAnswer
		if isCorrect {
			correct++
		}
		feedback = append(feedback, AnswerFeedback{
			QuestionID:     answer.QuestionID,
			SelectedOption: answer.SelectedOption,
			CorrectAnswer:  snap.CorrectAnswer,
			IsCorrect:      isCorrect,
		})
	}

	score := 100 * float64(correct) / float64(len(snaps))
	return score, feedback, nil
}

func toSubmittedAnswers(answers []SubmitAnswerRequest) []models.SubmittedAnswer {
	out := make([]models.SubmittedAnswer, 0, len(answers))
	for _, a := range answers {
		out = append(out, models.SubmittedAnswer{
			QuestionID:     a.QuestionID,
			SelectedOption: a.SelectedOption,
		})
	}
	return out
}

func recommendationFor(passed bool) string {
	if passed {
		return passRecommendation
	}
	return failRecommendation
}
