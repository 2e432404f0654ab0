package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/repositories"
	"github.com/lumenlearn/assessment-engine/internal/validator"
	"gorm.io/gorm"
)

// LearnerQuizSize is the fixed number of questions on an adaptive learner quiz.
const LearnerQuizSize = 3

type quizService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuizService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) QuizService {
	return &quizService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// AssembleForInstructor selects count questions from the module's bank,
// uniformly at random without replacement, honoring the type filter.
func (s *quizService) AssembleForInstructor(ctx context.Context, req *AssembleInstructorQuizRequest, instructorID string) (*QuizResponse, error) {
	s.logger.Info("Assembling instructor quiz",
		"module_id", req.ModuleID,
		"count", req.Count,
		"type_filter", req.TypeFilter,
		"instructor_id", instructorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bank, err := s.repo.Question().GetBank(ctx, nil, req.ModuleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question bank: %w", err)
	}
	if len(bank) == 0 {
		return nil, ErrBankNotFound
	}

	eligible := filterByType(bank, req.TypeFilter)
	if len(eligible) < req.Count {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientQuestions, len(eligible), req.Count)
	}

	selected := selectRandom(eligible, req.Count)

	quiz, err := s.persistQuiz(ctx, instructorID, req.ModuleID, models.QuizSourceInstructor, selected)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Instructor quiz assembled", "quiz_id", quiz.ID, "module_id", req.ModuleID)

	return buildQuizResponse(quiz, true)
}

// AssembleForLearner builds an adaptive quiz for an enrolled learner. The
// candidate pool is every distinct question instructors have already issued
// for the module, narrowed to the learner's current difficulty tier.
func (s *quizService) AssembleForLearner(ctx context.Context, req *AssembleLearnerQuizRequest, userID string) (*QuizResponse, error) {
	s.logger.Info("Assembling learner quiz", "module_id", req.ModuleID, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.Account().GetByID(ctx, nil, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	module, err := s.repo.Module().GetByID(ctx, nil, req.ModuleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	progress, err := s.repo.Progress().GetByUserAndCourse(ctx, nil, userID, module.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get course progress: %w", err)
	}

	avg := 0.0
	if progress.AvgScore != nil {
		avg = *progress.AvgScore
	}
	eligibleDifficulties := difficultyTier(avg)

	pool, err := s.learnerPool(ctx, req.ModuleID, eligibleDifficulties)
	if err != nil {
		return nil, err
	}
	if len(pool) < LearnerQuizSize {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientQuestions, len(pool), LearnerQuizSize)
	}

	selected := selectRandomSnapshots(pool, LearnerQuizSize)

	quiz := &models.Quiz{
		UserID:   userID,
		ModuleID: req.ModuleID,
		Source:   models.QuizSourceLearner,
		IssuedAt: time.Now(),
	}
	if err := quiz.SetQuestionSnapshots(selected); err != nil {
		return nil, fmt.Errorf("failed to encode quiz snapshots: %w", err)
	}
	if err := s.repo.Quiz().Create(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to persist quiz: %w", err)
	}

	s.logger.Info("Learner quiz assembled",
		"quiz_id", quiz.ID,
		"module_id", req.ModuleID,
		"user_id", userID,
		"avg_score", avg,
		"eligible_difficulties", fmt.Sprint(eligibleDifficulties))

	return buildQuizResponse(quiz, false)
}

// GetByID returns an issued quiz. Learners only see their own quizzes, and
// never the correct answers.
func (s *quizService) GetByID(ctx context.Context, quizID uint, userID string) (*QuizResponse, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if quiz.Source == models.QuizSourceLearner && quiz.UserID != userID {
		return nil, NewPermissionError(userID, quizID, "quiz", "read", "quiz belongs to another learner")
	}

	return buildQuizResponse(quiz, quiz.Source == models.QuizSourceInstructor && quiz.UserID == userID)
}

// persistQuiz snapshots the selected bank questions into a new quiz row.
func (s *quizService) persistQuiz(ctx context.Context, userID string, moduleID uint, source models.QuizSource, questions []*models.Question) (*models.Quiz, error) {
	snaps := make([]models.QuizQuestion, 0, len(questions))
	for _, question := range questions {
		snap, err := models.SnapshotQuestion(question)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot question %d: %w", question.ID, err)
		}
		snaps = append(snaps, snap)
	}

	quiz := &models.Quiz{
		UserID:   userID,
		ModuleID: moduleID,
		Source:   source,
		IssuedAt: time.Now(),
	}
	if err := quiz.SetQuestionSnapshots(snaps); err != nil {
		return nil, fmt.Errorf("failed to encode quiz snapshots: %w", err)
	}
	if err := s.repo.Quiz().Create(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to persist quiz: %w", err)
	}

	return quiz, nil
}

// learnerPool gathers the distinct question snapshots from every
// instructor-issued quiz for the module, filtered to the eligible
// difficulties.
func (s *quizService) learnerPool(ctx context.Context, moduleID uint, difficulties map[models.DifficultyLevel]bool) ([]models.QuizQuestion, error) {
	issued, err := s.repo.Quiz().GetByModuleAndSource(ctx, nil, moduleID, models.QuizSourceInstructor)
	if err != nil {
		return nil, fmt.Errorf("failed to load instructor quizzes: %w", err)
	}

	seen := make(map[uint]struct{})
	var pool []models.QuizQuestion
	for _, quiz := range issued {
		snaps, err := quiz.QuestionSnapshots()
		if err != nil {
			return nil, fmt.Errorf("failed to decode quiz %d snapshots: %w", quiz.ID, err)
		}
		for _, snap := range snaps {
			if _, ok := seen[snap.QuestionID]; ok {
				continue
			}
			seen[snap.QuestionID] = struct{}{}
			if difficulties[snap.Difficulty] {
				pool = append(pool, snap)
			}
		}
	}

	return pool, nil
}
