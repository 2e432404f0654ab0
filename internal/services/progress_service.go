package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lumenlearn/assessment-engine/internal/events"
	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/repositories"
	"gorm.io/gorm"
)

// The source behavior uses a single threshold (50) both for learner-facing
// pass/fail messaging and for module advancement. They are kept as separate
// constants so the two can diverge without a behavior audit.
const (
	// PassThreshold decides the learner-facing passed flag and recommendation.
	PassThreshold = 50.0

	// AdvanceThreshold decides whether a module pass advances completion.
	AdvanceThreshold = 50.0
)

type progressService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	publisher events.EventPublisher

	// Serializes ledger read-modify-write per (userID, courseID) so
	// concurrent submissions cannot lose an average update.
	locks *keyedMutex
}

func NewProgressService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, publisher events.EventPublisher) ProgressService {
	return &progressService{
		repo:      repo,
		db:        db,
		logger:    logger,
		publisher: publisher,
		locks:     newKeyedMutex(),
	}
}

// Enroll creates the ledger row a learner needs before taking quizzes.
// Enrolling twice returns the existing row unchanged.
func (s *progressService) Enroll(ctx context.Context, userID string, courseID uint) (*ProgressResponse, error) {
	s.logger.Info("Enrolling learner", "user_id", userID, "course_id", courseID)

	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if existing, err := s.repo.Progress().GetByUserAndCourse(ctx, nil, userID, courseID); err == nil {
		return buildProgressResponse(existing)
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing progress: %w", err)
	}

	progress := &models.CourseProgress{
		UserID:   userID,
		CourseID: courseID,
	}
	if err := progress.SetGrades(make([]*float64, course.NumModules)); err != nil {
		return nil, fmt.Errorf("failed to encode grades: %w", err)
	}
	if err := s.repo.Progress().Create(ctx, nil, progress); err != nil {
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}

	return buildProgressResponse(progress)
}

// GetProgress returns the ledger row for a (user, course) pair.
func (s *progressService) GetProgress(ctx context.Context, userID string, courseID uint) (*ProgressResponse, error) {
	progress, err := s.repo.Progress().GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return buildProgressResponse(progress)
}

// ApplyScore folds one scored submission into the ledger and advances
// completion state on a qualifying pass. previousScore is the score of the
// superseded response on a retake, nil on a first attempt.
//
// The whole read-modify-write runs under a per-(user, course) lock and a
// single database transaction.
func (s *progressService) ApplyScore(ctx context.Context, userID string, moduleID uint, score float64, previousScore *float64, passed bool) (*ProgressResponse, error) {
	module, err := s.repo.Module().GetByID(ctx, nil, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	unlock := s.locks.Lock(progressKey(userID, module.CourseID))
	defer unlock()

	var (
		result          *models.CourseProgress
		moduleCompleted bool
		courseCompleted bool
	)

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var txErr error
		result, moduleCompleted, courseCompleted, txErr = s.applyScoreTx(ctx, txRepo, userID, module, score, previousScore, passed)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.publishCompletionEvents(ctx, userID, module, result, moduleCompleted, courseCompleted)

	return buildProgressResponse(result)
}

// applyScoreTx is the ledger read-modify-write, run inside an existing
// transaction. The caller must hold the (user, course) lock.
func (s *progressService) applyScoreTx(ctx context.Context, txRepo repositories.Repository, userID string, module *models.CourseModule, score float64, previousScore *float64, passed bool) (*models.CourseProgress, bool, bool, error) {
	var moduleCompleted, courseCompleted bool

	progress, err := txRepo.Progress().GetByUserAndCourse(ctx, nil, userID, module.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, false, false, ErrProgressNotFound
		}
		return nil, false, false, fmt.Errorf("failed to get progress: %w", err)
	}

	course, err := txRepo.Course().GetByID(ctx, nil, module.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, false, false, ErrCourseNotFound
		}
		return nil, false, false, fmt.Errorf("failed to get course: %w", err)
	}

	if err := recordGrade(progress, module.ModuleOrder, course.NumModules, score); err != nil {
		return nil, false, false, err
	}

	applyAverage(progress, score, previousScore)

	if passed && score >= AdvanceThreshold && module.ModuleOrder > progress.CompletedModules {
		moduleCompleted = true
		progress.CompletedModules = module.ModuleOrder
		if course.NumModules > 0 {
			progress.CompletionPercentage = float64(progress.CompletedModules) / float64(course.NumModules) * 100
		}

		if progress.CompletionPercentage == 100 {
			added, err := s.markCourseCompleted(ctx, txRepo, userID, module.CourseID)
			if err != nil {
				return nil, false, false, err
			}
			courseCompleted = added
		}
	}

	if err := txRepo.Progress().Update(ctx, nil, progress); err != nil {
		return nil, false, false, fmt.Errorf("failed to update progress: %w", err)
	}

	return progress, moduleCompleted, courseCompleted, nil
}

// markCourseCompleted appends the course to the learner's completed set and
// bumps the course counter, exactly once. Returns false when the course was
// already in the set.
func (s *progressService) markCourseCompleted(ctx context.Context, txRepo repositories.Repository, userID string, courseID uint) (bool, error) {
	account, err := txRepo.Account().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, ErrAccountNotFound
		}
		return false, fmt.Errorf("failed to get account: %w", err)
	}

	done, err := account.HasCompletedCourse(courseID)
	if err != nil {
		return false, fmt.Errorf("failed to decode completed courses: %w", err)
	}
	if done {
		return false, nil
	}

	if err := account.AddCompletedCourse(courseID); err != nil {
		return false, fmt.Errorf("failed to record course completion: %w", err)
	}
	if err := txRepo.Account().Update(ctx, nil, account); err != nil {
		return false, fmt.Errorf("failed to update account: %w", err)
	}
	if err := txRepo.Course().IncrementCompletedLearners(ctx, nil, courseID); err != nil {
		return false, fmt.Errorf("failed to increment completed learners: %w", err)
	}

	return true, nil
}

func (s *progressService) publishCompletionEvents(ctx context.Context, userID string, module *models.CourseModule, progress *models.CourseProgress, moduleCompleted, courseCompleted bool) {
	if s.publisher == nil {
		return
	}

	if moduleCompleted {
		event := events.NewModuleCompletedEvent(userID, module.ID, module.CourseID,
			module.ModuleOrder, progress.CompletedModules, progress.CompletionPercentage)
		if err := s.publisher.PublishProgressEvent(ctx, event); err != nil {
			s.logger.Error("Failed to publish module completed event",
				"error", err, "user_id", userID, "module_id", module.ID)
		}
	}

	if courseCompleted {
		event := events.NewCourseCompletedEvent(userID, module.CourseID)
		if err := s.publisher.PublishProgressEvent(ctx, event); err != nil {
			s.logger.Error("Failed to publish course completed event",
				"error", err, "user_id", userID, "course_id", module.CourseID)
		}
	}
}
