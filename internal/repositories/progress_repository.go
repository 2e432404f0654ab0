package repositories

import (
	"context"

	"github.com/lumenlearn/assessment-engine/internal/models"
	"gorm.io/gorm"
)

// ProgressRepository interface for the per-(user, course) ledger
type ProgressRepository interface {
	Create(ctx context.Context, tx *gorm.DB, progress *models.CourseProgress) error
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (*models.CourseProgress, error)
	Update(ctx context.Context, tx *gorm.DB, progress *models.CourseProgress) error

	// ListByCourse feeds the instructor results export.
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.CourseProgress, error)
}

// CourseRepository interface for course metadata reads and the completion counter
type CourseRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)

	// IncrementCompletedLearners bumps the counter atomically in SQL.
	IncrementCompletedLearners(ctx context.Context, tx *gorm.DB, id uint) error
}

// ModuleRepository interface for module metadata reads
type ModuleRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CourseModule, error)
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.CourseModule, error)
}

// AccountRepository interface for the completed-course set on user accounts
type AccountRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Account, error)
	Update(ctx context.Context, tx *gorm.DB, account *models.Account) error
}
