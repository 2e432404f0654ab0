package repositories

import (
	"context"

	"github.com/lumenlearn/assessment-engine/internal/models"
	"gorm.io/gorm"
)

// QuizRepository interface for issued-quiz operations. Quizzes are immutable
// after creation so there is no Update.
type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)

	// GetByModuleAndSource lists quizzes issued for a module from one
	// assembly path. The learner pool is built from instructor-source rows.
	GetByModuleAndSource(ctx context.Context, tx *gorm.DB, moduleID uint, source models.QuizSource) ([]*models.Quiz, error)
	GetByUserAndModule(ctx context.Context, tx *gorm.DB, userID string, moduleID uint) ([]*models.Quiz, error)
}

// ResponseRepository interface for scored submissions
type ResponseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, response *models.QuizResponse) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizResponse, error)
	GetByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID string, quizID uint) (*models.QuizResponse, error)

	// DeleteByUserAndQuiz removes the superseded row ahead of a retake insert.
	DeleteByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID string, quizID uint) error

	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.QuizResponse, error)
}
