package repositories

import (
	"context"

	"github.com/lumenlearn/assessment-engine/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository interface for question-bank operations
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Bulk operations
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error

	// Bank queries
	GetBank(ctx context.Context, tx *gorm.DB, moduleID uint) ([]*models.Question, error)
	GetBankFiltered(ctx context.Context, tx *gorm.DB, moduleID uint, filters BankFilters) ([]*models.Question, error)
	CountByModule(ctx context.Context, tx *gorm.DB, moduleID uint) (int64, error)

	// Statistics
	GetBankStats(ctx context.Context, tx *gorm.DB, moduleID uint) (*BankStats, error)
}
