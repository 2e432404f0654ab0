package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/repositories"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

// Create inserts an issued quiz. The snapshot column is written once here and
// never updated afterwards.
func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

// GetByID retrieves an issued quiz by ID
func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	db := q.getDB(tx)
	var quiz models.Quiz
	if err := db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz not found with ID %d", id)
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return &quiz, nil
}

// GetByModuleAndSource lists a module's quizzes from one assembly path
func (q *QuizPostgreSQL) GetByModuleAndSource(ctx context.Context, tx *gorm.DB, moduleID uint, source models.QuizSource) ([]*models.Quiz, error) {
	db := q.getDB(tx)
	var quizzes []*models.Quiz
	if err := db.WithContext(ctx).
		Where("module_id = ? AND source = ?", moduleID, source).
		Order("issued_at ASC").
		Find(&quizzes).Error; err != nil {
		return nil, fmt.Errorf("failed to get quizzes by module and source: %w", err)
	}
	return quizzes, nil
}

// GetByUserAndModule lists quizzes issued to one user for a module
func (q *QuizPostgreSQL) GetByUserAndModule(ctx context.Context, tx *gorm.DB, userID string, moduleID uint) ([]*models.Quiz, error) {
	db := q.getDB(tx)
	var quizzes []*models.Quiz
	if err := db.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Order("issued_at ASC").
		Find(&quizzes).Error; err != nil {
		return nil, fmt.Errorf("failed to get quizzes by user and module: %w", err)
	}
	return quizzes, nil
}

func (q *QuizPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
