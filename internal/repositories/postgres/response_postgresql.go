package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/repositories"
	"gorm.io/gorm"
)

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db}
}

// Create inserts a scored submission
func (r *ResponsePostgreSQL) Create(ctx context.Context, tx *gorm.DB, response *models.QuizResponse) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(response).Error; err != nil {
		return fmt.Errorf("failed to create quiz response: %w", err)
	}
	return nil
}

// GetByID retrieves a response by ID
func (r *ResponsePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizResponse, error) {
	db := r.getDB(tx)
	var response models.QuizResponse
	if err := db.WithContext(ctx).First(&response, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz response not found with ID %d", id)
		}
		return nil, fmt.Errorf("failed to get quiz response: %w", err)
	}
	return &response, nil
}

// GetByUserAndQuiz retrieves the current response for a (user, quiz) pair
func (r *ResponsePostgreSQL) GetByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID string, quizID uint) (*models.QuizResponse, error) {
	db := r.getDB(tx)
	var response models.QuizResponse
	if err := db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		First(&response).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz response not found for user %s and quiz %d", userID, quizID)
		}
		return nil, fmt.Errorf("failed to get quiz response: %w", err)
	}
	return &response, nil
}

// DeleteByUserAndQuiz removes the superseded response ahead of a retake.
// Deleting zero rows is not an error; the first attempt has nothing to remove.
func (r *ResponsePostgreSQL) DeleteByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID string, quizID uint) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Delete(&models.QuizResponse{}).Error; err != nil {
		return fmt.Errorf("failed to delete quiz response: %w", err)
	}
	return nil
}

// ListByUser lists all current responses for a user
func (r *ResponsePostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.QuizResponse, error) {
	db := r.getDB(tx)
	var responses []*models.QuizResponse
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at ASC").
		Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("failed to list quiz responses: %w", err)
	}
	return responses, nil
}

func (r *ResponsePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
