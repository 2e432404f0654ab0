package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/repositories"
	"gorm.io/gorm"
)

type AccountPostgreSQL struct {
	db *gorm.DB
}

func NewAccountPostgreSQL(db *gorm.DB) repositories.AccountRepository {
	return &AccountPostgreSQL{db: db}
}

// GetByID retrieves an account by its external ID
func (a *AccountPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Account, error) {
	db := a.getDB(tx)
	var account models.Account
	if err := db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account not found with ID %s", id)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// Update saves the account, including the completed-course set
func (a *AccountPostgreSQL) Update(ctx context.Context, tx *gorm.DB, account *models.Account) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Save(account).Error; err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

func (a *AccountPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}
