package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenlearn/assessment-engine/internal/cache"
	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
	inTx         bool
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// newQuestionPostgreSQLTx binds the repository to an open transaction;
// transactional reads bypass the cache.
func newQuestionPostgreSQLTx(tx *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           tx,
		cacheManager: cache.NewCacheManager(redisClient),
		inTx:         true,
	}
}

// ===== BASIC CRUD OPERATIONS =====

// Create creates a new bank question and invalidates the module's bank cache
func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	cache.InvalidateBankCache(ctx, q.cacheManager, question.ModuleID)

	return nil
}

// GetByID retrieves a question by ID
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("question not found with ID %d", id)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

// Update updates a question
func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}

	cache.InvalidateBankCache(ctx, q.cacheManager, question.ModuleID)

	return nil
}

// Delete removes a question from its bank. Issued quizzes keep their
// snapshots, so no quiz rows are touched.
func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)

	var question models.Question
	if err := db.WithContext(ctx).Select("id, module_id").First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("question not found with ID %d", id)
		}
		return fmt.Errorf("failed to get question before delete: %w", err)
	}

	if err := db.WithContext(ctx).Delete(&models.Question{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	cache.InvalidateBankCache(ctx, q.cacheManager, question.ModuleID)

	return nil
}

// ===== BULK OPERATIONS =====

// CreateBatch creates multiple questions in a batch
func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	db := q.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions batch: %w", err)
	}

	seen := make(map[uint]struct{})
	for _, question := range questions {
		if _, ok := seen[question.ModuleID]; ok {
			continue
		}
		seen[question.ModuleID] = struct{}{}
		cache.InvalidateBankCache(ctx, q.cacheManager, question.ModuleID)
	}

	return nil
}

// ===== BANK QUERIES =====

// GetBank retrieves the full question bank for a module with caching.
// Transactional reads go straight to the transaction.
func (q *QuestionPostgreSQL) GetBank(ctx context.Context, tx *gorm.DB, moduleID uint) ([]*models.Question, error) {
	db := q.getDB(tx)

	if tx != nil || q.inTx {
		var questions []*models.Question
		if err := db.WithContext(ctx).
			Where("module_id = ?", moduleID).
			Order("id ASC").
			Find(&questions).Error; err != nil {
			return nil, fmt.Errorf("failed to get question bank: %w", err)
		}
		return questions, nil
	}

	cacheKey := fmt.Sprintf("module:%d", moduleID)
	var questions []*models.Question

	err := q.cacheManager.Bank.CacheOrExecute(ctx, cacheKey, &questions, cache.BankCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestions []*models.Question
		if err := db.WithContext(ctx).
			Where("module_id = ?", moduleID).
			Order("id ASC").
			Find(&dbQuestions).Error; err != nil {
			return nil, fmt.Errorf("failed to get question bank: %w", err)
		}
		return dbQuestions, nil
	})

	if err != nil {
		return nil, err
	}

	return questions, nil
}

// GetBankFiltered retrieves a module's bank narrowed by type and difficulty.
// Filtered reads skip the cache; the filter space is too wide to key usefully.
func (q *QuestionPostgreSQL) GetBankFiltered(ctx context.Context, tx *gorm.DB, moduleID uint, filters repositories.BankFilters) ([]*models.Question, error) {
	db := q.getDB(tx)

	query := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("module_id = ?", moduleID)

	query = applyBankFilters(query, filters)

	var questions []*models.Question
	if err := query.Order("id ASC").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get filtered question bank: %w", err)
	}

	return questions, nil
}

// CountByModule counts bank questions for a module
func (q *QuestionPostgreSQL) CountByModule(ctx context.Context, tx *gorm.DB, moduleID uint) (int64, error) {
	db := q.getDB(tx)

	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("module_id = ?", moduleID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}

	return count, nil
}

// ===== STATISTICS =====

// GetBankStats aggregates per-type and per-difficulty counts for a module
func (q *QuestionPostgreSQL) GetBankStats(ctx context.Context, tx *gorm.DB, moduleID uint) (*repositories.BankStats, error) {
	db := q.getDB(tx)

	stats := &repositories.BankStats{
		QuestionsByType: make(map[models.QuestionType]int),
		QuestionsByDiff: make(map[models.DifficultyLevel]int),
	}

	type row struct {
		Type       models.QuestionType
		Difficulty models.DifficultyLevel
		Count      int
	}

	var rows []row
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Select("type, difficulty, COUNT(*) as count").
		Where("module_id = ?", moduleID).
		Group("type, difficulty").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get bank stats: %w", err)
	}

	for _, r := range rows {
		stats.TotalQuestions += r.Count
		stats.QuestionsByType[r.Type] += r.Count
		stats.QuestionsByDiff[r.Difficulty] += r.Count
	}

	return stats, nil
}

// ===== HELPERS =====

func applyBankFilters(query *gorm.DB, filters repositories.BankFilters) *gorm.DB {
	switch filters.Types {
	case models.FilterMultipleChoice:
		query = query.Where("type = ?", models.MultipleChoice)
	case models.FilterTrueFalse:
		query = query.Where("type = ?", models.TrueFalse)
	}

	if len(filters.Difficulties) > 0 {
		query = query.Where("difficulty IN ?", filters.Difficulties)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	return query
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
